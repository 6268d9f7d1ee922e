package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/egor/citydeals-admin/database"
	"github.com/egor/citydeals-admin/session"
)

type liveMsg struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type stateView struct {
	Status   string            `json:"status"`
	Rows     []json.RawMessage `json:"rows"`
	Statuses map[string]bool   `json:"statuses"`
	Pending  []string          `json:"pending"`
	Banner   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"banner"`
}

func dialLive(t *testing.T, env *testEnv, cookie string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Origin", "http://localhost:3000")
	if cookie != "" {
		header.Set("Cookie", cookie)
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	if err != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, code)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, _ := json.Marshal(payload)
	if err := conn.WriteJSON(liveMsg{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readUntil читает сообщения, пока match не вернёт true
func readUntil(t *testing.T, conn *websocket.Conn, match func(liveMsg) bool) []liveMsg {
	t.Helper()
	var seen []liveMsg
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m liveMsg
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read after %d messages: %v", len(seen), err)
		}
		seen = append(seen, m)
		if match(m) {
			return seen
		}
	}
}

// waitEntry ждёт записи журнала: она пишется после отправки состояния
func waitEntry(t *testing.T, env *testEnv, action string) database.Entry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e, ok := env.journal.last(); ok && e.Action == action {
			return e
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no %q journal entry", action)
	return database.Entry{}
}

func state(m liveMsg) stateView {
	var v stateView
	_ = json.Unmarshal(m.Payload, &v)
	return v
}

func TestLive_RequiresSession(t *testing.T) {
	env := newEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	header := http.Header{"Origin": {"http://localhost:3000"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	if err == nil {
		t.Fatal("dial without session must fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("resp = %+v", resp)
	}
}

func TestLive_RejectsForeignOrigin(t *testing.T) {
	env := newEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	header := http.Header{
		"Origin": {"https://evil.example"},
		"Cookie": {session.TokenCookie + "=tok"},
	}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	if err == nil {
		t.Fatal("foreign origin must be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("resp = %+v", resp)
	}
}

func TestLive_UnknownMessage(t *testing.T) {
	env := newEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	conn := dialLive(t, env, session.TokenCookie+"=tok")

	send(t, conn, "explorer.teleport", nil)
	msgs := readUntil(t, conn, func(m liveMsg) bool { return m.Type == "error" })
	var p struct{ Code string }
	_ = json.Unmarshal(msgs[len(msgs)-1].Payload, &p)
	if p.Code != codeUnknownType {
		t.Errorf("code = %q", p.Code)
	}

	send(t, conn, "explorer.filter", gin.H{"text": "x"})
	msgs = readUntil(t, conn, func(m liveMsg) bool { return m.Type == "error" })
	_ = json.Unmarshal(msgs[len(msgs)-1].Payload, &p)
	if p.Code != codeNoScreen {
		t.Errorf("filter without screen: code = %q", p.Code)
	}
}

func TestLive_ToggleRollback(t *testing.T) {
	env := newEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/companies":
			writeJSON(w, http.StatusOK, gin.H{"companies": []gin.H{{"id_company": 1, "name": "Café", "active": 1}}})
		case "/company/1/deactivate":
			writeJSON(w, http.StatusInternalServerError, gin.H{"message": "Service indisponible"})
		default:
			t.Errorf("unexpected %s", r.URL.Path)
		}
	})
	conn := dialLive(t, env, session.TokenCookie+"=tok")

	send(t, conn, "explorer.open", gin.H{"resource": "companies"})
	readUntil(t, conn, func(m liveMsg) bool {
		return m.Type == "explorer.state" && state(m).Status == "loaded" && len(state(m).Rows) == 1
	})

	send(t, conn, "explorer.toggle", gin.H{"id": "1"})
	msgs := readUntil(t, conn, func(m liveMsg) bool { return m.Type == "error" })

	var optimistic, last *stateView
	for _, m := range msgs {
		if m.Type != "explorer.state" {
			continue
		}
		v := state(m)
		if optimistic == nil && !v.Statuses["1"] {
			optimistic = &v
		}
		last = &v
	}
	if optimistic == nil {
		t.Error("no optimistic state was sent")
	}
	if last == nil || !last.Statuses["1"] || len(last.Pending) != 0 {
		t.Errorf("final state = %+v, want reverted to active", last)
	}

	var p struct{ Code, Message string }
	_ = json.Unmarshal(msgs[len(msgs)-1].Payload, &p)
	if p.Code != codeBackend || p.Message != "Service indisponible" {
		t.Errorf("error = %+v", p)
	}
	if e := waitEntry(t, env, "toggle"); e.Success {
		t.Errorf("journal = %+v", e)
	}
}

func TestLive_DeleteCategory(t *testing.T) {
	var deleted atomic.Bool
	env := newEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/company-categories":
			rows := []gin.H{{"id_company_category": 7, "name": "Restaurants"}}
			if deleted.Load() {
				rows = []gin.H{}
			}
			// ключ deal_categories тоже принимается
			writeJSON(w, http.StatusOK, gin.H{"deal_categories": rows})
		case r.Method == http.MethodDelete && r.URL.Path == "/company-category/7":
			deleted.Store(true)
			writeJSON(w, http.StatusOK, gin.H{"success": true})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	conn := dialLive(t, env, session.TokenCookie+"=tok")

	send(t, conn, "explorer.open", gin.H{"resource": "company_categories"})
	readUntil(t, conn, func(m liveMsg) bool {
		return m.Type == "explorer.state" && len(state(m).Rows) == 1
	})

	send(t, conn, "explorer.delete", gin.H{"id": "7"})
	send(t, conn, "explorer.delete.confirm", nil)
	msgs := readUntil(t, conn, func(m liveMsg) bool {
		v := state(m)
		return m.Type == "explorer.state" && v.Status == "loaded" && len(v.Rows) == 0
	})

	v := state(msgs[len(msgs)-1])
	if v.Banner == nil || v.Banner.Type != "success" || v.Banner.Message != "Catégorie supprimée avec succès." {
		t.Errorf("banner = %+v", v.Banner)
	}
	if e := waitEntry(t, env, "delete"); !e.Success || e.ResourceID != "7" {
		t.Errorf("journal = %+v", e)
	}
}
