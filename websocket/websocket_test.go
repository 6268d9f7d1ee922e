package websocket

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	raw, err := NewResourceChangedMessage("companies", "7", "delete")
	if err != nil {
		t.Fatal(err)
	}
	msg, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeResourceChanged {
		t.Errorf("type = %q", msg.Type)
	}
	var rc ResourceChanged
	if err := msg.Decode(&rc); err != nil {
		t.Fatal(err)
	}
	if rc != (ResourceChanged{Resource: "companies", ID: "7", Action: "delete"}) {
		t.Errorf("payload = %+v", rc)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"explorer.delete.cancel"}`))
	if err != nil {
		t.Fatal(err)
	}
	var out struct{ ID string }
	if err := msg.Decode(&out); err != nil {
		t.Errorf("empty payload: %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	raw, _ := NewErrorMessage("bad_request", "Message inconnu.")
	var got struct {
		Type    string `json:"type"`
		Payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != TypeError || got.Payload.Code != "bad_request" || got.Payload.Message != "Message inconnu." {
		t.Errorf("got %+v", got)
	}
}

func TestClientSendAfterClose(t *testing.T) {
	c := NewClient(NewHub(), nil, "admin@citydeals.fr")
	if !c.Send([]byte("x")) {
		t.Fatal("send on open client failed")
	}
	c.close()
	c.close()
	if c.Send([]byte("y")) {
		t.Error("send after close must be dropped")
	}
}

func TestClientSendJSON_ReportsFullQueue(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	c := NewClient(NewHub(), nil, "admin@citydeals.fr")
	for i := 0; i < cap(c.send); i++ {
		if !c.SendJSON(TypeExplorerState, map[string]int{"n": i}) {
			t.Fatalf("message %d dropped before the queue is full", i)
		}
	}
	if c.SendJSON(TypeExplorerState, nil) {
		t.Error("send into a full queue must report false")
	}
	if c.SendError("backend_error", "Une erreur est survenue.") {
		t.Error("error into a full queue must report false")
	}
	out := buf.String()
	if !strings.Contains(out, "отброшено") || !strings.Contains(out, "не доставлена") {
		t.Errorf("drops were not logged: %q", out)
	}
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	a := NewClient(h, nil, "a")
	b := NewClient(h, nil, "b")
	h.Add(a)
	h.Add(b)
	if n := h.Clients(); n != 2 {
		t.Fatalf("clients = %d", n)
	}

	h.BroadcastResourceChanged("users", "3", "toggle")
	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			if m, _ := Parse(msg); m.Type != TypeResourceChanged {
				t.Errorf("%s got %s", c.Admin, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: no broadcast", c.Admin)
		}
	}

	h.Remove(a)
	if n := h.Clients(); n != 1 {
		t.Errorf("clients after remove = %d", n)
	}
	if a.Send([]byte("late")) {
		t.Error("removed client must be closed")
	}
}
