package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestIsExpoPushToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"ExponentPushToken[vCcI1tJIn-XEub1lAH_HpC]", true},
		{"ExpoPushToken[abc]", true},
		{"F5741A13-BCDA-434B-A316-5DC0E6FFA94F", true},
		{"ExponentPushToken[]", false},
		{"fcm:abcdef", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsExpoPushToken(tt.token); got != tt.want {
			t.Errorf("IsExpoPushToken(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestValidation(t *testing.T) {
	if len(Cities) != 24 {
		t.Errorf("len(Cities) = %d, want 24", len(Cities))
	}
	if !ValidCity("all") || !ValidCity("Le Kef") || ValidCity("Paris") {
		t.Error("ValidCity")
	}
	if !ValidRecipient("companies") || ValidRecipient("admins") {
		t.Error("ValidRecipient")
	}
}

func TestNotificationMessages(t *testing.T) {
	n := Notification{Title: "Promo", Body: "-20%"}
	msgs := n.Messages([]string{"ExpoPushToken[a]", "garbage", "ExpoPushToken[a]", "ExpoPushToken[b]"})
	if len(msgs) != 2 {
		t.Fatalf("messages = %+v", msgs)
	}
	if msgs[0].Sound != "default" || msgs[0].Title != "Promo" {
		t.Errorf("message = %+v", msgs[0])
	}
}

func TestNotificationNormalize(t *testing.T) {
	n := Notification{
		Title:     "  Soldes\n d'été\t ",
		Body:      "Ligne 1  \r\n\x07Ligne   2\n",
		Recipient: " Users ",
		City:      " Sfax",
	}.Normalize()

	if n.Title != "Soldes d'été" {
		t.Errorf("Title = %q", n.Title)
	}
	if n.Body != "Ligne 1\nLigne 2" {
		t.Errorf("Body = %q", n.Body)
	}
	if n.Recipient != RecipientUsers || n.City != "Sfax" {
		t.Errorf("Recipient = %q, City = %q", n.Recipient, n.City)
	}

	long := Notification{Title: strings.Repeat("é", MaxTitleLength+10), Body: "   "}.Normalize()
	if got := len([]rune(long.Title)); got != MaxTitleLength {
		t.Errorf("title runes = %d", got)
	}
	if long.Body != "" {
		t.Errorf("blank body = %q", long.Body)
	}
}

func TestChunk(t *testing.T) {
	msgs := make([]Message, 250)
	chunks := Chunk(msgs, ChunkSize)
	if len(chunks) != 3 || len(chunks[0]) != 100 || len(chunks[2]) != 50 {
		t.Errorf("chunk sizes = %d", len(chunks))
	}
	if Chunk(nil, ChunkSize) != nil {
		t.Error("no messages, no chunks")
	}
}

func TestClientSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var msgs []struct {
			To    []string `json:"to"`
			Title string   `json:"title"`
			Sound string   `json:"sound"`
		}
		if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		tickets := make([]Ticket, len(msgs))
		for i, m := range msgs {
			if len(m.To) != 1 || m.Title != "Promo" || m.Sound != "default" {
				t.Errorf("message %d = %+v", i, m)
				continue
			}
			tickets[i] = Ticket{Status: "ok", ID: "t-" + m.To[0]}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": tickets})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	tickets, err := c.Send(context.Background(), []Message{
		{To: "ExpoPushToken[a]", Title: "Promo", Sound: "default"},
		{To: "ExpoPushToken[b]", Title: "Promo", Sound: "default"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(tickets) != 2 || !tickets[1].OK() || tickets[1].ID != "t-ExpoPushToken[b]" {
		t.Errorf("tickets = %+v", tickets)
	}

	if _, err := c.Send(context.Background(), make([]Message, ChunkSize+1)); err == nil {
		t.Error("oversized chunk must be rejected")
	}
}

func TestClientSend_ExpoErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"code":"PUSH_TOO_MANY_EXPERIENCE_IDS","message":"mixed projects"}]}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).Send(context.Background(), []Message{{To: "ExpoPushToken[a]"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestClientSend_HonoursContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := NewClient(srv.URL, "", 10*time.Second).Send(ctx, []Message{{To: "ExpoPushToken[a]", Body: "x"}})
	if err == nil {
		t.Fatal("expected error after context deadline")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("Send ignored the context: %s", time.Since(start))
	}
}

func TestNewClient_SplitsPushURL(t *testing.T) {
	c := NewClient(DefaultURL, "", 0)
	if c.host != "https://exp.host" || c.apiURL != "/--/api/v2" {
		t.Errorf("host = %q, apiURL = %q", c.host, c.apiURL)
	}
}

// flakySender падает первые failures раз.
type flakySender struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakySender) Send(ctx context.Context, msgs []Message) ([]Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("503")
	}
	out := make([]Ticket, len(msgs))
	for i := range out {
		out[i] = Ticket{Status: "ok"}
	}
	out[0].Status = "error"
	return out, nil
}

func TestDispatcher_RetryAndResult(t *testing.T) {
	sender := &flakySender{failures: 1}
	d := NewDispatcher(sender, 5*time.Second, 2)
	d.backoff = time.Millisecond

	var mu sync.Mutex
	var observed []Result
	d.OnDone(func(r Result, err error) {
		mu.Lock()
		observed = append(observed, r)
		mu.Unlock()
	})

	n := Notification{Title: "Promo", Body: "x", Recipient: RecipientUsers, City: AllCities}
	msgs := n.Messages([]string{"ExpoPushToken[a]", "ExpoPushToken[b]", "ExpoPushToken[c]"})
	task := d.Dispatch(n, msgs)
	if task.ID == "" {
		t.Fatal("task must have an id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.TaskID != task.ID || res.Recipients != 3 || res.Accepted != 2 || res.Rejected != 1 {
		t.Errorf("result = %+v", res)
	}
	if sender.calls != 2 {
		t.Errorf("calls = %d, want 2", sender.calls)
	}
	select {
	case <-task.Done():
	default:
		t.Error("Done must be closed after Wait")
	}

	d.Wait()
	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 1 || observed[0].TaskID != task.ID {
		t.Errorf("observed = %+v", observed)
	}
}

func TestDispatcher_GivesUp(t *testing.T) {
	sender := &flakySender{failures: 10}
	d := NewDispatcher(sender, time.Second, 1)
	d.backoff = time.Millisecond

	n := Notification{Title: "t", Body: "b"}
	task := d.Dispatch(n, n.Messages([]string{"ExpoPushToken[a]"}))
	res, err := task.Wait(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if res.Rejected != 1 || res.Error == "" {
		t.Errorf("result = %+v", res)
	}
	if sender.calls != 2 {
		t.Errorf("calls = %d, want 1 + 1 retry", sender.calls)
	}
}
