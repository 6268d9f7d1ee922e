// Package push отправляет push-уведомления через Expo Push API.
package push

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

// DefaultURL - эндпоинт Expo Push API
const DefaultURL = "https://exp.host/--/api/v2/push/send"

// ChunkSize - максимум сообщений в одном запросе к Expo.
const ChunkSize = 100

// Message - одно уведомление
type Message struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

// Ticket - квитанция Expo по одному сообщению
type Ticket struct {
	Status  string            `json:"status"`
	ID      string            `json:"id,omitempty"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// OK - сообщение принято Expo.
func (t Ticket) OK() bool { return t.Status == "ok" }

// IsExpoPushToken проверяет формат токена устройства:
// ExponentPushToken[...], ExpoPushToken[...] или голый UUID.
func IsExpoPushToken(token string) bool {
	if _, err := uuid.Parse(token); err == nil && len(token) == 36 {
		return true
	}
	// SDK знает только каноническое имя префикса
	canonical := token
	if rest, ok := strings.CutPrefix(token, "ExpoPushToken["); ok {
		canonical = "ExponentPushToken[" + rest
	}
	if !strings.HasPrefix(canonical, "ExponentPushToken[") || len(canonical) <= len("ExponentPushToken[]") {
		return false
	}
	_, err := expo.NewExponentPushToken(canonical)
	return err == nil
}

// Client - клиент Expo Push API поверх exponent-server-sdk-golang.
type Client struct {
	host        string
	apiURL      string
	accessToken string
	timeout     time.Duration
}

// NewClient создаёт клиента. Пустой rawURL - DefaultURL.
// Путь /push/send SDK добавляет сам, поэтому он отрезается.
func NewClient(rawURL, accessToken string, timeout time.Duration) *Client {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{accessToken: accessToken, timeout: timeout}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		c.host = u.Scheme + "://" + u.Host
		c.apiURL = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/push/send")
	}
	return c
}

// ctxTransport привязывает запросы SDK к контексту рассылки:
// сам SDK контекст не принимает.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(r.WithContext(t.ctx))
}

// Send отправляет одну пачку (не больше ChunkSize) и возвращает квитанции.
func (c *Client) Send(ctx context.Context, messages []Message) ([]Ticket, error) {
	if len(messages) == 0 {
		return nil, nil
	}
	if len(messages) > ChunkSize {
		return nil, fmt.Errorf("expo: chunk of %d messages exceeds %d", len(messages), ChunkSize)
	}

	client := expo.NewPushClient(&expo.ClientConfig{
		Host:        c.host,
		APIURL:      c.apiURL,
		AccessToken: c.accessToken,
		HTTPClient: &http.Client{
			Timeout:   c.timeout,
			Transport: ctxTransport{ctx: ctx, base: http.DefaultTransport},
		},
	})

	batch := make([]expo.PushMessage, len(messages))
	for i, m := range messages {
		batch[i] = expo.PushMessage{
			To:    []expo.ExponentPushToken{expo.ExponentPushToken(m.To)},
			Title: m.Title,
			Body:  m.Body,
			Sound: m.Sound,
		}
	}

	responses, err := client.PublishMultiple(batch)
	if err != nil {
		return nil, fmt.Errorf("expo publish: %w", err)
	}

	tickets := make([]Ticket, len(responses))
	for i, r := range responses {
		tickets[i] = Ticket{Status: r.Status, ID: r.ID, Message: r.Message, Details: r.Details}
	}
	return tickets, nil
}

// Chunk режет сообщения на пачки не больше size.
func Chunk(messages []Message, size int) [][]Message {
	if size <= 0 {
		size = ChunkSize
	}
	var chunks [][]Message
	for start := 0; start < len(messages); start += size {
		end := start + size
		if end > len(messages) {
			end = len(messages)
		}
		chunks = append(chunks, messages[start:end])
	}
	return chunks
}
