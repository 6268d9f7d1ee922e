// Package backend - клиент REST API CityDeals. Один метод на эндпоинт,
// ошибки бэкенда приводятся к *APIError с французским сообщением.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/egor/citydeals-admin/models"
	"github.com/egor/citydeals-admin/session"
)

// ErrMissingID - вызов без обязательного идентификатора, запрос не отправлялся.
var ErrMissingID = errors.New("backend: missing id")

// maxBody ограничивает чтение ответа бэкенда.
const maxBody = 8 << 20

// APIError - ответ бэкенда с кодом не 2xx.
// Message уже пригоден для показа администратору.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// MissingIDError - ошибка пустого идентификатора с сообщением для интерфейса.
type MissingIDError struct {
	Message string
}

func (e *MissingIDError) Error() string { return e.Message }

// Unwrap позволяет проверять errors.Is(err, ErrMissingID).
func (e *MissingIDError) Unwrap() error { return ErrMissingID }

// Client - клиент API. Базовый URL неизменен после создания,
// токен берётся из привязанной сессии при каждом запросе.
type Client struct {
	baseURL string
	http    *http.Client
	session session.Reader
}

// New создаёт клиента. baseURL без завершающего слэша.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: session.Static{},
	}
}

// WithSession возвращает копию клиента, читающую токен из r.
func (c *Client) WithSession(r session.Reader) *Client {
	cp := *c
	if r == nil {
		r = session.Static{}
	}
	cp.session = r
	return &cp
}

// BaseURL - адрес API, с которым работает клиент.
func (c *Client) BaseURL() string { return c.baseURL }

// ListQuery - параметры списков. Пустые значения в запрос не попадают.
type ListQuery struct {
	Sort      string
	Direction string
	Q         string
}

// Values переводит запрос в параметры URL.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Direction != "" {
		v.Set("direction", q.Direction)
	}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	return v
}

// request описывает один вызов API.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	fallback    string // сообщение, если бэкенд не прислал своё
}

// do выполняет запрос и декодирует тело 2xx-ответа в out (если out != nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token := c.session.Get().Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read response %s %s: %w", r.method, r.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: messageOr(raw, r.fallback)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// messageOr достаёт поле message из JSON-тела или возвращает fallback.
func messageOr(raw []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fallback
}

// mutationResult - ответ на изменение. Пустое тело 2xx означает успех.
type mutationResult struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// mutate выполняет изменяющий запрос и возвращает ActionResult.
// success:false в 2xx-ответе считается ошибкой бэкенда.
func (c *Client) mutate(ctx context.Context, r request) (models.ActionResult, error) {
	var res mutationResult
	if err := c.do(ctx, r, &res); err != nil {
		return models.ActionResult{}, err
	}
	if res.Success != nil && !*res.Success {
		return models.ActionResult{}, &APIError{Status: http.StatusOK, Message: firstNonEmpty(res.Message, r.fallback)}
	}
	return models.ActionResult{Success: true, Message: res.Message}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, fallback string, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query, fallback: fallback}, out)
}

// requireID проверяет идентификатор до сетевого вызова.
func requireID(id models.ID, message string) error {
	if strings.TrimSpace(id.String()) == "" {
		return &MissingIDError{Message: message}
	}
	return nil
}

func escapeID(id models.ID) string {
	return url.PathEscape(id.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// UserMessage - текст ошибки для интерфейса: сообщение бэкенда или
// пустого идентификатора, иначе fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var idErr *MissingIDError
	if errors.As(err, &idErr) {
		return idErr.Message
	}
	return fallback
}
