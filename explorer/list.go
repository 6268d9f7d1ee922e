// Package explorer содержит состояние экранов-списков дашборда:
// загрузку, локальный фильтр, оптимистичное переключение, удаление
// с подтверждением и сортировку, выведенную из URL.
package explorer

import (
	"context"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/models"
)

// Status - стадия загрузки списка
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

// Page - одна выборка списка
type Page[T any] struct {
	Rows       []T
	Pagination *models.Pagination
}

// FetchFunc загружает список для запроса.
type FetchFunc[T any] func(ctx context.Context, q Query) (Page[T], error)

// Config описывает ресурс.
type Config[T any] struct {
	Resource string // companies, users...
	Path     string // адрес страницы, например /entreprises
	Defaults Query
	Key      func(T) string
	Haystack func(T) string
	// Active - nil, если записи ресурса не переключаются.
	Active func(T) bool
	// Facets - точные фильтры по значению поля (категория, город).
	Facets map[string]func(T) string
	// DeletedMessage - баннер успешного удаления, если бэкенд не прислал текст.
	DeletedMessage string
	// LoadError - сообщение, если ошибка не пришла с бэкенда.
	LoadError string
}

// Explorer - состояние одного экрана-списка.
type Explorer[T any] struct {
	cfg    Config[T]
	Toggle *Toggle[string]
	Delete *DeleteFlow

	mu         sync.Mutex
	status     Status
	err        string
	rows       []T
	haystacks  []string
	pagination *models.Pagination
	filter     string
	facets     map[string]string
	params     url.Values
	gen        uint64 // растёт при смене URL и каждой загрузке
	watchers   []func()
}

// New создаёт экран списка.
func New[T any](cfg Config[T]) *Explorer[T] {
	if cfg.DeletedMessage == "" {
		cfg.DeletedMessage = "Suppression effectuée avec succès."
	}
	if cfg.LoadError == "" {
		cfg.LoadError = "Impossible de charger la liste."
	}
	e := &Explorer[T]{
		cfg:    cfg,
		Toggle: NewToggle[string](),
		Delete: NewDeleteFlow(cfg.DeletedMessage),
		status: StatusIdle,
		facets: make(map[string]string),
		params: url.Values{},
	}
	e.Toggle.OnChange(func(string, bool) { e.changed() })
	e.Delete.onChange = e.changed
	return e
}

// Resource - имя ресурса.
func (e *Explorer[T]) Resource() string { return e.cfg.Resource }

// OnChange подписывает наблюдателя на любое изменение состояния.
func (e *Explorer[T]) OnChange(fn func()) {
	e.mu.Lock()
	e.watchers = append(e.watchers, fn)
	e.mu.Unlock()
}

// Query - текущий запрос, выведенный из параметров URL.
func (e *Explorer[T]) Query() Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ParseQuery(e.params, e.cfg.Defaults)
}

// Navigate сливает next с текущими параметрами URL и возвращает новый адрес.
// Дальнейшее состояние читается уже из нового адреса.
func (e *Explorer[T]) Navigate(next Query) string {
	e.mu.Lock()
	location := next.Location(e.cfg.Path, e.params)
	if u, err := url.Parse(location); err == nil {
		e.params = u.Query()
	}
	e.gen++
	e.mu.Unlock()
	e.changed()
	return location
}

// Open задаёт параметры URL при открытии экрана.
func (e *Explorer[T]) Open(params url.Values) {
	e.mu.Lock()
	e.params = url.Values{}
	for k, v := range params {
		e.params[k] = append([]string(nil), v...)
	}
	e.gen++
	e.mu.Unlock()
}

// Location - текущий адрес страницы.
func (e *Explorer[T]) Location() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if encoded := e.params.Encode(); encoded != "" {
		return e.cfg.Path + "?" + encoded
	}
	return e.cfg.Path
}

// Load загружает список для текущего запроса: loading → loaded | error.
// При ошибке строки очищаются, сообщение сохраняется.
// Ответ устаревшей загрузки (URL сменился или началась новая) отбрасывается.
func (e *Explorer[T]) Load(ctx context.Context, fetch FetchFunc[T]) error {
	e.mu.Lock()
	q := ParseQuery(e.params, e.cfg.Defaults)
	e.gen++
	gen := e.gen
	e.status = StatusLoading
	e.err = ""
	e.mu.Unlock()
	e.changed()

	page, err := fetch(ctx, q)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		log.Printf("[explorer] %s: ответ для %s устарел, пропускаем", e.cfg.Resource, q.Location(e.cfg.Path, nil))
		return nil
	}
	if err != nil {
		e.status = StatusError
		e.err = backend.UserMessage(err, e.cfg.LoadError)
		e.rows, e.haystacks, e.pagination = nil, nil, nil
	} else {
		e.status = StatusLoaded
		e.rows = page.Rows
		e.pagination = page.Pagination
		e.haystacks = make([]string, len(page.Rows))
		for i, row := range page.Rows {
			e.haystacks[i] = strings.ToLower(e.cfg.Haystack(row))
		}
	}
	statuses := e.statusMapLocked()
	e.mu.Unlock()

	e.Toggle.Reset(statuses)
	e.changed()
	return err
}

// Refresh перезагружает список; подходит как RefreshFunc.
func (e *Explorer[T]) Refresh(fetch FetchFunc[T]) RefreshFunc {
	return func(ctx context.Context) error {
		return e.Load(ctx, fetch)
	}
}

// SetFilter задаёт локальный фильтр по тексту.
func (e *Explorer[T]) SetFilter(text string) {
	e.mu.Lock()
	e.filter = strings.ToLower(strings.TrimSpace(text))
	e.mu.Unlock()
	e.changed()
}

// SetFacet задаёт точный фильтр; пустое значение снимает его.
func (e *Explorer[T]) SetFacet(name, value string) {
	e.mu.Lock()
	if value == "" {
		delete(e.facets, name)
	} else {
		e.facets[name] = value
	}
	e.mu.Unlock()
	e.changed()
}

// ResetFacets снимает все точные фильтры.
func (e *Explorer[T]) ResetFacets() {
	e.mu.Lock()
	e.facets = make(map[string]string)
	e.mu.Unlock()
	e.changed()
}

// Visible - строки, прошедшие фильтры. Всегда подмножество загруженных.
func (e *Explorer[T]) Visible() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visibleLocked()
}

// Find возвращает загруженную строку по ключу.
func (e *Explorer[T]) Find(key string) (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, row := range e.rows {
		if e.cfg.Key(row) == key {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// Toggleable сообщает, что записи ресурса можно переключать.
func (e *Explorer[T]) Toggleable() bool { return e.cfg.Active != nil }

func (e *Explorer[T]) visibleLocked() []T {
	out := make([]T, 0, len(e.rows))
	for i, row := range e.rows {
		if e.filter != "" && !strings.Contains(e.haystacks[i], e.filter) {
			continue
		}
		if !e.matchesFacetsLocked(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func (e *Explorer[T]) matchesFacetsLocked(row T) bool {
	for name, want := range e.facets {
		get, ok := e.cfg.Facets[name]
		if !ok {
			continue
		}
		if get(row) != want {
			return false
		}
	}
	return true
}

func (e *Explorer[T]) statusMapLocked() map[string]bool {
	status := make(map[string]bool)
	if e.cfg.Active == nil {
		return status
	}
	for _, row := range e.rows {
		if key := e.cfg.Key(row); key != "" {
			status[key] = e.cfg.Active(row)
		}
	}
	return status
}

// View - JSON-представление экрана для клиента.
type View[T any] struct {
	Resource   string              `json:"resource"`
	Status     Status              `json:"status"`
	Error      string              `json:"error,omitempty"`
	Rows       []T                 `json:"rows"`
	Total      int                 `json:"total"`
	Pagination *models.Pagination  `json:"pagination,omitempty"`
	Active     int                 `json:"active"`
	Statuses   map[string]bool     `json:"statuses,omitempty"`
	Pending    []string            `json:"pending"`
	Delete     DeleteView          `json:"delete"`
	Banner     *Banner             `json:"banner,omitempty"`
	Filter     string              `json:"filter,omitempty"`
	Facets     map[string][]string `json:"facets,omitempty"`
	Selected   map[string]string   `json:"selected,omitempty"`
	Query      Query               `json:"query"`
	Location   string              `json:"location"`
}

// Snapshot собирает текущее состояние.
func (e *Explorer[T]) Snapshot() View[T] {
	statuses, pending := e.Toggle.Snapshot()
	query := e.Query()
	location := e.Location()

	e.mu.Lock()
	defer e.mu.Unlock()

	v := View[T]{
		Resource:   e.cfg.Resource,
		Status:     e.status,
		Error:      e.err,
		Rows:       e.visibleLocked(),
		Total:      e.pagination.TotalOr(len(e.rows)),
		Pagination: e.pagination,
		Pending:    sortedKeys(pending),
		Delete:     e.Delete.View(),
		Banner:     e.Delete.Banner(),
		Filter:     e.filter,
		Query:      query,
		Location:   location,
	}
	if e.cfg.Active != nil {
		v.Statuses = statuses
		v.Active = e.activeCountLocked(statuses)
	}
	if len(e.cfg.Facets) > 0 {
		v.Facets = make(map[string][]string, len(e.cfg.Facets))
		for name, get := range e.cfg.Facets {
			v.Facets[name] = distinct(e.rows, get)
		}
		v.Selected = make(map[string]string, len(e.facets))
		for k, val := range e.facets {
			v.Selected[k] = val
		}
	}
	return v
}

// activeCountLocked: по карте статусов, а пока она пуста - по строкам.
func (e *Explorer[T]) activeCountLocked(statuses map[string]bool) int {
	n := 0
	if len(statuses) == 0 {
		for _, row := range e.rows {
			if e.cfg.Active(row) {
				n++
			}
		}
		return n
	}
	for _, v := range statuses {
		if v {
			n++
		}
	}
	return n
}

func (e *Explorer[T]) changed() {
	e.mu.Lock()
	watchers := append([]func(){}, e.watchers...)
	e.mu.Unlock()
	for _, fn := range watchers {
		fn()
	}
}

// distinct - уникальные непустые значения в порядке появления.
func distinct[T any](rows []T, get func(T) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, row := range rows {
		v := get(row)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
