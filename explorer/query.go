package explorer

import (
	"net/url"
	"strings"

	"github.com/egor/citydeals-admin/backend"
)

// Направления сортировки
const (
	DirectionDesc = "DESC"
	DirectionAsc  = "ASC"
)

// Query - сортировка и поиск списка. Всегда выводится из параметров URL.
type Query struct {
	Sort      string `json:"sort"`
	Direction string `json:"direction"`
	Q         string `json:"q"`
}

// ParseQuery читает sort, direction и q; отсутствующие берутся из defaults.
// Направление приводится к верхнему регистру.
func ParseQuery(values url.Values, defaults Query) Query {
	q := defaults
	if values.Has("sort") {
		q.Sort = values.Get("sort")
	}
	if values.Has("direction") {
		q.Direction = values.Get("direction")
	}
	if values.Has("q") {
		q.Q = values.Get("q")
	}
	q.Direction = strings.ToUpper(q.Direction)
	return q
}

// WithSort меняет поле сортировки.
func (q Query) WithSort(sort string) Query {
	q.Sort = sort
	return q
}

// ToggleDirection: DESC → ASC, всё остальное (включая пустое) → DESC.
func (q Query) ToggleDirection() Query {
	if q.Direction == DirectionDesc {
		q.Direction = DirectionAsc
	} else {
		q.Direction = DirectionDesc
	}
	return q
}

// WithSearch меняет строку серверного поиска.
func (q Query) WithSearch(text string) Query {
	q.Q = strings.TrimSpace(text)
	return q
}

// Values - параметры для слияния с URL (пустые значения удаляют ключ).
func (q Query) Values() map[string]string {
	return map[string]string{"sort": q.Sort, "direction": q.Direction, "q": q.Q}
}

// Location сливает запрос с текущими параметрами страницы и строит адрес.
// Посторонние параметры сохраняются, пустые значения удаляются.
func (q Query) Location(path string, current url.Values) string {
	params := url.Values{}
	for k, v := range current {
		params[k] = append([]string(nil), v...)
	}
	for k, v := range q.Values() {
		if v != "" {
			params.Set(k, v)
		} else {
			params.Del(k)
		}
	}
	if encoded := params.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

// List - параметры запроса к бэкенду.
func (q Query) List() backend.ListQuery {
	return backend.ListQuery{Sort: q.Sort, Direction: q.Direction, Q: q.Q}
}
