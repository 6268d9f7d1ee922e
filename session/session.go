// Package session хранит сессию администратора в паре cookie:
// HttpOnly cookie с bearer-токеном и обычную cookie с JSON-профилем.
//
// Токен недоступен скриптам браузера, а профиль можно показать в интерфейсе.
// Запись возможна только из серверного контекста: клиентская реализация
// (DocumentCookies) реализует лишь Reader, поэтому попытка записать сессию
// с клиента не скомпилируется.
package session

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/egor/citydeals-admin/models"
)

// Имена cookie
const (
	TokenCookie = "citydeals_token"
	AdminCookie = "citydeals_admin"
)

// DefaultTTL - срок жизни обеих cookie
const DefaultTTL = 7 * 24 * time.Hour

// Session - токен и профиль администратора. Пустой токен означает «нет сессии».
type Session struct {
	Token string        `json:"-"`
	Admin *models.Admin `json:"admin"`
}

// Authenticated сообщает, что токен присутствует.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Reader читает сессию. Get никогда не возвращает ошибку.
type Reader interface {
	Get() Session
}

// Store - серверное хранилище: чтение, запись и удаление.
type Store interface {
	Reader
	Persist(Session) error
	Destroy() error
}

// Static - сессия, известная заранее (например, уже прочитанная middleware).
type Static Session

// Get реализует Reader.
func (s Static) Get() Session { return Session(s) }

// decodeAdmin разбирает JSON профиля; битый JSON даёт nil.
func decodeAdmin(raw string) *models.Admin {
	if raw == "" {
		return nil
	}
	var admin models.Admin
	if err := json.Unmarshal([]byte(raw), &admin); err != nil {
		return nil
	}
	return &admin
}

// DocumentCookies читает сессию из строки вида document.cookie
// ("a=1; b=2") - так её видит клиентский код или заголовок Cookie
// при апгрейде WebSocket.
type DocumentCookies string

// Get реализует Reader.
func (d DocumentCookies) Get() Session {
	return Session{
		Token: d.value(TokenCookie),
		Admin: decodeAdmin(d.value(AdminCookie)),
	}
}

func (d DocumentCookies) value(name string) string {
	for _, entry := range strings.Split(string(d), ";") {
		entry = strings.TrimSpace(entry)
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key != name {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			return decoded
		}
		return value
	}
	return ""
}
