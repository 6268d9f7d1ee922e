package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Options - параметры cookie сессии
type Options struct {
	TTL    time.Duration
	Secure bool // true в production
}

// ServerCookies - хранилище сессии в cookie текущего gin-запроса.
// Записанные значения видны последующим Get в рамках того же запроса.
type ServerCookies struct {
	c       *gin.Context
	opts    Options
	written map[string]*string // nil-значение = cookie удалена
}

// NewServerCookies привязывает хранилище к запросу.
func NewServerCookies(c *gin.Context, opts Options) *ServerCookies {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &ServerCookies{c: c, opts: opts, written: make(map[string]*string)}
}

// Get читает токен и профиль. Ошибки чтения трактуются как отсутствие cookie.
func (s *ServerCookies) Get() Session {
	return Session{
		Token: s.read(TokenCookie),
		Admin: decodeAdmin(s.read(AdminCookie)),
	}
}

// Persist записывает токен (HttpOnly) и профиль (обычная cookie).
// Пустой токен и nil-профиль не записываются.
func (s *ServerCookies) Persist(sess Session) error {
	if sess.Token != "" {
		s.write(TokenCookie, sess.Token, true)
	}
	if sess.Admin != nil {
		raw, err := json.Marshal(sess.Admin)
		if err != nil {
			return fmt.Errorf("session: encode admin: %w", err)
		}
		s.write(AdminCookie, string(raw), false)
	}
	return nil
}

// Destroy удаляет обе cookie.
func (s *ServerCookies) Destroy() error {
	for _, name := range []string{TokenCookie, AdminCookie} {
		s.c.SetSameSite(http.SameSiteLaxMode)
		s.c.SetCookie(name, "", -1, "/", "", s.opts.Secure, name == TokenCookie)
		s.written[name] = nil
	}
	return nil
}

func (s *ServerCookies) write(name, value string, httpOnly bool) {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(name, value, int(s.opts.TTL.Seconds()), "/", "", s.opts.Secure, httpOnly)
	v := value
	s.written[name] = &v
}

func (s *ServerCookies) read(name string) string {
	if v, ok := s.written[name]; ok {
		if v == nil {
			return ""
		}
		return *v
	}
	value, err := s.c.Cookie(name)
	if err != nil {
		return ""
	}
	return value
}
