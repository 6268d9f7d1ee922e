package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/egor/citydeals-admin/session"
)

// MsgNoSession - ответ API без сессии
const MsgNoSession = "Session administrateur manquante."

// LoginPath - куда отправляются страницы без сессии
const LoginPath = "/login"

const sessionKey = "session"

// Mode - как отвечать на запрос без сессии
type Mode int

const (
	// PageMode - редирект на страницу входа
	PageMode Mode = iota
	// APIMode - 401 с JSON
	APIMode
)

// Now подменяется в тестах.
var Now = time.Now

// RequireSession пропускает запрос только с токеном в cookie.
// Токен с истёкшим exp считается отсутствующим.
func RequireSession(opts session.Options, mode Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.NewServerCookies(c, opts).Get()

		if sess.Authenticated() && session.TokenExpired(sess.Token, Now()) {
			log.Printf("Сессия %s истекла, %s %s", sess.Admin.DisplayName(), c.Request.Method, c.Request.URL.Path)
			sess = session.Session{}
		}

		if !sess.Authenticated() {
			if mode == PageMode {
				c.Redirect(http.StatusFound, LoginPath)
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"message": MsgNoSession})
			}
			c.Abort()
			return
		}

		// Сессия нужна обработчикам и клиенту бэкенда
		c.Set(sessionKey, sess)
		if sess.Admin != nil {
			c.Set("adminEmail", sess.Admin.Email)
		}
		c.Next()
	}
}

// SessionFrom возвращает сессию, сохранённую RequireSession,
// или читает cookie напрямую для открытых маршрутов.
func SessionFrom(c *gin.Context, opts session.Options) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(session.Session); ok {
			return sess
		}
	}
	sess := session.NewServerCookies(c, opts).Get()
	if session.TokenExpired(sess.Token, Now()) {
		return session.Session{}
	}
	return sess
}
