package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/egor/citydeals-admin/middleware"
	"github.com/egor/citydeals-admin/session"
	websocketpkg "github.com/egor/citydeals-admin/websocket"
)

// checkOrigin проверяет, разрешен ли Origin для подключения
func (h *Handlers) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Разрешаем локальные подключения без Origin
		host := r.Host
		return strings.HasPrefix(host, "localhost:") || strings.HasPrefix(host, "127.0.0.1:")
	}

	for _, allowed := range h.cfg.AllowedOrigins() {
		if allowed == origin {
			return true
		}
	}

	// Для разработки можно разрешить все origins
	if h.cfg.AllowAllOrigins {
		log.Printf("ВНИМАНИЕ: Разрешен origin %s (ALLOW_ALL_ORIGINS=true)", origin)
		return true
	}

	log.Printf("Отклонен origin: %s", origin)
	return false
}

// ServeWs - GET /ws, живой канал дашборда.
// Токен берётся из cookie заголовка Cookie, как на стороне браузера.
func (h *Handlers) ServeWs(c *gin.Context) {
	log.Printf("ServeWs: новое соединение от %s, origin: %s",
		c.ClientIP(), c.Request.Header.Get("Origin"))

	sess := session.DocumentCookies(c.GetHeader("Cookie")).Get()
	if !sess.Authenticated() || session.TokenExpired(sess.Token, middleware.Now()) {
		log.Printf("ServeWs: нет сессии администратора")
		c.JSON(http.StatusUnauthorized, gin.H{"message": middleware.MsgNoSession})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ServeWs: ошибка апгрейда соединения: %v", err)
		return
	}

	admin := ""
	if sess.Admin != nil {
		admin = sess.Admin.Email
	}
	client := websocketpkg.NewClient(h.hub, conn, admin)
	if !h.hub.Add(client) {
		conn.Close()
		return
	}

	live := newLiveSession(h, client, h.api.WithSession(session.Static(sess)))

	go client.WritePump()
	go func() {
		client.ReadPump(func(_ *websocketpkg.Client, raw []byte) { live.handle(raw) })
		live.close()
	}()

	log.Printf("ServeWs: клиент %s (%s) подключен", client.ID, admin)
}
