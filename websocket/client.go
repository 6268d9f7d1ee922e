package websocket

import (
	"bytes"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // время на запись одного сообщения
	pongWait       = 60 * time.Second    // максимальное время ожидания PONG
	pingPeriod     = (pongWait * 9) / 10 // как часто слать PING
	maxMessageSize = 4096                // максимальный размер входящего сообщения
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Conn - часть *websocket.Conn, которой пользуется клиент.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client представляет одно WebSocket-соединение администратора.
type Client struct {
	hub  *Hub
	conn Conn

	mu     sync.Mutex
	send   chan []byte // исходящие сообщения
	closed bool

	ID    uuid.UUID
	Admin string // email администратора, если известен
}

// NewClient создает нового WebSocket клиента
func NewClient(hub *Hub, conn Conn, admin string) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, 256),
		ID:    uuid.New(),
		Admin: admin,
	}
}

// Send ставит сообщение в очередь. false - клиент закрыт или очередь полна.
func (c *Client) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// SendJSON отправляет сообщение заданного типа клиенту.
// false - сообщение не поставлено в очередь.
func (c *Client) SendJSON(messageType string, payload interface{}) bool {
	msg, err := NewMessage(messageType, payload)
	if err != nil {
		log.Printf("WS %s: ошибка маршализации %s: %v", c.ID, messageType, err)
		return false
	}
	if !c.Send(msg) {
		log.Printf("WS %s: сообщение %s отброшено (клиент закрыт или очередь полна)", c.ID, messageType)
		return false
	}
	return true
}

// SendError отправляет сообщение об ошибке
func (c *Client) SendError(code, message string) bool {
	errorMsg, err := NewErrorMessage(code, message)
	if err != nil {
		return false
	}
	if !c.Send(errorMsg) {
		log.Printf("WS %s: ошибка %s не доставлена: %s", c.ID, code, message)
		return false
	}
	return true
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump читает сообщения из WebSocket и вызывает handler.
func (c *Client) ReadPump(messageHandler func(client *Client, message []byte)) {
	defer func() {
		c.hub.Remove(c)
		c.conn.Close()
		log.Printf("WebSocket closed: %s (%s)", c.Admin, c.ID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket unexpected close (%s): %v", c.ID, err)
			}
			break
		}

		// Очищаем переносы строк
		raw = bytes.TrimSpace(bytes.Replace(raw, newline, space, -1))

		if messageHandler != nil {
			messageHandler(c, raw)
		}
	}
}

// WritePump пишет из канала send в WebSocket и держит соединение живым ping/pong'ом.
// Каждое сообщение уходит отдельным кадром: клиент разбирает кадр как один JSON.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// канал закрыт Hub'ом
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
