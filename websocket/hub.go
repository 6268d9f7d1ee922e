package websocket

import (
	"log"
)

// Hub обрабатывает WebSocket соединения
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Сообщения для всех клиентов
	broadcast chan []byte

	// Регистрация клиента
	Register chan *Client

	// Отмена регистрации клиента
	Unregister chan *Client

	count chan chan int
	quit  chan struct{}
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		count:      make(chan chan int),
		quit:       make(chan struct{}),
	}
}

// Run запускает Hub. Возвращается после Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Printf("Клиент подключился. Всего клиентов: %d", len(h.clients))
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				log.Printf("Клиент отключился. Всего клиентов: %d", len(h.clients))
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.Send(message) {
					// медленный клиент
					delete(h.clients, client)
					client.close()
				}
			}
		case reply := <-h.count:
			reply <- len(h.clients)
		case <-h.quit:
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			return
		}
	}
}

// Add регистрирует клиента. false - хаб остановлен.
func (h *Hub) Add(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Remove снимает клиента с регистрации.
func (h *Hub) Remove(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.quit:
		c.close()
	}
}

// Stop отключает всех клиентов и останавливает Run.
func (h *Hub) Stop() {
	close(h.quit)
}

// Clients - число подключённых клиентов.
func (h *Hub) Clients() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.quit:
		return 0
	}
}

// Broadcast отправляет сообщение всем подключенным клиентам.
// Если очередь переполнена, сообщение теряется.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Printf("Очередь рассылки переполнена, сообщение потеряно")
	}
}

// BroadcastResourceChanged рассылает сигнал обновления экрана.
func (h *Hub) BroadcastResourceChanged(resource, id, action string) {
	msg, err := NewResourceChangedMessage(resource, id, action)
	if err != nil {
		log.Printf("Ошибка при маршализации сообщения: %v", err)
		return
	}
	h.Broadcast(msg)
}

// BroadcastJSON рассылает сообщение заданного типа.
func (h *Hub) BroadcastJSON(messageType string, payload interface{}) {
	msg, err := NewMessage(messageType, payload)
	if err != nil {
		log.Printf("Ошибка при маршализации сообщения: %v", err)
		return
	}
	h.Broadcast(msg)
}
