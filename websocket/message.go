package websocket

import (
	"encoding/json"
)

// Типы сообщений сервер → клиент
const (
	TypeExplorerState          = "explorer.state"
	TypeSubscriptionsState     = "subscriptions.state"
	TypeError                  = "error"
	TypeResourceChanged        = "resource_changed"
	TypeNotificationDispatched = "notification_dispatched"
)

// WebSocketMessage представляет сообщение для WebSocket
type WebSocketMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode читает payload в out. Пустой payload не ошибка.
func (m WebSocketMessage) Decode(out interface{}) error {
	if len(m.Payload) == 0 || string(m.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(m.Payload, out)
}

// Parse разбирает входящий кадр
func Parse(raw []byte) (WebSocketMessage, error) {
	var msg WebSocketMessage
	err := json.Unmarshal(raw, &msg)
	return msg, err
}

// NewMessage создает новое сообщение с указанным типом и данными
func NewMessage(messageType string, payload interface{}) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	message := WebSocketMessage{
		Type:    messageType,
		Payload: payloadJSON,
	}

	return json.Marshal(message)
}

// ResourceChanged - сигнал обновить экран после изменения
type ResourceChanged struct {
	Resource string `json:"resource"`
	ID       string `json:"id,omitempty"`
	Action   string `json:"action"`
}

// NewResourceChangedMessage создает сообщение об изменении ресурса
func NewResourceChangedMessage(resource, id, action string) ([]byte, error) {
	return NewMessage(TypeResourceChanged, ResourceChanged{Resource: resource, ID: id, Action: action})
}

// NewErrorMessage создает сообщение об ошибке
func NewErrorMessage(code, text string) ([]byte, error) {
	payload := struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    code,
		Message: text,
	}

	return NewMessage(TypeError, payload)
}
