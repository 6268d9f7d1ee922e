package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/push"
	websocketpkg "github.com/egor/citydeals-admin/websocket"
)

const (
	msgNotificationSent     = "Notification envoyée avec succès."
	msgNotificationFailed   = "Impossible d'envoyer la notification pour le moment. Veuillez réessayer."
	msgNotificationRequired = "Le titre et le message sont obligatoires."
	msgUnknownRecipient     = "Destinataire inconnu."
	msgUnknownCity          = "Ville inconnue."
	msgNoRecipients         = "Aucun destinataire ne correspond à ces critères."

	resourceNotifications = "notifications"
)

// SendNotification - POST /api/notifications.
// Отвечает сразу после постановки рассылки; итог приходит в журнал и по WebSocket.
func (h *Handlers) SendNotification(c *gin.Context) {
	var req push.Notification
	if err := c.ShouldBind(&req); err != nil {
		log.Printf("Ошибка парсинга уведомления: %v", err)
		fail(c, http.StatusBadRequest, msgNotificationRequired)
		return
	}
	req = req.Normalize()
	if req.Recipient == "" {
		req.Recipient = push.RecipientGuests
	}
	if req.City == "" {
		req.City = push.AllCities
	}

	if req.Title == "" || req.Body == "" {
		fail(c, http.StatusBadRequest, msgNotificationRequired)
		return
	}
	// Форма шлёт только значения из списков, но сервер проверяет их сам
	if !push.ValidRecipient(req.Recipient) {
		fail(c, http.StatusBadRequest, msgUnknownRecipient)
		return
	}
	if !push.ValidCity(req.City) {
		fail(c, http.StatusBadRequest, msgUnknownCity)
		return
	}

	tokens, err := h.client(c).PushTokens(c.Request.Context(), req.Recipient, req.City)
	if err != nil {
		log.Printf("Ошибка получения push-токенов (%s, %s): %v", req.Recipient, req.City, err)
		fail(c, http.StatusInternalServerError, backend.UserMessage(err, msgNotificationFailed))
		return
	}
	messages := req.Messages(tokens)
	if len(messages) == 0 {
		fail(c, http.StatusNotFound, msgNoRecipients)
		return
	}

	req.RequestedBy = h.adminEmail(c)
	task := h.dispatcher.Dispatch(req, messages)
	log.Printf("Рассылка %s поставлена: %q, %d получателей", task.ID, req.Title, len(messages))

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    msgNotificationSent,
		"recipients": len(messages),
		"task_id":    task.ID,
	})
}

// notificationDone - итог фоновой рассылки: журнал и сигнал в WebSocket
func (h *Handlers) notificationDone(res push.Result, err error) {
	message := "acceptées " + strconv.Itoa(res.Accepted) + ", rejetées " + strconv.Itoa(res.Rejected)
	if err != nil {
		message = res.Error
	}
	h.record(context.Background(), res.RequestedBy, "send", resourceNotifications, res.TaskID, err == nil, message)
	h.hub.BroadcastJSON(websocketpkg.TypeNotificationDispatched, res)
}
