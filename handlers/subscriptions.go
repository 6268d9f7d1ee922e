package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/explorer"
	"github.com/egor/citydeals-admin/middleware"
	"github.com/egor/citydeals-admin/models"
)

const (
	msgCompanyIDMissing      = "Identifiant d'entreprise manquant."
	msgSubscriptionIDMissing = "Identifiant d'abonnement manquant."
)

// proxyError переводит ошибку бэкенда в ответ маршрута оплат:
// код бэкенда (0 → 502) с его сообщением, сбой сети → 500 с retryMessage.
func proxyError(c *gin.Context, err error, retryMessage string) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		switch {
		case status == 0:
			status = http.StatusBadGateway
		case status < 300:
			// 2xx с success:false передаётся как есть
			c.JSON(http.StatusOK, gin.H{"success": false, "message": apiErr.Message})
			return
		}
		c.JSON(status, gin.H{"message": apiErr.Message})
		return
	}
	var idErr *backend.MissingIDError
	if errors.As(err, &idErr) {
		c.JSON(http.StatusBadRequest, gin.H{"message": idErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": retryMessage})
}

// hasSession - токен в cookie (с неистёкшим exp)
func (h *Handlers) hasSession(c *gin.Context) bool {
	if middleware.SessionFrom(c, h.session).Authenticated() {
		return true
	}
	c.JSON(http.StatusUnauthorized, gin.H{"message": middleware.MsgNoSession})
	return false
}

func subscriptionID(c *gin.Context) string {
	return strings.TrimSpace(firstNonEmpty(c.Param("id"), c.Query("id")))
}

// formFields - поля формы запроса как есть
func formFields(c *gin.Context) map[string]string {
	fields := map[string]string{}
	if err := c.Request.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		log.Printf("Ошибка разбора формы оплаты: %v", err)
	}
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}

// ListSubscriptions - GET /api/subscriptions?id_company=
func (h *Handlers) ListSubscriptions(c *gin.Context) {
	companyID := firstNonEmpty(c.Query("id_company"), c.Query("companyId"))
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgCompanyIDMissing})
		return
	}
	if !h.hasSession(c) {
		return
	}

	list, err := h.client(c).Subscriptions(c.Request.Context(), models.ID(companyID))
	if err != nil {
		log.Printf("Ошибка получения оплат компании %s: %v", companyID, err)
		proxyError(c, err, "Impossible de récupérer les abonnements pour le moment. Veuillez réessayer.")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateSubscription - POST /api/subscription (форма, id_company обязателен)
func (h *Handlers) CreateSubscription(c *gin.Context) {
	if !h.hasSession(c) {
		return
	}
	fields := formFields(c)
	companyID := strings.TrimSpace(fields["id_company"])
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgCompanyIDMissing})
		return
	}

	res, err := h.client(c).CreateSubscription(c.Request.Context(), fields)
	h.subscriptionDone(c, "create", companyID, res, err,
		"Impossible d'ajouter le paiement pour le moment. Veuillez réessayer.")
}

// UpdateSubscription - PUT /api/subscription/:id
func (h *Handlers) UpdateSubscription(c *gin.Context) {
	id := subscriptionID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgSubscriptionIDMissing})
		return
	}
	if !h.hasSession(c) {
		return
	}

	res, err := h.client(c).UpdateSubscription(c.Request.Context(), models.ID(id), formFields(c))
	h.subscriptionDone(c, "update", id, res, err,
		"Impossible de modifier le paiement pour le moment. Veuillez réessayer.")
}

// DeleteSubscription - DELETE /api/subscription/:id
func (h *Handlers) DeleteSubscription(c *gin.Context) {
	id := subscriptionID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgSubscriptionIDMissing})
		return
	}
	if !h.hasSession(c) {
		return
	}

	res, err := h.client(c).DeleteSubscription(c.Request.Context(), models.ID(id))
	h.subscriptionDone(c, "delete", id, res, err,
		"Impossible de supprimer le paiement pour le moment. Veuillez réessayer.")
}

func (h *Handlers) subscriptionDone(c *gin.Context, action, id string, res models.ActionResult, err error, retryMessage string) {
	admin := h.adminEmail(c)
	if err != nil {
		log.Printf("Ошибка %s оплаты %s: %v", action, id, err)
		h.record(c.Request.Context(), admin, action, explorer.ResourceSubscriptions, id, false,
			backend.UserMessage(err, retryMessage))
		proxyError(c, err, retryMessage)
		return
	}
	res.Success = true
	h.record(c.Request.Context(), admin, action, explorer.ResourceSubscriptions, id, true, res.Message)
	h.hub.BroadcastResourceChanged(explorer.ResourceSubscriptions, id, action)
	c.JSON(http.StatusOK, res)
}
