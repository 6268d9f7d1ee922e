package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/explorer"
	"github.com/egor/citydeals-admin/models"
)

// DealsPage - GET /deals
func (h *Handlers) DealsPage(c *gin.Context) {
	listPage(c, explorer.NewDeals(), explorer.FetchDeals(h.client(c)), "deals")
}

// DealPage - GET /deals/:id, со статусом публикации на текущий момент
func (h *Handlers) DealPage(c *gin.Context) {
	id := models.ID(c.Param("id"))
	deal, err := h.client(c).Deal(c.Request.Context(), id)
	if err != nil {
		log.Printf("Ошибка получения сделки %s: %v", id, err)
		c.JSON(http.StatusNotFound, gin.H{"isError": true, "error": backend.UserMessage(err, "Impossible de récupérer le deal.")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal": deal, "status": deal.Status(time.Now())})
}

// UsersPage - GET /utilisateurs
func (h *Handlers) UsersPage(c *gin.Context) {
	listPage(c, explorer.NewUsers(), explorer.FetchUsers(h.client(c)), "users")
}

// ToggleUser - POST /utilisateurs/:id/toggle, форма active = текущее состояние
func (h *Handlers) ToggleUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	active := c.PostForm("active") == "1"
	res, err := h.client(c).ToggleUser(c.Request.Context(), models.ID(id), active)
	h.respondAction(c, "toggle", explorer.ResourceUsers, id, res, err,
		"Impossible de modifier le statut de l'utilisateur.", "")
}
