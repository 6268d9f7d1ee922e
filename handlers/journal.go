package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Journal - GET /api/journal?limit=: последние действия администраторов
func (h *Handlers) Journal(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		log.Printf("Ошибка чтения журнала: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Impossible de récupérer le journal."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
