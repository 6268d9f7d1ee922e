package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/middleware"
	"github.com/egor/citydeals-admin/models"
	"github.com/egor/citydeals-admin/session"
)

const (
	msgFillAllFields = "Merci de remplir tous les champs."
	msgLoginFailed   = "Impossible de vous connecter. Réessayez."
)

// LoginPage - данные страницы входа. С живой сессией сразу на главную.
func (h *Handlers) LoginPage(c *gin.Context) {
	if middleware.SessionFrom(c, h.session).Authenticated() {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": "login"})
}

// Login обрабатывает авторизацию админов
func (h *Handlers) Login(c *gin.Context) {
	var credentials struct {
		Email    string `form:"email" json:"email"`
		Password string `form:"password" json:"password"`
	}

	if err := c.ShouldBind(&credentials); err != nil {
		log.Printf("Ошибка парсинга данных для авторизации: %v", err)
	}
	credentials.Email = strings.TrimSpace(credentials.Email)

	// Пустые поля не доходят до бэкенда
	if credentials.Email == "" || credentials.Password == "" {
		fail(c, http.StatusBadRequest, msgFillAllFields)
		return
	}

	log.Printf("Попытка авторизации для пользователя: %s", credentials.Email)

	result, err := h.api.Login(c.Request.Context(), credentials.Email, credentials.Password)
	if err != nil {
		log.Printf("Ошибка аутентификации для %s: %v", credentials.Email, err)
		h.record(c.Request.Context(), credentials.Email, "login", "session", "", false, backend.UserMessage(err, msgLoginFailed))
		fail(c, http.StatusUnauthorized, backend.UserMessage(err, msgLoginFailed))
		return
	}

	store := session.NewServerCookies(c, h.session)
	if err := store.Persist(session.Session{Token: result.Token, Admin: result.Admin}); err != nil {
		log.Printf("Ошибка записи сессии %s: %v", credentials.Email, err)
		fail(c, http.StatusInternalServerError, msgLoginFailed)
		return
	}

	log.Printf("Успешная авторизация администратора: %s", credentials.Email)
	h.record(c.Request.Context(), credentials.Email, "login", "session", "", true, "")
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout удаляет cookie сессии
func (h *Handlers) Logout(c *gin.Context) {
	email := h.adminEmail(c)
	if err := session.NewServerCookies(c, h.session).Destroy(); err != nil {
		log.Printf("Ошибка удаления сессии: %v", err)
	}
	if email != "" {
		h.record(c.Request.Context(), email, "logout", "session", "", true, "")
	}
	c.JSON(http.StatusOK, models.ActionResult{Success: true})
}
