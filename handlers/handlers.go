package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/config"
	"github.com/egor/citydeals-admin/database"
	"github.com/egor/citydeals-admin/middleware"
	"github.com/egor/citydeals-admin/models"
	"github.com/egor/citydeals-admin/push"
	"github.com/egor/citydeals-admin/session"
	websocketpkg "github.com/egor/citydeals-admin/websocket"
)

const (
	msgMissingID   = "Identifiant manquant."
	msgNameMissing = "Le nom est obligatoire."
)

// Deps - зависимости обработчиков
type Deps struct {
	Config     *config.Config
	Backend    *backend.Client
	Hub        *websocketpkg.Hub
	Journal    database.Journal
	Dispatcher *push.Dispatcher
}

// Handlers - HTTP-обработчики админки
type Handlers struct {
	cfg        *config.Config
	api        *backend.Client
	hub        *websocketpkg.Hub
	journal    database.Journal
	dispatcher *push.Dispatcher
	session    session.Options
}

// New собирает обработчики и подписывает журнал и хаб на итоги рассылок.
func New(d Deps) *Handlers {
	journal := d.Journal
	if journal == nil {
		journal = database.Nop{}
	}
	h := &Handlers{
		cfg:        d.Config,
		api:        d.Backend,
		hub:        d.Hub,
		journal:    journal,
		dispatcher: d.Dispatcher,
		session: session.Options{
			TTL:    d.Config.SessionTTL,
			Secure: d.Config.Production(),
		},
	}
	if h.dispatcher != nil {
		h.dispatcher.OnDone(h.notificationDone)
	}
	return h
}

// Register вешает маршруты на роутер.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)

	pages := r.Group("/")
	pages.Use(middleware.RequireSession(h.session, middleware.PageMode))
	{
		pages.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/entreprises") })

		pages.GET("/entreprises", h.CompaniesPage)
		pages.POST("/entreprises/new", h.CreateCompany)

		// Категории регистрируются до /:id
		pages.GET("/entreprises/categories", h.CompanyCategoriesPage)
		pages.POST("/entreprises/categories/new", h.CreateCompanyCategory)
		pages.GET("/entreprises/categories/:id", h.CompanyCategoryPage)
		pages.POST("/entreprises/categories/:id", h.UpdateCompanyCategory)
		pages.POST("/entreprises/categories/:id/delete", h.DeleteCompanyCategory)

		pages.GET("/entreprises/:id", h.CompanyPage)
		pages.POST("/entreprises/:id", h.UpdateCompany)
		pages.POST("/entreprises/:id/delete", h.DeleteCompany)
		pages.POST("/entreprises/:id/toggle", h.ToggleCompany)

		pages.GET("/deals", h.DealsPage)
		pages.GET("/deals/categories", h.DealCategoriesPage)
		pages.POST("/deals/categories/new", h.CreateDealCategory)
		pages.GET("/deals/categories/:id", h.DealCategoryPage)
		pages.POST("/deals/categories/:id", h.UpdateDealCategory)
		pages.POST("/deals/categories/:id/delete", h.DeleteDealCategory)
		pages.GET("/deals/:id", h.DealPage)

		pages.GET("/utilisateurs", h.UsersPage)
		pages.POST("/utilisateurs/:id/toggle", h.ToggleUser)
	}

	api := r.Group("/api")
	{
		api.POST("/logout", h.Logout)

		// Маршруты оплат сами проверяют сессию: порядок проверок у каждого свой
		api.GET("/subscriptions", h.ListSubscriptions)
		api.POST("/subscription", h.CreateSubscription)
		api.PUT("/subscription/:id", h.UpdateSubscription)
		api.DELETE("/subscription/:id", h.DeleteSubscription)
		api.PUT("/subscription", h.UpdateSubscription)
		api.DELETE("/subscription", h.DeleteSubscription)

		protected := api.Group("/")
		protected.Use(middleware.RequireSession(h.session, middleware.APIMode))
		{
			protected.POST("/notifications", h.SendNotification)
			protected.GET("/journal", h.Journal)
		}
	}

	r.GET("/ws", h.ServeWs)
}

// Health - проверка живости
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": h.hub.Clients()})
}

// client - клиент бэкенда с токеном текущего запроса
func (h *Handlers) client(c *gin.Context) *backend.Client {
	return h.api.WithSession(session.Static(middleware.SessionFrom(c, h.session)))
}

func (h *Handlers) adminEmail(c *gin.Context) string {
	if email := c.GetString("adminEmail"); email != "" {
		return email
	}
	if admin := middleware.SessionFrom(c, h.session).Admin; admin != nil {
		return admin.Email
	}
	return ""
}

// record пишет действие в журнал
func (h *Handlers) record(ctx context.Context, admin, action, resource, id string, ok bool, message string) {
	h.journal.Record(ctx, database.Entry{
		AdminEmail: admin,
		Action:     action,
		Resource:   resource,
		ResourceID: id,
		Success:    ok,
		Message:    message,
	})
}

// respondAction завершает server action: журнал, сигнал обновления, ответ.
func (h *Handlers) respondAction(c *gin.Context, action, resource, id string, res models.ActionResult, err error, fallback, success string) {
	admin := h.adminEmail(c)
	if err != nil {
		message := backend.UserMessage(err, fallback)
		log.Printf("%s %s/%s: %v", action, resource, id, err)
		h.record(c.Request.Context(), admin, action, resource, id, false, message)
		c.JSON(actionStatus(err), models.ActionResult{Success: false, Message: message})
		return
	}

	res.Success = true
	if success != "" {
		res.Message = success
	}
	h.record(c.Request.Context(), admin, action, resource, id, true, res.Message)
	h.hub.BroadcastResourceChanged(resource, id, action)
	c.JSON(http.StatusOK, res)
}

// actionStatus - HTTP-код ответа на неуспешное действие.
func actionStatus(err error) int {
	if errors.Is(err, backend.ErrMissingID) {
		return http.StatusBadRequest
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status >= 400:
			return apiErr.Status
		case apiErr.Status >= 200 && apiErr.Status < 300:
			// бэкенд ответил success:false
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusBadGateway
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, models.ActionResult{Success: false, Message: message})
}
