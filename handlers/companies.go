package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/explorer"
	"github.com/egor/citydeals-admin/models"
)

// listPage загружает список через экран explorer и отдаёт данные страницы.
// Ошибка бэкенда не ломает страницу: isError и текст для баннера.
func listPage[T any](c *gin.Context, ex *explorer.Explorer[T], fetch explorer.FetchFunc[T], key string) {
	ex.Open(c.Request.URL.Query())
	if err := ex.Load(c.Request.Context(), fetch); err != nil {
		log.Printf("Ошибка загрузки %s: %v", ex.Resource(), err)
	}
	view := ex.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		key:          view.Rows,
		"pagination": view.Pagination,
		"total":      view.Total,
		"active":     view.Active,
		"facets":     view.Facets,
		"query":      view.Query,
		"location":   view.Location,
		"isError":    view.Status == explorer.StatusError,
		"error":      view.Error,
	})
}

// CompaniesPage - GET /entreprises
func (h *Handlers) CompaniesPage(c *gin.Context) {
	listPage(c, explorer.NewCompanies(), explorer.FetchCompanies(h.client(c)), "companies")
}

// CompanyPage - GET /entreprises/:id: карточка и сделки компании
func (h *Handlers) CompanyPage(c *gin.Context) {
	id := models.ID(c.Param("id"))
	api := h.client(c)

	company, err := api.Company(c.Request.Context(), id)
	if err != nil {
		log.Printf("Ошибка получения компании %s: %v", id, err)
		c.JSON(http.StatusNotFound, gin.H{
			"isError": true,
			"error":   backend.UserMessage(err, "Impossible de récupérer l'entreprise."),
		})
		return
	}

	// Сделки не обязательны для карточки
	deals := []models.Deal{}
	var pagination *models.Pagination
	if list, err := api.CompanyDeals(c.Request.Context(), id); err != nil {
		log.Printf("Ошибка получения сделок компании %s: %v", id, err)
	} else if list.Deals != nil {
		deals, pagination = list.Deals, list.Pagination
	}

	c.JSON(http.StatusOK, gin.H{
		"company":    company,
		"deals":      deals,
		"pagination": pagination,
	})
}

// companyInput читает multipart-форму компании
func companyInput(c *gin.Context) backend.CompanyInput {
	in := backend.CompanyInput{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Email:       strings.TrimSpace(c.PostForm("email")),
		Phone:       strings.TrimSpace(c.PostForm("phone")),
		Website:     strings.TrimSpace(c.PostForm("website")),
		Address:     strings.TrimSpace(c.PostForm("address")),
		City:        strings.TrimSpace(c.PostForm("city")),
		CategoryID:  models.ID(strings.TrimSpace(c.PostForm("id_company_category"))),
		Active:      c.PostForm("active"),
	}
	if fh, err := c.FormFile("file_logo"); err == nil {
		in.Logo = backend.UploadFromHeader(fh)
	}
	if fh, err := c.FormFile("file_cover"); err == nil {
		in.Cover = backend.UploadFromHeader(fh)
	}
	return in
}

// CreateCompany - POST /entreprises/new
func (h *Handlers) CreateCompany(c *gin.Context) {
	in := companyInput(c)
	if in.Name == "" {
		fail(c, http.StatusBadRequest, msgNameMissing)
		return
	}
	res, err := h.client(c).CreateCompany(c.Request.Context(), in)
	res.Redirect = "/entreprises"
	h.respondAction(c, "create", explorer.ResourceCompanies, "", res, err,
		"Impossible de créer l'entreprise.", "Entreprise créée avec succès.")
}

// UpdateCompany - POST /entreprises/:id
func (h *Handlers) UpdateCompany(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, msgMissingID)
		return
	}
	res, err := h.client(c).UpdateCompany(c.Request.Context(), models.ID(id), companyInput(c))
	h.respondAction(c, "update", explorer.ResourceCompanies, id, res, err,
		"Impossible de mettre à jour l'entreprise.", "Entreprise mise à jour avec succès.")
}

// DeleteCompany - POST /entreprises/:id/delete
func (h *Handlers) DeleteCompany(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, msgMissingID)
		return
	}
	res, err := h.client(c).DeleteCompany(c.Request.Context(), models.ID(id))
	res.Message = firstNonEmpty(res.Message, "Entreprise supprimée avec succès.")
	h.respondAction(c, "delete", explorer.ResourceCompanies, id, res, err,
		"Impossible de supprimer l'entreprise.", "")
}

// ToggleCompany - POST /entreprises/:id/toggle, форма active = текущее состояние
func (h *Handlers) ToggleCompany(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	active := c.PostForm("active") == "1"
	res, err := h.client(c).ToggleCompany(c.Request.Context(), models.ID(id), active)
	h.respondAction(c, "toggle", explorer.ResourceCompanies, id, res, err,
		"Impossible de modifier le statut de l'entreprise.", "")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
