package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/explorer"
	"github.com/egor/citydeals-admin/models"
)

const (
	msgCategoryCreated = "Catégorie créée avec succès."
	msgCategoryUpdated = "Catégorie mise à jour avec succès."
	msgCategoryDeleted = "Catégorie supprimée avec succès."
)

// categoryKind - различия между категориями компаний и сделок
type categoryKind struct {
	resource string
	path     string
	key      string // ключ карточки в ответе
	loadErr  string

	// сигнатуры совпадают с методами *backend.Client
	get    func(api *backend.Client, ctx context.Context, id models.ID) (any, error)
	create func(api *backend.Client, ctx context.Context, in backend.CategoryInput) (models.ActionResult, error)
	update func(api *backend.Client, ctx context.Context, id models.ID, in backend.CategoryInput) (models.ActionResult, error)
	remove func(api *backend.Client, ctx context.Context, id models.ID) (models.ActionResult, error)
}

var companyCategories = categoryKind{
	resource: explorer.ResourceCompanyCategories,
	path:     "/entreprises/categories",
	key:      "company_category",
	loadErr:  "Impossible de récupérer la catégorie.",
	get: func(api *backend.Client, ctx context.Context, id models.ID) (any, error) {
		return api.CompanyCategory(ctx, id)
	},
	create: (*backend.Client).CreateCompanyCategory,
	update: (*backend.Client).UpdateCompanyCategory,
	remove: (*backend.Client).DeleteCompanyCategory,
}

var dealCategories = categoryKind{
	resource: explorer.ResourceDealCategories,
	path:     "/deals/categories",
	key:      "deal_category",
	loadErr:  "Impossible de récupérer la catégorie de deal.",
	get: func(api *backend.Client, ctx context.Context, id models.ID) (any, error) {
		return api.DealCategory(ctx, id)
	},
	create: (*backend.Client).CreateDealCategory,
	update: (*backend.Client).UpdateDealCategory,
	remove: (*backend.Client).DeleteDealCategory,
}

func categoryInput(c *gin.Context) backend.CategoryInput {
	in := backend.CategoryInput{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Description: strings.TrimSpace(c.PostForm("description")),
	}
	if fh, err := c.FormFile("file_cover"); err == nil {
		in.Cover = backend.UploadFromHeader(fh)
	}
	return in
}

func (h *Handlers) categoryPage(c *gin.Context, kind categoryKind) {
	id := models.ID(c.Param("id"))
	item, err := kind.get(h.client(c), c.Request.Context(), id)
	if err != nil {
		log.Printf("Ошибка получения категории %s/%s: %v", kind.resource, id, err)
		c.JSON(http.StatusNotFound, gin.H{"isError": true, "error": backend.UserMessage(err, kind.loadErr)})
		return
	}
	c.JSON(http.StatusOK, gin.H{kind.key: item})
}

func (h *Handlers) createCategory(c *gin.Context, kind categoryKind) {
	in := categoryInput(c)
	if in.Name == "" {
		fail(c, http.StatusBadRequest, msgNameMissing)
		return
	}
	res, err := kind.create(h.client(c), c.Request.Context(), in)
	res.Redirect = kind.path
	h.respondAction(c, "create", kind.resource, "", res, err,
		"Impossible de créer la catégorie.", msgCategoryCreated)
}

func (h *Handlers) updateCategory(c *gin.Context, kind categoryKind) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, msgMissingID)
		return
	}
	res, err := kind.update(h.client(c), c.Request.Context(), models.ID(id), categoryInput(c))
	h.respondAction(c, "update", kind.resource, id, res, err,
		"Impossible de mettre à jour la catégorie.", msgCategoryUpdated)
}

func (h *Handlers) deleteCategory(c *gin.Context, kind categoryKind) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, msgMissingID)
		return
	}
	res, err := kind.remove(h.client(c), c.Request.Context(), models.ID(id))
	// сообщение бэкенда важнее стандартного
	res.Message = firstNonEmpty(res.Message, msgCategoryDeleted)
	h.respondAction(c, "delete", kind.resource, id, res, err,
		"Impossible de supprimer la catégorie.", "")
}

// CompanyCategoriesPage - GET /entreprises/categories
func (h *Handlers) CompanyCategoriesPage(c *gin.Context) {
	listPage(c, explorer.NewCompanyCategories(), explorer.FetchCompanyCategories(h.client(c)), "company_categories")
}

// CompanyCategoryPage - GET /entreprises/categories/:id
func (h *Handlers) CompanyCategoryPage(c *gin.Context) { h.categoryPage(c, companyCategories) }

// CreateCompanyCategory - POST /entreprises/categories/new
func (h *Handlers) CreateCompanyCategory(c *gin.Context) { h.createCategory(c, companyCategories) }

// UpdateCompanyCategory - POST /entreprises/categories/:id
func (h *Handlers) UpdateCompanyCategory(c *gin.Context) { h.updateCategory(c, companyCategories) }

// DeleteCompanyCategory - POST /entreprises/categories/:id/delete
func (h *Handlers) DeleteCompanyCategory(c *gin.Context) { h.deleteCategory(c, companyCategories) }

// DealCategoriesPage - GET /deals/categories
func (h *Handlers) DealCategoriesPage(c *gin.Context) {
	listPage(c, explorer.NewDealCategories(), explorer.FetchDealCategories(h.client(c)), "deal_categories")
}

// DealCategoryPage - GET /deals/categories/:id
func (h *Handlers) DealCategoryPage(c *gin.Context) { h.categoryPage(c, dealCategories) }

// CreateDealCategory - POST /deals/categories/new
func (h *Handlers) CreateDealCategory(c *gin.Context) { h.createCategory(c, dealCategories) }

// UpdateDealCategory - POST /deals/categories/:id
func (h *Handlers) UpdateDealCategory(c *gin.Context) { h.updateCategory(c, dealCategories) }

// DeleteDealCategory - POST /deals/categories/:id/delete
func (h *Handlers) DeleteDealCategory(c *gin.Context) { h.deleteCategory(c, dealCategories) }
