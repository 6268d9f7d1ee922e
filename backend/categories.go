package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/egor/citydeals-admin/models"
)

// CategoryInput - форма категории (компаний или сделок)
type CategoryInput struct {
	Name        string
	Description string
	Cover       *Upload
}

// createForm: name и active=1 всегда, description и file_cover только если есть.
func (in CategoryInput) createForm() *formBuilder {
	f := newForm()
	f.field("name", in.Name)
	f.field("active", "1")
	f.optional("description", in.Description)
	f.file("file_cover", in.Cover)
	return f
}

// updateForm отправляет только заполненные поля.
func (in CategoryInput) updateForm() *formBuilder {
	f := newForm()
	f.optional("name", in.Name)
	f.optional("description", in.Description)
	f.file("file_cover", in.Cover)
	return f
}

// categoryMessages - тексты ошибок одного вида категорий
type categoryMessages struct {
	list, one, create, update, remove string
}

// categoryAPI - общие операции двух видов категорий
type categoryAPI struct {
	listPath string // /company-categories
	onePath  string // /company-category
	key      string // ключ объекта в ответе
	messages categoryMessages
}

var companyCategoryAPI = categoryAPI{
	listPath: "/company-categories",
	onePath:  "/company-category",
	key:      "company_category",
	messages: categoryMessages{
		list:   "Impossible de récupérer les catégories",
		one:    "Impossible de récupérer la catégorie",
		create: "Impossible de créer la catégorie",
		update: "Impossible de mettre à jour la catégorie",
		remove: "Impossible de supprimer la catégorie.",
	},
}

var dealCategoryAPI = categoryAPI{
	listPath: "/deal-categories",
	onePath:  "/deal-category",
	key:      "deal_category",
	messages: categoryMessages{
		list:   "Impossible de récupérer les catégories de deals.",
		one:    "Impossible de récupérer la catégorie.",
		create: "Impossible de créer la catégorie.",
		update: "Impossible de mettre à jour la catégorie.",
		remove: "Impossible de supprimer la catégorie.",
	},
}

func (api categoryAPI) get(ctx context.Context, c *Client, id models.ID, out any) error {
	if err := requireID(id, "Identifiant manquant."); err != nil {
		return err
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, api.onePath+"/"+escapeID(id), nil, api.messages.one, &raw); err != nil {
		return err
	}
	return decodeOne(raw, api.key, out)
}

func (api categoryAPI) create(ctx context.Context, c *Client, in CategoryInput) (models.ActionResult, error) {
	return c.sendForm(ctx, http.MethodPost, api.onePath, in.createForm(), api.messages.create)
}

func (api categoryAPI) update(ctx context.Context, c *Client, id models.ID, in CategoryInput) (models.ActionResult, error) {
	if err := requireID(id, "Identifiant manquant."); err != nil {
		return models.ActionResult{}, err
	}
	return c.sendForm(ctx, http.MethodPut, api.onePath+"/"+escapeID(id), in.updateForm(), api.messages.update)
}

func (api categoryAPI) remove(ctx context.Context, c *Client, id models.ID) (models.ActionResult, error) {
	if err := requireID(id, "Identifiant manquant."); err != nil {
		return models.ActionResult{}, err
	}
	return c.mutate(ctx, request{
		method:   http.MethodDelete,
		path:     api.onePath + "/" + escapeID(id),
		fallback: api.messages.remove,
	})
}

// CompanyCategoryList - ответ /company-categories.
// Часть версий бэкенда отдаёт список под ключом deal_categories.
type CompanyCategoryList struct {
	Categories []models.CompanyCategory `json:"company_categories"`
	Legacy     []models.CompanyCategory `json:"deal_categories"`
	Pagination *models.Pagination       `json:"pagination"`
}

// Items - категории из любого из двух ключей.
func (l *CompanyCategoryList) Items() []models.CompanyCategory {
	if len(l.Categories) > 0 {
		return l.Categories
	}
	return l.Legacy
}

// CompanyCategories - список категорий компаний
func (c *Client) CompanyCategories(ctx context.Context, q ListQuery) (*CompanyCategoryList, error) {
	var out CompanyCategoryList
	if err := c.getJSON(ctx, companyCategoryAPI.listPath, q.Values(), companyCategoryAPI.messages.list, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompanyCategory - одна категория компаний
func (c *Client) CompanyCategory(ctx context.Context, id models.ID) (*models.CompanyCategory, error) {
	var out models.CompanyCategory
	if err := companyCategoryAPI.get(ctx, c, id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCompanyCategory создаёт категорию компаний
func (c *Client) CreateCompanyCategory(ctx context.Context, in CategoryInput) (models.ActionResult, error) {
	return companyCategoryAPI.create(ctx, c, in)
}

// UpdateCompanyCategory обновляет категорию компаний
func (c *Client) UpdateCompanyCategory(ctx context.Context, id models.ID, in CategoryInput) (models.ActionResult, error) {
	return companyCategoryAPI.update(ctx, c, id, in)
}

// DeleteCompanyCategory удаляет категорию компаний
func (c *Client) DeleteCompanyCategory(ctx context.Context, id models.ID) (models.ActionResult, error) {
	return companyCategoryAPI.remove(ctx, c, id)
}

// DealCategoryList - ответ /deal-categories
type DealCategoryList struct {
	Categories []models.DealCategory `json:"deal_categories"`
	Pagination *models.Pagination    `json:"pagination"`
}

// DealCategories - список категорий сделок
func (c *Client) DealCategories(ctx context.Context, q ListQuery) (*DealCategoryList, error) {
	var out DealCategoryList
	if err := c.getJSON(ctx, dealCategoryAPI.listPath, q.Values(), dealCategoryAPI.messages.list, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DealCategory - одна категория сделок
func (c *Client) DealCategory(ctx context.Context, id models.ID) (*models.DealCategory, error) {
	var out models.DealCategory
	if err := dealCategoryAPI.get(ctx, c, id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDealCategory создаёт категорию сделок
func (c *Client) CreateDealCategory(ctx context.Context, in CategoryInput) (models.ActionResult, error) {
	return dealCategoryAPI.create(ctx, c, in)
}

// UpdateDealCategory обновляет категорию сделок
func (c *Client) UpdateDealCategory(ctx context.Context, id models.ID, in CategoryInput) (models.ActionResult, error) {
	return dealCategoryAPI.update(ctx, c, id, in)
}

// DeleteDealCategory удаляет категорию сделок
func (c *Client) DeleteDealCategory(ctx context.Context, id models.ID) (models.ActionResult, error) {
	return dealCategoryAPI.remove(ctx, c, id)
}
