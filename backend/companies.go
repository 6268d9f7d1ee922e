package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/egor/citydeals-admin/models"
)

// CompanyList - ответ /companies
type CompanyList struct {
	Companies  []models.Company   `json:"companies"`
	Pagination *models.Pagination `json:"pagination"`
}

// DealList - ответ /deals
type DealList struct {
	Deals      []models.Deal      `json:"deals"`
	Pagination *models.Pagination `json:"pagination"`
}

// CompanyInput - поля формы компании. Пустые значения не отправляются.
type CompanyInput struct {
	Name        string
	Description string
	Email       string
	Phone       string
	Website     string
	Address     string
	City        string
	CategoryID  models.ID
	Active      string // "1"/"0", пусто - не менять
	Logo        *Upload
	Cover       *Upload
}

func (in CompanyInput) encode(create bool) (*formBuilder, error) {
	f := newForm()
	f.optional("name", in.Name)
	f.optional("description", in.Description)
	f.optional("email", in.Email)
	f.optional("phone", in.Phone)
	f.optional("website", in.Website)
	f.optional("address", in.Address)
	f.optional("city", in.City)
	f.optional("id_company_category", in.CategoryID.String())
	switch {
	case in.Active != "":
		f.field("active", in.Active)
	case create:
		f.field("active", "1")
	}
	f.file("file_logo", in.Logo)
	f.file("file_cover", in.Cover)
	return f, f.err
}

// Companies - список компаний
func (c *Client) Companies(ctx context.Context, q ListQuery) (*CompanyList, error) {
	var out CompanyList
	if err := c.getJSON(ctx, "/companies", q.Values(), "Impossible de récupérer les entreprises", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Company - карточка компании. Бэкенд отвечает {company: {...}} или самой компанией.
func (c *Client) Company(ctx context.Context, id models.ID) (*models.Company, error) {
	const msg = "Impossible de récupérer l'entreprise."
	if err := requireID(id, "Identifiant d'entreprise manquant."); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/company/"+escapeID(id), nil, msg, &raw); err != nil {
		return nil, err
	}
	var company models.Company
	if err := decodeOne(raw, "company", &company); err != nil {
		return nil, err
	}
	if company.ID == "" {
		return nil, &APIError{Status: http.StatusNotFound, Message: msg}
	}
	return &company, nil
}

// CompanyDeals - сделки одной компании
func (c *Client) CompanyDeals(ctx context.Context, id models.ID) (*DealList, error) {
	if err := requireID(id, "Identifiant d'entreprise manquant."); err != nil {
		return nil, err
	}
	var out DealList
	q := url.Values{"id_company": {id.String()}}
	if err := c.getJSON(ctx, "/deals", q, "Impossible de récupérer les deals de l'entreprise.", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCompany создаёт компанию (multipart)
func (c *Client) CreateCompany(ctx context.Context, in CompanyInput) (models.ActionResult, error) {
	form, err := in.encode(true)
	if err != nil {
		return models.ActionResult{}, err
	}
	return c.sendForm(ctx, http.MethodPost, "/company", form, "Impossible de créer l'entreprise.")
}

// UpdateCompany обновляет компанию (multipart)
func (c *Client) UpdateCompany(ctx context.Context, id models.ID, in CompanyInput) (models.ActionResult, error) {
	if err := requireID(id, "Identifiant manquant."); err != nil {
		return models.ActionResult{}, err
	}
	form, err := in.encode(false)
	if err != nil {
		return models.ActionResult{}, err
	}
	return c.sendForm(ctx, http.MethodPut, "/company/"+escapeID(id), form, "Impossible de mettre à jour l'entreprise.")
}

// DeleteCompany удаляет компанию
func (c *Client) DeleteCompany(ctx context.Context, id models.ID) (models.ActionResult, error) {
	if err := requireID(id, "Identifiant manquant."); err != nil {
		return models.ActionResult{}, err
	}
	return c.mutate(ctx, request{
		method:   http.MethodDelete,
		path:     "/company/" + escapeID(id),
		fallback: "Impossible de supprimer l'entreprise.",
	})
}

// ToggleCompany активирует или деактивирует компанию.
// currentlyActive - состояние до переключения.
func (c *Client) ToggleCompany(ctx context.Context, id models.ID, currentlyActive bool) (models.ActionResult, error) {
	if err := requireID(id, "Identifiant d'entreprise manquant."); err != nil {
		return models.ActionResult{}, err
	}
	action, msg := toggleAction(currentlyActive, "l'entreprise")
	return c.mutate(ctx, request{
		method:   http.MethodGet,
		path:     "/company/" + escapeID(id) + "/" + action,
		fallback: msg,
	})
}

// toggleAction выбирает эндпоинт и сообщение об ошибке.
func toggleAction(currentlyActive bool, object string) (action, failure string) {
	if currentlyActive {
		return "deactivate", "Impossible de désactiver " + object + "."
	}
	return "activate", "Impossible d'activer " + object + "."
}

func (c *Client) sendForm(ctx context.Context, method, path string, form *formBuilder, fallback string) (models.ActionResult, error) {
	body, contentType, err := form.finish()
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("build form %s: %w", path, err)
	}
	return c.mutate(ctx, request{
		method:      method,
		path:        path,
		body:        body,
		contentType: contentType,
		fallback:    fallback,
	})
}

// decodeOne разбирает {key: {...}} либо сам объект.
func decodeOne(raw json.RawMessage, key string, out any) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err == nil {
		if inner, ok := wrapper[key]; ok && string(inner) != "null" {
			raw = inner
		}
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
