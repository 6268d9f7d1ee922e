package explorer

import (
	"context"
	"strings"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/models"
)

// Имена ресурсов живого канала
const (
	ResourceCompanies         = "companies"
	ResourceCompanyCategories = "company_categories"
	ResourceDeals             = "deals"
	ResourceDealCategories    = "deal_categories"
	ResourceUsers             = "users"
	ResourceSubscriptions     = "subscriptions"
)

// ListAPI - списки и действия бэкенда, нужные экранам. *backend.Client его реализует.
type ListAPI interface {
	Companies(ctx context.Context, q backend.ListQuery) (*backend.CompanyList, error)
	CompanyCategories(ctx context.Context, q backend.ListQuery) (*backend.CompanyCategoryList, error)
	Deals(ctx context.Context, q backend.ListQuery) (*backend.DealList, error)
	DealCategories(ctx context.Context, q backend.ListQuery) (*backend.DealCategoryList, error)
	Users(ctx context.Context, q backend.ListQuery) (*backend.UserList, error)

	ToggleCompany(ctx context.Context, id models.ID, currentlyActive bool) (models.ActionResult, error)
	ToggleUser(ctx context.Context, id models.ID, currentlyActive bool) (models.ActionResult, error)

	DeleteCompany(ctx context.Context, id models.ID) (models.ActionResult, error)
	DeleteCompanyCategory(ctx context.Context, id models.ID) (models.ActionResult, error)
	DeleteDealCategory(ctx context.Context, id models.ID) (models.ActionResult, error)
}

func join(parts ...string) string {
	return strings.Join(parts, " ")
}

// NewCompanies - экран /entreprises
func NewCompanies() *Explorer[models.Company] {
	return New(Config[models.Company]{
		Resource: ResourceCompanies,
		Path:     "/entreprises",
		Defaults: Query{Sort: "name", Direction: DirectionDesc},
		Key:      func(c models.Company) string { return c.ID.String() },
		Haystack: func(c models.Company) string { return join(c.Name, c.City, c.Email, c.CategoryName()) },
		Active:   func(c models.Company) bool { return c.Active.On() },
		Facets: map[string]func(models.Company) string{
			"category": models.Company.CategoryName,
			"city":     func(c models.Company) string { return c.City },
		},
		DeletedMessage: "Entreprise supprimée avec succès.",
		LoadError:      "Impossible de récupérer les entreprises",
	})
}

// FetchCompanies загружает компании.
func FetchCompanies(api ListAPI) FetchFunc[models.Company] {
	return func(ctx context.Context, q Query) (Page[models.Company], error) {
		list, err := api.Companies(ctx, q.List())
		if err != nil {
			return Page[models.Company]{}, err
		}
		return Page[models.Company]{Rows: list.Companies, Pagination: list.Pagination}, nil
	}
}

// NewCompanyCategories - экран /entreprises/categories
func NewCompanyCategories() *Explorer[models.CompanyCategory] {
	return New(Config[models.CompanyCategory]{
		Resource:       ResourceCompanyCategories,
		Path:           "/entreprises/categories",
		Defaults:       Query{Sort: "name"},
		Key:            func(c models.CompanyCategory) string { return c.ID.String() },
		Haystack:       func(c models.CompanyCategory) string { return join(c.Name, c.Description) },
		DeletedMessage: "Catégorie supprimée avec succès.",
		LoadError:      "Impossible de récupérer les catégories",
	})
}

// FetchCompanyCategories загружает категории компаний.
func FetchCompanyCategories(api ListAPI) FetchFunc[models.CompanyCategory] {
	return func(ctx context.Context, q Query) (Page[models.CompanyCategory], error) {
		list, err := api.CompanyCategories(ctx, q.List())
		if err != nil {
			return Page[models.CompanyCategory]{}, err
		}
		return Page[models.CompanyCategory]{Rows: list.Items(), Pagination: list.Pagination}, nil
	}
}

// NewDeals - экран /deals
func NewDeals() *Explorer[models.Deal] {
	return New(Config[models.Deal]{
		Resource: ResourceDeals,
		Path:     "/deals",
		Key:      func(d models.Deal) string { return d.ID.String() },
		Haystack: func(d models.Deal) string { return join(d.Name, d.CompanyName(), d.CategoryName(), d.City) },
		Facets: map[string]func(models.Deal) string{
			"category": models.Deal.CategoryName,
		},
		LoadError: "Impossible de récupérer les deals.",
	})
}

// FetchDeals загружает сделки.
func FetchDeals(api ListAPI) FetchFunc[models.Deal] {
	return func(ctx context.Context, q Query) (Page[models.Deal], error) {
		list, err := api.Deals(ctx, q.List())
		if err != nil {
			return Page[models.Deal]{}, err
		}
		return Page[models.Deal]{Rows: list.Deals, Pagination: list.Pagination}, nil
	}
}

// NewDealCategories - экран /deals/categories
func NewDealCategories() *Explorer[models.DealCategory] {
	return New(Config[models.DealCategory]{
		Resource:       ResourceDealCategories,
		Path:           "/deals/categories",
		Defaults:       Query{Sort: "name"},
		Key:            func(c models.DealCategory) string { return c.ID.String() },
		Haystack:       func(c models.DealCategory) string { return join(c.Name, c.Description) },
		DeletedMessage: "Catégorie supprimée avec succès.",
		LoadError:      "Impossible de récupérer les catégories de deals.",
	})
}

// FetchDealCategories загружает категории сделок.
func FetchDealCategories(api ListAPI) FetchFunc[models.DealCategory] {
	return func(ctx context.Context, q Query) (Page[models.DealCategory], error) {
		list, err := api.DealCategories(ctx, q.List())
		if err != nil {
			return Page[models.DealCategory]{}, err
		}
		return Page[models.DealCategory]{Rows: list.Categories, Pagination: list.Pagination}, nil
	}
}

// NewUsers - экран /utilisateurs
func NewUsers() *Explorer[models.User] {
	return New(Config[models.User]{
		Resource:  ResourceUsers,
		Path:      "/utilisateurs",
		Key:       func(u models.User) string { return u.ID.String() },
		Haystack:  func(u models.User) string { return join(u.Email, u.Phone, u.City) },
		Active:    func(u models.User) bool { return u.Active.On() },
		LoadError: "Impossible de récupérer les utilisateurs.",
	})
}

// FetchUsers загружает пользователей.
func FetchUsers(api ListAPI) FetchFunc[models.User] {
	return func(ctx context.Context, q Query) (Page[models.User], error) {
		list, err := api.Users(ctx, q.List())
		if err != nil {
			return Page[models.User]{}, err
		}
		return Page[models.User]{Rows: list.Users, Pagination: list.Pagination}, nil
	}
}

// ToggleCompany - запрос переключения компании для Toggle.Flip.
func ToggleCompany(api ListAPI, id string) ToggleRequest {
	return func(ctx context.Context, previous bool) error {
		_, err := api.ToggleCompany(ctx, models.ID(id), previous)
		return err
	}
}

// ToggleUser - запрос переключения пользователя для Toggle.Flip.
func ToggleUser(api ListAPI, id string) ToggleRequest {
	return func(ctx context.Context, previous bool) error {
		_, err := api.ToggleUser(ctx, models.ID(id), previous)
		return err
	}
}
