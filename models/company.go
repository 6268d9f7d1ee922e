package models

import "encoding/json"

// Company представляет компанию-партнёра
type Company struct {
	ID          ID              `json:"id_company"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Website     string          `json:"website,omitempty"`
	Address     string          `json:"address,omitempty"`
	City        string          `json:"city,omitempty"`
	CategoryID  ID              `json:"id_company_category,omitempty"`
	Active      Flag            `json:"active"`
	DateAdd     string          `json:"date_add,omitempty"`
	DateUpd     string          `json:"date_upd,omitempty"`
	Files       *Files          `json:"files,omitempty"`
	Relateds    CompanyRelateds `json:"relateds"`
}

// CompanyRelateds - связанные сущности компании
type CompanyRelateds struct {
	CompanyCategory *CompanyCategory `json:"company_category,omitempty"`
}

// UnmarshalJSON допускает [] и null.
func (r *CompanyRelateds) UnmarshalJSON(data []byte) error {
	if emptyObject(data) {
		*r = CompanyRelateds{}
		return nil
	}
	type plain CompanyRelateds
	return json.Unmarshal(data, (*plain)(r))
}

// CategoryName - название связанной категории или пустая строка.
func (c Company) CategoryName() string {
	if c.Relateds.CompanyCategory == nil {
		return ""
	}
	return c.Relateds.CompanyCategory.Name
}

// CompanyCategory - категория компаний
type CompanyCategory struct {
	ID          ID     `json:"id_company_category"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      Flag   `json:"active"`
	DateAdd     string `json:"date_add,omitempty"`
	DateUpd     string `json:"date_upd,omitempty"`
	Files       *Files `json:"files,omitempty"`
}
