package models

import (
	"encoding/json"
	"time"
)

// Статусы сделки для списка и карточки
const (
	DealDraft    = "Brouillon"
	DealUpcoming = "À venir"
	DealFinished = "Terminé"
	DealRunning  = "En cours"
)

// Deal представляет сделку (купон) компании
type Deal struct {
	ID          ID           `json:"id_deal"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	CompanyID   ID           `json:"id_company,omitempty"`
	CategoryID  ID           `json:"id_deal_category,omitempty"`
	City        string       `json:"city,omitempty"`
	Price       Amount       `json:"price,omitempty"`
	Discount    Amount       `json:"discount,omitempty"`
	DateStart   string       `json:"date_start,omitempty"`
	DateEnd     string       `json:"date_end,omitempty"`
	Active      Flag         `json:"active"`
	DateAdd     string       `json:"date_add,omitempty"`
	DateUpd     string       `json:"date_upd,omitempty"`
	Files       *Files       `json:"files,omitempty"`
	Relateds    DealRelateds `json:"relateds"`
}

// DealRelateds - компания и категория сделки
type DealRelateds struct {
	Company      *Company      `json:"company,omitempty"`
	DealCategory *DealCategory `json:"deal_category,omitempty"`
}

// UnmarshalJSON допускает [] и null.
func (r *DealRelateds) UnmarshalJSON(data []byte) error {
	if emptyObject(data) {
		*r = DealRelateds{}
		return nil
	}
	type plain DealRelateds
	return json.Unmarshal(data, (*plain)(r))
}

// CompanyName - название компании-владельца или пустая строка.
func (d Deal) CompanyName() string {
	if d.Relateds.Company == nil {
		return ""
	}
	return d.Relateds.Company.Name
}

// CategoryName - название категории сделки или пустая строка.
func (d Deal) CategoryName() string {
	if d.Relateds.DealCategory == nil {
		return ""
	}
	return d.Relateds.DealCategory.Name
}

// Status вычисляет статус сделки на момент now.
// Нераспознанные даты считаются «в процессе», как и в карточке компании.
func (d Deal) Status(now time.Time) string {
	if !d.Active.On() {
		return DealDraft
	}
	start, okStart := ParseAPIDateTime(d.DateStart)
	end, okEnd := ParseAPIDateTime(d.DateEnd)
	if !okStart || !okEnd {
		return DealRunning
	}
	switch {
	case now.Before(start):
		return DealUpcoming
	case now.After(end):
		return DealFinished
	default:
		return DealRunning
	}
}

// DealCategory - категория сделок
type DealCategory struct {
	ID          ID     `json:"id_deal_category"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      Flag   `json:"active"`
	DateAdd     string `json:"date_add,omitempty"`
	DateUpd     string `json:"date_upd,omitempty"`
	Files       *Files `json:"files,omitempty"`
}
