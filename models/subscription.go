package models

// Subscription - оплаченный период компании
type Subscription struct {
	ID        ID     `json:"id_subscription"`
	CompanyID ID     `json:"id_company"`
	Amount    Amount `json:"amount"`
	Currency  string `json:"currency,omitempty"`
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Valid     Flag   `json:"valid"`
	DateAdd   string `json:"date_add,omitempty"`
}

// SubscriptionForm - значения модального окна оплаты.
// Даты здесь в формате поля ввода (до минуты), на бэкенд уходят через Values.
type SubscriptionForm struct {
	Amount    string `json:"amount"`
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Valid     string `json:"valid"`
}

// EmptySubscriptionForm - значения формы создания
func EmptySubscriptionForm() SubscriptionForm {
	return SubscriptionForm{Valid: "1"}
}

// FormFromSubscription заполняет форму редактирования из записи бэкенда.
func FormFromSubscription(s Subscription) SubscriptionForm {
	valid := "0"
	if s.Valid.On() {
		valid = "1"
	}
	return SubscriptionForm{
		Amount:    s.Amount.String(),
		DateStart: ToInputDateTime(s.DateStart),
		DateEnd:   ToInputDateTime(s.DateEnd),
		Valid:     valid,
	}
}

// Fields - поля multipart-запроса в формате бэкенда.
func (f SubscriptionForm) Fields(companyID ID) map[string]string {
	valid := f.Valid
	if valid != "1" {
		valid = "0"
	}
	return map[string]string{
		"id_company": companyID.String(),
		"amount":     f.Amount,
		"date_start": ToAPIDateTime(f.DateStart),
		"date_end":   ToAPIDateTime(f.DateEnd),
		"valid":      valid,
	}
}
