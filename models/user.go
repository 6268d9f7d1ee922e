package models

// User представляет пользователя мобильного приложения
type User struct {
	ID        ID     `json:"id_user"`
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
	Active    Flag   `json:"active"`
	DateAdd   string `json:"date_add,omitempty"`
	DateUpd   string `json:"date_upd,omitempty"`
}

// Admin представляет профиль администратора, выданный бэкендом при входе.
// Хранится в обычной (не HttpOnly) cookie, поэтому пароль и токен сюда не попадают.
type Admin struct {
	ID        ID     `json:"id_admin,omitempty"`
	Email     string `json:"email"`
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
	Role      string `json:"role,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// DisplayName - имя для шапки дашборда
func (a *Admin) DisplayName() string {
	if a == nil {
		return ""
	}
	switch {
	case a.Firstname != "" && a.Lastname != "":
		return a.Firstname + " " + a.Lastname
	case a.Firstname != "":
		return a.Firstname
	default:
		return a.Email
	}
}
