package push

// Получатели рассылки
const (
	RecipientGuests    = "guests"
	RecipientUsers     = "users"
	RecipientCompanies = "companies"
)

// AllCities - рассылка без фильтра по городу
const AllCities = "all"

// Cities - 24 губернаторства Туниса, как в форме рассылки.
var Cities = []string{
	"Ariana", "Béja", "Ben Arous", "Bizerte", "Gabès", "Gafsa",
	"Jendouba", "Kairouan", "Kasserine", "Kébili", "Le Kef", "Mahdia",
	"La Manouba", "Médenine", "Monastir", "Nabeul", "Sfax", "Sidi Bouzid",
	"Siliana", "Sousse", "Tataouine", "Tozeur", "Tunis", "Zaghouan",
}

// ValidRecipient проверяет получателя.
func ValidRecipient(r string) bool {
	switch r {
	case RecipientGuests, RecipientUsers, RecipientCompanies:
		return true
	}
	return false
}

// ValidCity принимает "all" или одно из губернаторств.
func ValidCity(city string) bool {
	if city == AllCities {
		return true
	}
	for _, c := range Cities {
		if c == city {
			return true
		}
	}
	return false
}

// Notification - рассылка, созданная администратором.
type Notification struct {
	Title     string `json:"title" form:"title"`
	Body      string `json:"body" form:"body"`
	Recipient string `json:"recipient" form:"recipient"`
	City      string `json:"city" form:"city"`

	// RequestedBy - email администратора, для журнала
	RequestedBy string `json:"-" form:"-"`
}

// Messages строит по сообщению на каждый валидный токен.
// Невалидные и повторяющиеся токены отбрасываются.
func (n Notification) Messages(tokens []string) []Message {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]Message, 0, len(tokens))
	for _, tok := range tokens {
		if !IsExpoPushToken(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, Message{To: tok, Title: n.Title, Body: n.Body, Sound: "default"})
	}
	return out
}
