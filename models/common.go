package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// APIDateTimeLayout - формат дат, которым обменивается бэкенд ("2006-01-02 15:04:05").
const APIDateTimeLayout = "2006-01-02 15:04:05"

// InputDateTimeLayout - формат поля datetime-local (точность до минуты).
const InputDateTimeLayout = "2006-01-02T15:04"

// ID - идентификатор сущности. Бэкенд отдаёт его числом, формы шлют строкой.
type ID string

// UnmarshalJSON принимает и число, и строку.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*id = ""
		return nil
	}
	*id = ID(strings.Trim(string(data), `"`))
	return nil
}

// String реализует fmt.Stringer.
func (id ID) String() string { return string(id) }

// Flag - признак 0/1, который бэкенд присылает то числом, то строкой, то bool.
type Flag int

// UnmarshalJSON принимает 1, "1", true, null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", `""`:
		*f = 0
		return nil
	case "true":
		*f = 1
		return nil
	case "false":
		*f = 0
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("flag: unexpected value %s", data)
	}
	if n != 0 {
		n = 1
	}
	*f = Flag(n)
	return nil
}

// On сообщает, что флаг установлен.
func (f Flag) On() bool { return f == 1 }

// FlagOf переводит bool в Flag.
func FlagOf(b bool) Flag {
	if b {
		return 1
	}
	return 0
}

// Amount - денежная сумма. Бэкенд присылает её числом или строкой,
// хранится как текст без изменений.
type Amount string

// UnmarshalJSON принимает 120.5, "120.50", null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("amount: unexpected value %s", data)
	}
	*a = Amount(data)
	return nil
}

// String реализует fmt.Stringer.
func (a Amount) String() string { return string(a) }

// Float - сумма числом; ok=false, если текст не число.
func (a Amount) Float() (v float64, ok bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(string(a), ",", "."), 64)
	return v, err == nil
}

// emptyObject сообщает, что вместо объекта пришёл null или массив.
// PHP-бэкенд сериализует пустой ассоциативный массив как [].
func emptyObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || string(data) == "null" || data[0] == '['
}

// FileRef - файл на стороне бэкенда (обложка, логотип)
type FileRef struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Files - вложенные файлы сущности
type Files struct {
	Cover *FileRef `json:"cover,omitempty"`
	Logo  *FileRef `json:"logo,omitempty"`
}

// UnmarshalJSON допускает [] вместо объекта.
func (f *Files) UnmarshalJSON(data []byte) error {
	if emptyObject(data) {
		*f = Files{}
		return nil
	}
	type plain Files
	return json.Unmarshal(data, (*plain)(f))
}

// CoverURL возвращает URL обложки или пустую строку.
func (f *Files) CoverURL() string {
	if f == nil || f.Cover == nil {
		return ""
	}
	return f.Cover.URL
}

// LogoURL возвращает URL логотипа или пустую строку.
func (f *Files) LogoURL() string {
	if f == nil || f.Logo == nil {
		return ""
	}
	return f.Logo.URL
}

// Pagination - метаданные списка. Постранично списки не грузятся, используется
// только для счётчиков.
type Pagination struct {
	Items struct {
		NbItems int `json:"nb_items"`
	} `json:"items"`
	Pages struct {
		NbPages int `json:"nb_pages"`
	} `json:"pages"`
}

// TotalOr возвращает nb_items или fallback, если пагинации нет.
func (p *Pagination) TotalOr(fallback int) int {
	if p == nil {
		return fallback
	}
	return p.Items.NbItems
}

// ActionResult - ответ server action / route handler
type ActionResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// ParseAPIDateTime разбирает дату бэкенда; допускает и вариант с "T".
func ParseAPIDateTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	value = strings.Replace(value, "T", " ", 1)
	for _, layout := range []string{APIDateTimeLayout, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToInputDateTime "2025-01-02 10:30:00" → "2025-01-02T10:30".
// Значение короче минутной точности возвращается как есть (с заменой пробела).
func ToInputDateTime(value string) string {
	if value == "" {
		return ""
	}
	withT := strings.Replace(value, " ", "T", 1)
	if len(withT) >= 16 {
		return withT[:16]
	}
	return withT
}

// ToAPIDateTime "2025-01-02T10:30" → "2025-01-02 10:30:00".
func ToAPIDateTime(value string) string {
	if value == "" {
		return ""
	}
	datePart, timePart, ok := strings.Cut(value, "T")
	if !ok {
		return value
	}
	if len(timePart) == 5 {
		timePart += ":00"
	}
	return datePart + " " + timePart
}
