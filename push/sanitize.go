package push

import (
	"regexp"
	"strings"
	"unicode"
)

// Ограничения текста уведомления (видимая часть на экране блокировки)
const (
	MaxTitleLength = 100
	MaxBodyLength  = 1000
)

var spaces = regexp.MustCompile(`[ \t]+`)

// Normalize чистит заголовок и текст: управляющие символы убираются,
// пробелы схлопываются, длина обрезается по рунам.
// В заголовке переводы строк заменяются пробелом, в тексте сохраняются.
func (n Notification) Normalize() Notification {
	n.Title = clean(strings.ReplaceAll(n.Title, "\n", " "), MaxTitleLength)
	n.Body = clean(n.Body, MaxBodyLength)
	n.Recipient = strings.ToLower(strings.TrimSpace(n.Recipient))
	n.City = strings.TrimSpace(n.City)
	return n
}

func clean(s string, limit int) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\r':
			return -1
		case unicode.IsControl(r):
			return ' '
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaces.ReplaceAllString(l, " "))
	}
	s = strings.TrimSpace(strings.Join(lines, "\n"))

	if r := []rune(s); len(r) > limit {
		s = strings.TrimSpace(string(r[:limit]))
	}
	return s
}
