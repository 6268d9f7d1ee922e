package session

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/egor/citydeals-admin/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	c.Request = req
	return c, w
}

func TestGet_NoCookies(t *testing.T) {
	c, _ := newContext()
	s := NewServerCookies(c, Options{}).Get()
	if s.Token != "" || s.Admin != nil {
		t.Fatalf("Get() = %+v, want empty session", s)
	}
	if s.Authenticated() {
		t.Error("empty session must not be authenticated")
	}

	if got := DocumentCookies("").Get(); got.Token != "" || got.Admin != nil {
		t.Fatalf("DocumentCookies(\"\").Get() = %+v", got)
	}
}

func TestGet_BrokenAdminJSON(t *testing.T) {
	c, _ := newContext(
		&http.Cookie{Name: TokenCookie, Value: "tok"},
		&http.Cookie{Name: AdminCookie, Value: url.QueryEscape("{not json")},
	)
	s := NewServerCookies(c, Options{}).Get()
	if s.Token != "tok" {
		t.Errorf("Token = %q, want tok", s.Token)
	}
	if s.Admin != nil {
		t.Errorf("Admin = %+v, want nil", s.Admin)
	}
}

func TestPersistThenGet_RoundTrip(t *testing.T) {
	c, w := newContext()
	store := NewServerCookies(c, Options{TTL: DefaultTTL, Secure: true})
	admin := &models.Admin{ID: "1", Email: "a@b.com", Firstname: "Amel", Role: "superadmin"}

	if err := store.Persist(Session{Token: "abc.def", Admin: admin}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	got := store.Get()
	if got.Token != "abc.def" {
		t.Errorf("Token = %q", got.Token)
	}
	if got.Admin == nil || *got.Admin != *admin {
		t.Errorf("Admin = %+v, want %+v", got.Admin, admin)
	}

	resp := http.Response{Header: w.Header()}
	cookies := map[string]*http.Cookie{}
	for _, ck := range resp.Cookies() {
		cookies[ck.Name] = ck
	}
	token, ok := cookies[TokenCookie]
	if !ok {
		t.Fatal("token cookie not written")
	}
	if !token.HttpOnly || !token.Secure || token.Path != "/" || token.MaxAge != int(DefaultTTL.Seconds()) {
		t.Errorf("token cookie = %+v", token)
	}
	if token.SameSite != http.SameSiteLaxMode {
		t.Errorf("token SameSite = %v", token.SameSite)
	}
	profile, ok := cookies[AdminCookie]
	if !ok {
		t.Fatal("admin cookie not written")
	}
	if profile.HttpOnly {
		t.Error("admin cookie must be readable by scripts")
	}

	// тот же профиль глазами клиентского кода
	doc := DocumentCookies(AdminCookie + "=" + profile.Value + "; other=1")
	if client := doc.Get(); client.Admin == nil || client.Admin.Email != "a@b.com" || client.Token != "" {
		t.Errorf("client view = %+v", client)
	}
}

func TestPersist_SkipsEmptyParts(t *testing.T) {
	c, w := newContext()
	store := NewServerCookies(c, Options{})
	if err := store.Persist(Session{}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if h := w.Header().Values("Set-Cookie"); len(h) != 0 {
		t.Errorf("Set-Cookie = %v, want none", h)
	}
}

func TestDestroy(t *testing.T) {
	c, w := newContext(
		&http.Cookie{Name: TokenCookie, Value: "tok"},
		&http.Cookie{Name: AdminCookie, Value: url.QueryEscape(`{"email":"a@b.com"}`)},
	)
	store := NewServerCookies(c, Options{})
	if !store.Get().Authenticated() {
		t.Fatal("precondition: session expected")
	}
	if err := store.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if s := store.Get(); s.Token != "" || s.Admin != nil {
		t.Errorf("after Destroy Get() = %+v", s)
	}
	header := strings.Join(w.Header().Values("Set-Cookie"), "\n")
	for _, name := range []string{TokenCookie, AdminCookie} {
		if !strings.Contains(header, name+"=;") || !strings.Contains(header, "Max-Age=0") {
			t.Errorf("cookie %s not expired: %s", name, header)
		}
	}
}

func TestDocumentCookies(t *testing.T) {
	raw := "theme=dark; " + TokenCookie + "=a=b=c; " + AdminCookie + "=" + url.QueryEscape(`{"email":"x@y.tn","role":"admin"}`)
	s := DocumentCookies(raw).Get()
	if s.Token != "a=b=c" {
		t.Errorf("Token = %q, value after the first '=' expected", s.Token)
	}
	if s.Admin == nil || s.Admin.Role != "admin" {
		t.Errorf("Admin = %+v", s.Admin)
	}
}

func TestStatic(t *testing.T) {
	var r Reader = Static{Token: "t"}
	if r.Get().Token != "t" {
		t.Error("Static must return its token")
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sign := func(claims jwt.RegisteredClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"empty", "", false},
		{"opaque", "3f1c9a0e7b", false},
		{"no exp", sign(jwt.RegisteredClaims{Subject: "1"}), false},
		{"valid", sign(jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}), false},
		{"expired", sign(jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenExpired(tt.token, now); got != tt.want {
				t.Errorf("TokenExpired = %v, want %v", got, tt.want)
			}
		})
	}
}
