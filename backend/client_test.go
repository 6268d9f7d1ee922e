package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/egor/citydeals-admin/models"
	"github.com/egor/citydeals-admin/session"
)

// fakeAPI поднимает тестовый бэкенд и клиента с токеном "tok".
func fakeAPI(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/", 5*time.Second).WithSession(session.Static{Token: "tok"})
	return c, &calls
}

func TestClient_Headers(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Cache-Control"); got != "no-cache" {
			t.Errorf("Cache-Control = %q", got)
		}
		if r.URL.Path != "/companies" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.RawQuery; got != "direction=DESC&sort=name" {
			t.Errorf("query = %q, empty q must be omitted", got)
		}
		io.WriteString(w, `{"companies":[{"id_company":1,"name":"Café","active":"1"}],"pagination":{"items":{"nb_items":12}}}`)
	})

	list, err := c.Companies(context.Background(), ListQuery{Sort: "name", Direction: "DESC"})
	if err != nil {
		t.Fatalf("Companies: %v", err)
	}
	if len(list.Companies) != 1 || list.Companies[0].ID != "1" || !list.Companies[0].Active.On() {
		t.Errorf("companies = %+v", list.Companies)
	}
	if list.Pagination.TotalOr(0) != 12 {
		t.Errorf("total = %d", list.Pagination.TotalOr(0))
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("Authorization must be absent without a session")
		}
		io.WriteString(w, `{"users":[]}`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, time.Second).Users(context.Background(), ListQuery{}); err != nil {
		t.Fatalf("Users: %v", err)
	}
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"backend message", http.StatusUnprocessableEntity, `{"message":"Nom déjà utilisé"}`, "Nom déjà utilisé"},
		{"fallback on empty body", http.StatusInternalServerError, ``, "Impossible de supprimer la catégorie."},
		{"fallback on html", http.StatusBadGateway, `<html>oops</html>`, "Impossible de supprimer la catégorie."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.DeleteDealCategory(context.Background(), "4")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.want {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestClient_EmptyBodyIsSuccess(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/company-category/9" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	res, err := c.DeleteCompanyCategory(context.Background(), "9")
	if err != nil || !res.Success {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base, time.Second).Deals(context.Background(), ListQuery{})
	if err == nil {
		t.Fatal("expected transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport failure must not be an APIError: %v", err)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"ok", 200, `{"success":true,"token":"jwt","admin":{"id_admin":3,"email":"a@b.com"}}`, ""},
		{"wrong password", 401, `{"success":false}`, "Identifiants incorrects."},
		{"success false with 200", 200, `{"success":false,"message":"Compte bloqué"}`, "Compte bloqué"},
		{"custom message", 403, `{"message":"Accès refusé"}`, "Accès refusé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/admin/login" || r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Content-Type"))
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			res, err := c.Login(context.Background(), "a@b.com", "secret")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Login: %v", err)
				}
				if res.Token != "jwt" || res.Admin == nil || res.Admin.ID != "3" {
					t.Errorf("res = %+v", res)
				}
				return
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Message != tt.wantErr {
				t.Errorf("err = %v, want message %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateDealCategory_WithoutFile(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/deal-category" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if got := r.MultipartForm.Value["name"]; len(got) != 1 || got[0] != "Restaurants" {
			t.Errorf("name = %v", got)
		}
		if got := r.MultipartForm.Value["active"]; len(got) != 1 || got[0] != "1" {
			t.Errorf("active = %v", got)
		}
		if _, ok := r.MultipartForm.Value["description"]; ok {
			t.Error("empty description must not be sent")
		}
		if len(r.MultipartForm.File) != 0 {
			t.Errorf("files = %v, want none", r.MultipartForm.File)
		}
		io.WriteString(w, `{"success":true,"message":"ok"}`)
	})

	empty := &Upload{Filename: "empty.png", Size: 0, Open: func() (io.ReadCloser, error) {
		t.Error("empty upload must not be opened")
		return io.NopCloser(strings.NewReader("")), nil
	}}
	res, err := c.CreateDealCategory(context.Background(), CategoryInput{Name: "Restaurants", Cover: empty})
	if err != nil || !res.Success {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
}

func TestUpdateCompanyCategory_WithFile(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/company-category/5" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if _, ok := r.MultipartForm.Value["name"]; ok {
			t.Error("empty name must not be sent on update")
		}
		if _, ok := r.MultipartForm.Value["active"]; ok {
			t.Error("update must not touch active")
		}
		fh := r.MultipartForm.File["file_cover"]
		if len(fh) != 1 || fh[0].Filename != "cover.jpg" {
			t.Errorf("file_cover = %v", fh)
			return
		}
		f, _ := fh[0].Open()
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "JPEGDATA" {
			t.Errorf("file content = %q", data)
		}
	})

	cover := &Upload{Filename: "cover.jpg", Size: 8, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("JPEGDATA")), nil
	}}
	if _, err := c.UpdateCompanyCategory(context.Background(), "5", CategoryInput{Description: "Cafés", Cover: cover}); err != nil {
		t.Fatalf("UpdateCompanyCategory: %v", err)
	}
}

func TestToggleUser(t *testing.T) {
	c, calls := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/7/deactivate":
			io.WriteString(w, `{"success":true}`)
		case "/user/8/activate":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	if _, err := c.ToggleUser(ctx, "7", true); err != nil {
		t.Errorf("deactivate: %v", err)
	}

	_, err := c.ToggleUser(ctx, "8", false)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Impossible d'activer l'utilisateur." {
		t.Errorf("activate err = %v", err)
	}

	before := atomic.LoadInt32(calls)
	_, err = c.ToggleUser(ctx, "", true)
	if !errors.Is(err, ErrMissingID) || err.Error() != "Identifiant utilisateur manquant." {
		t.Errorf("empty id err = %v", err)
	}
	if atomic.LoadInt32(calls) != before {
		t.Error("empty id must not reach the network")
	}
}

func TestToggleCompany_Messages(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.ToggleCompany(context.Background(), "3", true)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Impossible de désactiver l'entreprise." {
		t.Errorf("err = %v", err)
	}
}

func TestCompany_WrappedOrBare(t *testing.T) {
	for _, body := range []string{
		`{"company":{"id_company":5,"name":"Zitouna"}}`,
		`{"id_company":5,"name":"Zitouna"}`,
	} {
		c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})
		company, err := c.Company(context.Background(), "5")
		if err != nil {
			t.Fatalf("Company(%s): %v", body, err)
		}
		if company.ID != "5" || company.Name != "Zitouna" {
			t.Errorf("company = %+v", company)
		}
	}

	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})
	_, err := c.Company(context.Background(), "5")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("empty company err = %v", err)
	}
}

func TestCompanyCategories_LegacyKey(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"deal_categories":[{"id_company_category":1,"name":"Hôtels"}]}`)
	})
	list, err := c.CompanyCategories(context.Background(), ListQuery{Sort: "name"})
	if err != nil {
		t.Fatalf("CompanyCategories: %v", err)
	}
	if items := list.Items(); len(items) != 1 || items[0].Name != "Hôtels" {
		t.Errorf("items = %+v", items)
	}
}

func TestSubscriptions(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			if r.URL.Query().Get("id_company") != "42" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			io.WriteString(w, `{"success":true}`)
		case r.Method == http.MethodPost:
			r.ParseMultipartForm(1 << 20)
			if r.FormValue("date_start") != "2025-01-01 08:00:00" || r.FormValue("id_company") != "42" {
				t.Errorf("form = %v", r.MultipartForm.Value)
			}
			io.WriteString(w, `{"success":true,"message":"Paiement ajouté"}`)
		}
	})
	ctx := context.Background()

	list, err := c.Subscriptions(ctx, "42")
	if err != nil {
		t.Fatalf("Subscriptions: %v", err)
	}
	if list.Subscriptions == nil || len(list.Subscriptions) != 0 {
		t.Errorf("subscriptions = %#v, want empty non-nil", list.Subscriptions)
	}

	form := models.SubscriptionForm{Amount: "100", DateStart: "2025-01-01T08:00", DateEnd: "2025-02-01T08:00", Valid: "1"}
	res, err := c.CreateSubscription(ctx, form.Fields("42"))
	if err != nil || res.Message != "Paiement ajouté" {
		t.Errorf("CreateSubscription = %+v, %v", res, err)
	}

	if _, err := c.CreateSubscription(ctx, map[string]string{"amount": "1"}); !errors.Is(err, ErrMissingID) {
		t.Errorf("missing company err = %v", err)
	}
}

func TestPushTokens_AllCitiesOmitted(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "recipient=users" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		io.WriteString(w, `{"tokens":["ExponentPushToken[abc]"]}`)
	})
	tokens, err := c.PushTokens(context.Background(), "users", "all")
	if err != nil || len(tokens) != 1 {
		t.Errorf("tokens = %v, err = %v", tokens, err)
	}
}
