package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"attenddesk/internal/api"
	"attenddesk/internal/httpmiddleware"
	"attenddesk/internal/marker"
	"attenddesk/internal/session"
	"attenddesk/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// backend is a fake attendance API covering the endpoints the views hit.
type backend struct {
	registers   atomic.Int64
	rejectToken bool
}

func (b *backend) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = jsonDecode(r, &creds)
		switch {
		case creds.Email == "admin@x.com" && creds.Password == "admin123":
			fmt.Fprint(w, `{"token":"tok-admin","id":"u1","name":"Ada","email":"admin@x.com","role":"ADMIN"}`)
		case creds.Email == "user@x.com" && creds.Password == "user123":
			fmt.Fprint(w, `{"token":"tok-user","id":"u2","name":"Uma","email":"user@x.com","role":"USER"}`)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"invalid credentials"}`)
		}
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		b.registers.Add(1)
		fmt.Fprint(w, `{"id":"u9","name":"New","email":"new@x.com","role":"USER"}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if b.rejectToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"token expired"}`)
			return
		}
		switch {
		case r.URL.Path == "/users/u2":
			fmt.Fprint(w, `{"id":"u2","name":"Uma","email":"user@x.com","role":"USER"}`)
		case strings.HasSuffix(r.URL.Path, "/stats"):
			fmt.Fprint(w, `{"present":10,"absent":2,"total":12,"percentage":83.3}`)
		case strings.HasPrefix(r.URL.Path, "/attendance/"):
			fmt.Fprint(w, `[]`)
		case strings.HasPrefix(r.URL.Path, "/users"):
			fmt.Fprint(w, `[{"id":"u1","name":"Ada","email":"admin@x.com","role":"ADMIN"},{"id":"u2","name":"Uma","email":"user@x.com","role":"USER"}]`)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

type app struct {
	router *gin.Engine
	sess   *session.Store
	kv     store.KV
}

func newApp(t *testing.T, b *backend) *app {
	t.Helper()
	return newAppLimited(t, b, func(c *gin.Context) { c.Next() })
}

func newAppLimited(t *testing.T, b *backend, loginLimit gin.HandlerFunc) *app {
	t.Helper()
	srv := b.serve(t)

	kv := store.NewFileKV(filepath.Join(t.TempDir(), "session.json"))
	client := api.New(srv.URL, 2*time.Second, false)
	sess := session.New(kv, client)
	client.Tokens = sess.Token

	tmpl := template.Must(template.ParseGlob(filepath.Join("..", "..", "web", "templates", "*.tmpl")))
	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	d := marker.NewDispatcher(marker.NewInMemory(8), client, 2)
	New(sess, client, d).Register(r, loginLimit)
	return &app{router: r, sess: sess, kv: kv}
}

func (a *app) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	a.router.ServeHTTP(w, req)
	return w
}

func (a *app) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (a *app) login(t *testing.T, email, password string) {
	t.Helper()
	w := a.postForm("/login", url.Values{"email": {email}, "password": {password}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("login code = %d, body: %s", w.Code, w.Body.String())
	}
}

func TestLoginRedirectsByRole(t *testing.T) {
	a := newApp(t, &backend{})
	w := a.postForm("/login", url.Values{"email": {"admin@x.com"}, "password": {"admin123"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/admin" {
		t.Errorf("admin login: code=%d loc=%q", w.Code, w.Header().Get("Location"))
	}

	b := newApp(t, &backend{})
	w = b.postForm("/login", url.Values{"email": {"user@x.com"}, "password": {"user123"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/dashboard" {
		t.Errorf("user login: code=%d loc=%q", w.Code, w.Header().Get("Location"))
	}
}

func TestLoginFailureShowsBackendMessage(t *testing.T) {
	a := newApp(t, &backend{})
	w := a.postForm("/login", url.Values{"email": {"admin@x.com"}, "password": {"nope"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid credentials") {
		t.Error("backend message not rendered inline")
	}
	if a.sess.Authenticated() {
		t.Error("session created on failed login")
	}
}

func TestSignupPasswordMismatchStaysLocal(t *testing.T) {
	b := &backend{}
	a := newApp(t, b)
	w := a.postForm("/signup", url.Values{
		"name":             {"New"},
		"email":            {"new@x.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret2"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Passwords do not match") {
		t.Error("mismatch message not rendered")
	}
	if b.registers.Load() != 0 {
		t.Error("register request sent despite local validation failure")
	}
}

func TestSignupSuccessRedirectsToLogin(t *testing.T) {
	b := &backend{}
	a := newApp(t, b)
	w := a.postForm("/signup", url.Values{
		"name":             {"New"},
		"email":            {"new@x.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})
	if w.Code != http.StatusSeeOther || !strings.HasPrefix(w.Header().Get("Location"), "/login") {
		t.Fatalf("code=%d loc=%q", w.Code, w.Header().Get("Location"))
	}
	if b.registers.Load() != 1 {
		t.Errorf("registers = %d, want 1", b.registers.Load())
	}
}

func TestLogoutClearsStorageKeys(t *testing.T) {
	a := newApp(t, &backend{})
	a.login(t, "user@x.com", "user123")

	w := a.postForm("/logout", url.Values{})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("logout: code=%d loc=%q", w.Code, w.Header().Get("Location"))
	}

	ctx := context.Background()
	if _, err := a.kv.Get(ctx, "token"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("token key survived logout: %v", err)
	}
	if _, err := a.kv.Get(ctx, "user"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("user key survived logout: %v", err)
	}
	if w := a.get("/dashboard"); w.Code != http.StatusSeeOther {
		t.Errorf("dashboard after logout: code = %d, want redirect", w.Code)
	}
}

func TestBackendRejectionInvalidatesSession(t *testing.T) {
	b := &backend{}
	a := newApp(t, b)
	a.login(t, "user@x.com", "user123")

	b.rejectToken = true
	w := a.get("/dashboard")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("code=%d loc=%q", w.Code, w.Header().Get("Location"))
	}
	if a.sess.Authenticated() {
		t.Error("session survived a backend 401")
	}
}

func TestLoginLimiterThrottlesLoginFormOnly(t *testing.T) {
	a := newAppLimited(t, &backend{}, httpmiddleware.NewPerMinute(1).ByClientIP())

	creds := url.Values{"email": {"admin@x.com"}, "password": {"admin123"}}
	w := a.postForm("/login", creds)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("first login code = %d", w.Code)
	}
	w = a.postForm("/login", creds)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second login code = %d, want 429", w.Code)
	}
	// Only the login form carries the tighter budget.
	if w := a.get("/login"); w.Code != http.StatusOK {
		t.Errorf("GET /login code = %d, want 200", w.Code)
	}
}

func TestEditFormRoleIsReadOnly(t *testing.T) {
	a := newApp(t, &backend{})
	a.login(t, "admin@x.com", "admin123")

	w := a.get("/admin/edit-user/u2")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "<select disabled>") {
		t.Error("role selector editable in edit mode")
	}
	if !strings.Contains(body, `name="role" value="USER"`) {
		t.Error("current role not carried through the form")
	}

	if w := a.get("/admin/add-user"); !strings.Contains(w.Body.String(), `<select name="role">`) {
		t.Error("role selector missing from add mode")
	}
}

func TestAdminUsersRendersList(t *testing.T) {
	a := newApp(t, &backend{})
	a.login(t, "admin@x.com", "admin123")

	w := a.get("/admin/users")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "user@x.com") {
		t.Error("user rows missing from admin list")
	}
}

func TestAdminRouteRedirectsNonAdmin(t *testing.T) {
	a := newApp(t, &backend{})
	a.login(t, "user@x.com", "user123")

	w := a.get("/admin/users")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("code=%d loc=%q", w.Code, w.Header().Get("Location"))
	}
}
