package login

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/config"
	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/identity"
	"github.com/vendahub/vendahub/internal/profile"
	"github.com/vendahub/vendahub/internal/roles"
	websess "github.com/vendahub/vendahub/internal/web/session"
)

// noOpViews is a minimal Fiber Views engine used for tests.
// It writes the "error" field from the provided fiber.Map (if any)
// so tests can assert error messages rendered by handlers.
type noOpViews struct{}

func (noOpViews) Load() error { return nil }

func (noOpViews) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	if m, ok := data.(fiber.Map); ok {
		if v, exists := m["error"]; exists && v != nil {
			_, _ = io.WriteString(w, v.(string))
			return nil
		}
	}
	// write template name to have some content
	_, _ = io.WriteString(w, name)

	return nil
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{Views: noOpViews{}})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Identity{}, &models.Profile{}, &models.Activity{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: false,
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
		Auth: config.Auth{
			LocalDB: config.LocalDBAuth{Enabled: true},
			OIDC:    config.OIDCAuth{Enabled: false},
		},
	}
}

func initHandler(t *testing.T, app *fiber.App, cfg *config.Config, db *gorm.DB) (*Service, *identity.LocalProvider) {
	t.Helper()

	websess.Init(websess.NewMemoryStorage())

	ids := identity.NewLocalProvider(db)
	roleService := roles.NewService(ids, profile.NewStore(db))

	var s Service
	if err := s.Init(app, cfg, db, ids, roleService); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	return &s, ids
}

func performPost(t *testing.T, app *fiber.App, target string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func TestPost_Success_SetsCookieAndRedirects(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.DevMode = false // Secure cookie expected

	app := newTestApp()
	_, ids := initHandler(t, app, cfg, db)

	if _, err := ids.CreateIdentity(context.Background(), "bob@example.com", "s3cr3t", "Bob"); err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}

	form := url.Values{
		"email":    {"bob@example.com"},
		"password": {"s3cr3t"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %s", loc)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, "session=") {
		t.Fatalf("expected session cookie, got %q", setCookie)
	}

	if !strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("expected Secure flag on cookie when DevMode=false, got %q", setCookie)
	}
}

func TestPost_Success_CreatesDefaultProfile(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()
	_, ids := initHandler(t, app, cfg, db)

	uid, err := ids.CreateIdentity(context.Background(), "carol@example.com", "pass", "Carol")
	if err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}

	form := url.Values{
		"email":    {"carol@example.com"},
		"password": {"pass"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	// a first login without a profile self-heals
	p, err := profile.NewStore(db).Get(context.Background(), uid)
	if err != nil {
		t.Fatalf("expected profile to exist after login: %v", err)
	}

	if string(p.Role) != "USER" || !p.IsActive {
		t.Fatalf("expected default active USER profile, got role=%s active=%v", p.Role, p.IsActive)
	}
}

func TestPost_DevModeDisablesSecure(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.DevMode = true // Secure=false expected

	app := newTestApp()
	_, ids := initHandler(t, app, cfg, db)

	if _, err := ids.CreateIdentity(context.Background(), "dana@example.com", "pass", "Dana"); err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}

	form := url.Values{
		"email":    {"dana@example.com"},
		"password": {"pass"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("did not expect Secure flag when DevMode=true, got %q", setCookie)
	}
}

func TestPost_WrongPassword_RendersError(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()
	_, ids := initHandler(t, app, cfg, db)

	if _, err := ids.CreateIdentity(context.Background(), "eve@example.com", "right", "Eve"); err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}

	form := url.Values{
		"email":    {"eve@example.com"},
		"password": {"wrong"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK on render error page, got %d", resp.StatusCode)
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(bodyBytes), "Invalid email or password") {
		t.Fatalf("expected error message in body, got %q", string(bodyBytes))
	}
}

func TestPost_InactiveIdentity_RendersError(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()
	_, ids := initHandler(t, app, cfg, db)

	uid, err := ids.CreateIdentity(context.Background(), "frank@example.com", "pass", "Frank")
	if err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}

	if err := db.Model(&models.Identity{}).Where("uid = ?", uid).Update("active", false).Error; err != nil {
		t.Fatalf("failed to deactivate identity: %v", err)
	}

	form := url.Values{
		"email":    {"frank@example.com"},
		"password": {"pass"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(bodyBytes), "Account is inactive") {
		t.Fatalf("expected inactive account error, got %q", string(bodyBytes))
	}
}
