package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/config"
	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/identity"
	"github.com/vendahub/vendahub/internal/profile"
	"github.com/vendahub/vendahub/internal/rbac"
	"github.com/vendahub/vendahub/internal/roles"
	"github.com/vendahub/vendahub/internal/web/middleware/auth"
	websess "github.com/vendahub/vendahub/internal/web/session"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	ids      *identity.LocalProvider
	roles    *roles.Service
	profiles *profile.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Identity{}, &models.Profile{}, &models.Activity{}))

	websess.Init(websess.NewMemoryStorage())

	cfg := &config.Config{
		Webserver: config.Webserver{
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}

	app := fiber.New()
	app.Use(auth.Middleware)

	ids := identity.NewLocalProvider(db)
	profiles := profile.NewStore(db)
	roleService := roles.NewService(ids, profiles)

	var s Service
	s.Init(app, cfg, db, roleService, profiles)

	return &testEnv{app: app, db: db, ids: ids, roles: roleService, profiles: profiles}
}

// newSession issues a session whose role snapshot is the identity's claim at
// call time, the way login does.
func (e *testEnv) newSession(t *testing.T, role rbac.Role) string {
	t.Helper()

	sessionID, err := websess.GenerateSessionID()
	require.NoError(t, err)

	data := &websess.Data{
		UID:      "session-" + sessionID[:8],
		Email:    "caller@example.com",
		Role:     role,
		IssuedAt: time.Now(),
	}
	require.NoError(t, data.Write(sessionID, time.Minute))

	return sessionID
}

func (e *testEnv) request(t *testing.T, method, target, sessionID, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: sessionID})
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()

	var out struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out.Error.Code
}

func TestUpdateRole_SuperAdminSucceeds(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	uid, err := e.ids.CreateIdentity(ctx, "target@example.com", "password", "Target")
	require.NoError(t, err)
	require.NoError(t, e.roles.AssignDefault(ctx, identity.NewIdentity{UID: uid, Email: "target@example.com"}))

	sid := e.newSession(t, rbac.RoleSuperAdmin)

	resp := e.request(t, http.MethodPost, Path+"/"+uid+"/role", sid, `{"role":"USER_VENDEDOR"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	role, err := e.ids.Claims(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUserVendedor, role)

	p, err := e.profiles.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUserVendedor, p.Role)
}

func TestUpdateRole_NonAdminDenied(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	uid, err := e.ids.CreateIdentity(ctx, "target@example.com", "password", "Target")
	require.NoError(t, err)
	require.NoError(t, e.roles.AssignDefault(ctx, identity.NewIdentity{UID: uid, Email: "target@example.com"}))

	for _, role := range []rbac.Role{rbac.RoleAdminOperacional, rbac.RoleUserVendedor, rbac.RoleUser} {
		sid := e.newSession(t, role)

		resp := e.request(t, http.MethodPost, Path+"/"+uid+"/role", sid, `{"role":"USER_VENDEDOR"}`)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "caller %s", role)
		assert.Equal(t, "permission-denied", decodeError(t, resp))
		_ = resp.Body.Close()
	}

	// denial happened before any store write
	claim, err := e.ids.Claims(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUser, claim)
}

func TestUpdateRole_NoSessionDenied(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, http.MethodPost, Path+"/some-uid/role", "", `{"role":"USER_VENDEDOR"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateRole_InvalidRole(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	uid, err := e.ids.CreateIdentity(ctx, "target@example.com", "password", "Target")
	require.NoError(t, err)

	sid := e.newSession(t, rbac.RoleSuperAdmin)

	resp := e.request(t, http.MethodPost, Path+"/"+uid+"/role", sid, `{"role":"MANAGER"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid-argument", decodeError(t, resp))
}

func TestUpdateRole_UserRoleRejected(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	uid, err := e.ids.CreateIdentity(ctx, "target@example.com", "password", "Target")
	require.NoError(t, err)

	sid := e.newSession(t, rbac.RoleSuperAdmin)

	resp := e.request(t, http.MethodPost, Path+"/"+uid+"/role", sid, `{"role":"USER"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateRole_UnknownTarget(t *testing.T) {
	e := newTestEnv(t)

	sid := e.newSession(t, rbac.RoleSuperAdmin)

	resp := e.request(t, http.MethodPost, Path+"/no-such-uid/role", sid, `{"role":"USER_SDR"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not-found", decodeError(t, resp))
}

func TestUpdateRole_CallerRoleComesFromSessionNotBody(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	uid, err := e.ids.CreateIdentity(ctx, "target@example.com", "password", "Target")
	require.NoError(t, err)
	require.NoError(t, e.roles.AssignDefault(ctx, identity.NewIdentity{UID: uid, Email: "target@example.com"}))

	sid := e.newSession(t, rbac.RoleUser)

	// a forged caller role in the body must be ignored
	resp := e.request(t, http.MethodPost, Path+"/"+uid+"/role", sid,
		`{"role":"USER_VENDEDOR","callerRole":"SUPER_ADMIN"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreate_SuperAdminSucceeds(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	sid := e.newSession(t, rbac.RoleSuperAdmin)

	resp := e.request(t, http.MethodPost, Path, sid,
		`{"email":"new@example.com","password":"longenough","displayName":"New User","role":"USER_SDR"}`)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		UID string `json:"uid"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.UID)

	role, err := e.ids.Claims(ctx, out.UID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUserSDR, role)

	p, err := e.profiles.Get(ctx, out.UID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUserSDR, p.Role)
	assert.True(t, p.IsActive)
}

func TestCreate_DefaultsToUser(t *testing.T) {
	e := newTestEnv(t)

	sid := e.newSession(t, rbac.RoleSuperAdmin)

	resp := e.request(t, http.MethodPost, Path, sid,
		`{"email":"plain@example.com","password":"longenough","displayName":"Plain"}`)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		UID string `json:"uid"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	role, err := e.ids.Claims(context.Background(), out.UID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUser, role)
}

func TestCreate_NonAdminDenied(t *testing.T) {
	e := newTestEnv(t)

	sid := e.newSession(t, rbac.RoleAdminGamificacao)

	resp := e.request(t, http.MethodPost, Path, sid,
		`{"email":"x@example.com","password":"longenough","role":"USER"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreate_InvalidBody(t *testing.T) {
	e := newTestEnv(t)

	sid := e.newSession(t, rbac.RoleSuperAdmin)

	// missing password
	resp := e.request(t, http.MethodPost, Path, sid, `{"email":"x@example.com"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestList_SuperAdminOnly(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	uid, err := e.ids.CreateIdentity(ctx, "member@example.com", "password", "Member")
	require.NoError(t, err)
	require.NoError(t, e.roles.AssignDefault(ctx, identity.NewIdentity{UID: uid, Email: "member@example.com"}))

	adminSID := e.newSession(t, rbac.RoleSuperAdmin)
	userSID := e.newSession(t, rbac.RoleUserSDR)

	resp := e.request(t, http.MethodGet, Path, adminSID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Users      []models.Profile `json:"users"`
		TotalItems int64            `json:"totalItems"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()
	assert.Equal(t, int64(1), out.TotalItems)
	require.Len(t, out.Users, 1)
	assert.Equal(t, uid, out.Users[0].UID)

	resp = e.request(t, http.MethodGet, Path, userSID, "")
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
