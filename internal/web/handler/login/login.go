package login

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/config"
	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/identity"
	"github.com/vendahub/vendahub/internal/roles"
	"github.com/vendahub/vendahub/internal/web/handler"
	"github.com/vendahub/vendahub/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	ids   *identity.LocalProvider
	ldap  *identity.LDAPProvider
	roles *roles.Service
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, ids *identity.LocalProvider, roleService *roles.Service) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app or db is nil")
	}

	s.db = db
	s.cfg = cfg
	s.ids = ids
	s.roles = roleService

	if cfg.Auth.LDAP.Enabled {
		ldapConfig := identity.LDAPConfig{
			Enabled:         cfg.Auth.LDAP.Enabled,
			Host:            cfg.Auth.LDAP.Host,
			Port:            cfg.Auth.LDAP.Port,
			UseSSL:          cfg.Auth.LDAP.UseSSL,
			UseTLS:          cfg.Auth.LDAP.UseTLS,
			SkipVerify:      cfg.Auth.LDAP.SkipVerify,
			BindDN:          cfg.Auth.LDAP.BindDN,
			BindPassword:    cfg.Auth.LDAP.BindPassword,
			BaseDN:          cfg.Auth.LDAP.BaseDN,
			UserFilter:      cfg.Auth.LDAP.UserFilter,
			EmailAttr:       cfg.Auth.LDAP.EmailAttr,
			DisplayNameAttr: cfg.Auth.LDAP.DisplayNameAttr,
			Timeout:         cfg.Auth.LDAP.Timeout,
		}

		ldapProvider, err := identity.NewLDAPProvider(&ldapConfig, db)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize LDAP provider - LDAP authentication will be disabled")
		} else {
			s.ldap = ldapProvider

			log.Info().Msg("LDAP authentication provider initialized")
		}
	}

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{
		"local_db_enabled": s.cfg.Auth.LocalDB.Enabled,
		"oidc_enabled":     s.cfg.Auth.OIDC.Enabled,
	})
}

// Post handles the login form submission. On success the current role claim
// is snapshotted into the session record; later role changes do not touch
// open sessions until logout or an explicit refresh.
func (s *Service) Post(c *fiber.Ctx) error {
	var in struct {
		Email    string `form:"email"`
		Password string `form:"password"`
		TOTPCode string `form:"totp_code"`
	}

	if err := c.BodyParser(&in); err != nil {
		return err
	}

	ident, err := s.ids.Authenticate(c.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrIdentityDisabled) {
			return s.renderError(c, "Account is inactive")
		}

		// fall back to the directory for logins unknown to the local store
		ident, err = s.ldapAuthenticate(c.Context(), in.Email, in.Password)
		if err != nil {
			return s.renderError(c, "Invalid email or password")
		}
	}

	if err = s.ids.VerifySecondFactor(ident, in.TOTPCode); err != nil {
		return s.renderError(c, "Invalid verification code")
	}

	// self-heal: a missing profile is created mirroring the claim here
	if _, err = s.roles.EnsureProfile(c.Context(), ident.UID, ident.Email, ident.DisplayName); err != nil {
		log.Error().Err(err).Str("uid", ident.UID).Msg("failed to ensure profile at login")
		return s.renderError(c, "Internal server error")
	}

	role, err := s.ids.Claims(c.Context(), ident.UID)
	if err != nil {
		log.Error().Err(err).Str("uid", ident.UID).Msg("failed to read role claim at login")
		return s.renderError(c, "Internal server error")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return s.renderError(c, "Internal server error")
	}

	userSession := &session.Data{
		UID:         ident.UID,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		Role:        role,
		IssuedAt:    time.Now(),
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return s.renderError(c, "Internal server error")
	}

	// set login cookie
	cookieSettings := &fiber.Cookie{
		Name:     handler.SessionCookie,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax", // TODO: make this configurable
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	return c.Redirect("/dashboard")
}

// ldapAuthenticate verifies the login against the directory. First-time
// directory logins mirror a local identity and go through the default role
// assignment flow, the same way first OIDC logins do.
func (s *Service) ldapAuthenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	if s.ldap == nil {
		return nil, identity.ErrIdentityNotFound
	}

	ident, created, err := s.ldap.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if created {
		newIdent := identity.NewIdentity{
			UID:         ident.UID,
			Email:       ident.Email,
			DisplayName: ident.DisplayName,
		}

		if err := s.roles.AssignDefault(ctx, newIdent); err != nil {
			return nil, err
		}
	}

	return ident, nil
}

func (s *Service) renderError(c *fiber.Ctx, message string) error {
	return c.Render("login", fiber.Map{
		"local_db_enabled": s.cfg.Auth.LocalDB.Enabled,
		"oidc_enabled":     s.cfg.Auth.OIDC.Enabled,
		"error":            message,
	})
}
