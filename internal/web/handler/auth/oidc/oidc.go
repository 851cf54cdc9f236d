package oidc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/config"
	"github.com/vendahub/vendahub/internal/identity"
	"github.com/vendahub/vendahub/internal/roles"
	"github.com/vendahub/vendahub/internal/web/handler"
	"github.com/vendahub/vendahub/internal/web/handler/dashboard"
	"github.com/vendahub/vendahub/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	stateTTL = 5 * time.Minute
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg          *config.Config
	db           *gorm.DB
	oidcProvider *identity.OIDCProvider
	ids          *identity.LocalProvider
	roles        *roles.Service

	// Simple in-memory state store (use Redis in production). Written by
	// request handlers and swept by the cleanup goroutine, so every access
	// goes through the mutex.
	stateMu    sync.Mutex
	stateStore map[string]time.Time
}

// Handler is the OIDC handler.
var Handler = Service{
	stateStore: make(map[string]time.Time),
}

// Init initializes the OIDC handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, ids *identity.LocalProvider, roleService *roles.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.ids = ids
	s.roles = roleService

	if !cfg.Auth.OIDC.Enabled {
		return
	}

	oidcConfig := identity.OIDCConfig{
		Enabled:      cfg.Auth.OIDC.Enabled,
		ProviderURL:  cfg.Auth.OIDC.ProviderURL,
		ClientID:     cfg.Auth.OIDC.ClientID,
		ClientSecret: cfg.Auth.OIDC.ClientSecret,
		RedirectURL:  cfg.Auth.OIDC.RedirectURL,
		Scopes:       cfg.Auth.OIDC.Scopes,
	}

	ctx := context.Background()

	oidcProvider, err := identity.NewOIDCProvider(ctx, &oidcConfig, db)
	if err != nil {
		if errors.Is(err, identity.ErrOIDCDisabled) {
			log.Info().Msg("OIDC authentication is disabled by configuration")
		} else {
			log.Warn().Err(err).Msg("Failed to initialize OIDC provider - OIDC authentication will be disabled")
		}

		return // Don't fail, just disable OIDC
	}

	s.oidcProvider = oidcProvider

	log.Info().Msg("OIDC authentication provider initialized")

	// Register routes
	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)

	// Start state cleanup goroutine
	go s.cleanupStates()
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	if s.oidcProvider == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("OIDC authentication is not available")
	}

	// Generate state token for CSRF protection
	state, err := identity.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate state token")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	s.addState(state)

	return c.Redirect(s.oidcProvider.GetAuthURL(state))
}

// Callback handles the OIDC callback. First-time logins run the default
// role assignment flow before the session is issued, so the session always
// carries a resolved claim snapshot.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.oidcProvider == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("OIDC authentication is not available")
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		log.Error().Msg("Missing code or state in OIDC callback")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback parameters")
	}

	// Verify state; a token is single use either way
	found, expired := s.consumeState(state)
	if !found {
		log.Error().Str("state", state).Msg("Invalid state token")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state token")
	}

	if expired {
		log.Error().Str("state", state).Msg("Expired state token")
		return c.Status(fiber.StatusBadRequest).SendString("Expired state token")
	}

	ctx := context.Background()

	ident, created, err := s.oidcProvider.HandleCallback(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("OIDC authentication failed")
		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	if created {
		newIdent := identity.NewIdentity{
			UID:         ident.UID,
			Email:       ident.Email,
			DisplayName: ident.DisplayName,
		}

		if err = s.roles.AssignDefault(ctx, newIdent); err != nil {
			log.Error().Err(err).Str("uid", ident.UID).Msg("failed to assign default role for OIDC identity")
			return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
		}
	}

	role, err := s.ids.Claims(ctx, ident.UID)
	if err != nil {
		log.Error().Err(err).Str("uid", ident.UID).Msg("failed to read role claim for OIDC identity")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	// Create session
	sessionID, errSession := session.GenerateSessionID()
	if errSession != nil {
		log.Error().Err(errSession).Msg("Failed to generate session ID")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	userSession := &session.Data{
		UID:         ident.UID,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		Role:        role,
		IssuedAt:    time.Now(),
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("Failed to write session")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	// Set login cookie
	cookieSettings := &fiber.Cookie{
		Name:     handler.SessionCookie,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().Str("email", ident.Email).Msg("User logged in successfully via OIDC")

	return c.Redirect(dashboard.Path)
}

// addState registers a fresh state token with its expiration.
func (s *Service) addState(state string) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.stateStore[state] = time.Now().Add(stateTTL)
}

// consumeState removes the state token and reports whether it existed and,
// if so, whether it had already expired.
func (s *Service) consumeState(state string) (found, expired bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	expiration, exists := s.stateStore[state]
	if !exists {
		return false, false
	}

	delete(s.stateStore, state)

	return true, time.Now().After(expiration)
}

// pruneStates removes state tokens that expired before now.
func (s *Service) pruneStates(now time.Time) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	for state, expiration := range s.stateStore {
		if now.After(expiration) {
			delete(s.stateStore, state)
		}
	}
}

// cleanupStates periodically removes expired state tokens.
func (s *Service) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.pruneStates(time.Now())
	}
}
