package identity

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/rbac"
	"github.com/vendahub/vendahub/internal/uniuri"
)

// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
var ErrLDAPDisabled = errors.New("ldap authentication is disabled")

// ErrMultipleEntriesFound is returned when a directory search matches more
// than one entry for a login name.
var ErrMultipleEntriesFound = errors.New("multiple directory entries found")

// LDAPConfig holds LDAP/Active Directory configuration for authentication.
type LDAPConfig struct {
	// Enabled indicates if LDAP authentication is enabled.
	Enabled bool
	// Host is the LDAP server hostname or IP address.
	Host string
	// Port is the LDAP server port (typically 389 for LDAP, 636 for LDAPS).
	Port int
	// UseSSL enables LDAPS (LDAP over SSL/TLS) on port 636.
	UseSSL bool
	// UseTLS enables StartTLS to upgrade an LDAP connection to TLS.
	UseTLS bool
	// SkipVerify skips TLS certificate verification (insecure, for testing only).
	SkipVerify bool
	// BindDN is the distinguished name to bind with for performing searches.
	BindDN string
	// BindPassword is the password for the bind DN.
	BindPassword string
	// BaseDN is the base distinguished name for user searches.
	BaseDN string
	// UserFilter is the LDAP filter for finding users (e.g., "(mail={login})").
	// The {login} placeholder is replaced with the submitted login name.
	UserFilter string
	// EmailAttr is the LDAP attribute containing the email address (e.g., "mail").
	EmailAttr string
	// DisplayNameAttr is the LDAP attribute containing the display name (e.g., "cn").
	DisplayNameAttr string
	// Timeout is the connection timeout in seconds.
	Timeout int
}

// LDAPProvider authenticates against an LDAP directory. The directory only
// proves who the user is; the role claim lives in the local claims store,
// exactly like OIDC-sourced identities, so the directory never supplies
// roles. First-time logins mirror a local identity row keyed by the user DN.
type LDAPProvider struct {
	config *LDAPConfig
	db     *gorm.DB
}

// NewLDAPProvider creates a new LDAP provider.
func NewLDAPProvider(config *LDAPConfig, db *gorm.DB) (*LDAPProvider, error) {
	if !config.Enabled {
		return nil, ErrLDAPDisabled
	}

	// Set defaults
	if config.UserFilter == "" {
		config.UserFilter = "(mail={login})"
	}

	if config.EmailAttr == "" {
		config.EmailAttr = "mail"
	}

	if config.DisplayNameAttr == "" {
		config.DisplayNameAttr = "cn"
	}

	if config.Timeout == 0 {
		config.Timeout = 10
	}

	return &LDAPProvider{
		config: config,
		db:     db,
	}, nil
}

// Connect establishes a connection to the LDAP server.
func (p *LDAPProvider) Connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))

	var ldapURL string
	if p.config.UseSSL {
		ldapURL = "ldaps://" + hostPort
	} else {
		ldapURL = "ldap://" + hostPort
	}

	var tlsConfig *tls.Config
	if p.config.UseSSL || p.config.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.config.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         p.config.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	// Upgrade to TLS if requested (for non-SSL connections)
	if !p.config.UseSSL && p.config.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	if p.config.Timeout > 0 {
		conn.SetTimeout(time.Duration(p.config.Timeout) * time.Second)
	}

	return conn, nil
}

// Authenticate verifies the login against the directory and returns the
// mirrored local identity. The second return value reports whether the
// identity was created by this call, so the caller can run the default role
// assignment flow for it.
func (p *LDAPProvider) Authenticate(ctx context.Context, login, password string) (*models.Identity, bool, error) {
	conn, err := p.Connect()
	if err != nil {
		return nil, false, err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if errBind := p.bindServiceForSearch(conn); errBind != nil {
		return nil, false, errBind
	}

	entry, errSearch := p.searchUserEntry(conn, login)
	if errSearch != nil {
		return nil, false, errSearch
	}

	if errAuth := conn.Bind(entry.DN, password); errAuth != nil {
		return nil, false, fmt.Errorf("authentication failed: %w", errAuth)
	}

	email := entry.GetAttributeValue(p.config.EmailAttr)
	displayName := entry.GetAttributeValue(p.config.DisplayNameAttr)

	return p.mirrorIdentity(ctx, entry.DN, email, displayName)
}

// bindServiceForSearch binds with the configured service account (if
// provided) to perform the user search.
func (p *LDAPProvider) bindServiceForSearch(conn *ldap.Conn) error {
	if p.config.BindDN == "" {
		return nil
	}

	if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
		return fmt.Errorf("failed to bind with service account: %w", err)
	}

	return nil
}

// searchUserEntry searches the directory for the login name and returns a
// single entry.
func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, login string) (*ldap.Entry, error) {
	userFilter := strings.ReplaceAll(p.config.UserFilter, "{login}", ldap.EscapeFilter(login))
	searchRequest := ldap.NewSearchRequest(
		p.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, // Size limit
		p.config.Timeout,
		false,
		userFilter,
		[]string{
			p.config.EmailAttr,
			p.config.DisplayNameAttr,
			"dn",
		},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	switch len(searchResult.Entries) {
	case 0:
		return nil, ErrIdentityNotFound
	case 1:
		return searchResult.Entries[0], nil
	default:
		return nil, ErrMultipleEntriesFound
	}
}

// mirrorIdentity finds or creates the local identity row for the directory
// entry, keyed by its DN. Creation attaches the fallback USER claim; on
// update only the directory-owned fields are refreshed and the claim is
// left alone — claims stay platform-owned.
func (p *LDAPProvider) mirrorIdentity(ctx context.Context, userDN, email, displayName string) (*models.Identity, bool, error) {
	var ident models.Identity

	err := p.db.WithContext(ctx).
		Where("external_id = ? AND auth_source = ?", userDN, models.AuthSourceLDAP).
		First(&ident).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ident = models.Identity{
			UID:         uniuri.NewUID(),
			Email:       email,
			DisplayName: displayName,
			RoleClaim:   rbac.DefaultRole,
			AuthSource:  models.AuthSourceLDAP,
			ExternalID:  userDN,
			Active:      true,
		}

		if err = p.db.WithContext(ctx).Create(&ident).Error; err != nil {
			return nil, false, fmt.Errorf("failed to create identity: %w", err)
		}

		return &ident, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to query identity: %w", err)
	default:
		// Refresh directory-owned fields only
		ident.Email = email
		ident.DisplayName = displayName

		if err = p.db.WithContext(ctx).Save(&ident).Error; err != nil {
			return nil, false, fmt.Errorf("failed to update identity: %w", err)
		}

		return &ident, false, nil
	}
}

// TestConnection tests the LDAP server connection and bind credentials.
func (p *LDAPProvider) TestConnection() error {
	conn, err := p.Connect()
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if p.config.BindDN != "" {
		if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
			return fmt.Errorf("bind failed: %w", err)
		}
	}

	return nil
}
