package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"

	"github.com/vendahub/vendahub/internal/rbac"
)

// AuthSource represents the authentication source for an identity.
type AuthSource string

const (
	// AuthSourceLocal indicates the identity authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceOIDC indicates the identity authenticates via OpenID Connect (OIDC).
	AuthSourceOIDC AuthSource = "oidc"
	// AuthSourceLDAP indicates the identity authenticates against an LDAP directory.
	AuthSourceLDAP AuthSource = "ldap"
)

// Identity represents a user identity owned by the identity provider.
// The RoleClaim column is the claims store: the signed role assertion that
// is snapshotted into the session token at issuance and trusted for
// server-side authorization. The profile mirrors the same role for display.
type Identity struct {
	// UID is the opaque unique identifier for the identity.
	UID string `gorm:"primaryKey;size:64"`
	// Email is the identity's login email, unique across the platform.
	Email string `gorm:"unique;size:255;not null"`
	// DisplayName is the human-readable name shown in the UI.
	DisplayName string `gorm:"size:255"`
	// Password is the Argon2id hashed password (only used for local authentication).
	Password string `gorm:"size:255"`
	// RoleClaim is the role custom claim attached to this identity.
	RoleClaim rbac.Role `gorm:"type:varchar(32);not null;default:'USER'"`
	// AuthSource indicates how this identity authenticates (local, oidc or ldap).
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// ExternalID is the external identifier for OIDC (sub claim) and LDAP (user DN) identities.
	ExternalID string `gorm:"size:255"`
	// TOTPSecret holds the shared secret when a second factor is enrolled.
	TOTPSecret string `gorm:"size:255"`
	// Active indicates whether the identity can log in.
	Active bool
	// CreatedAt is the timestamp when the identity was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the identity was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Identity model.
func (Identity) TableName() string {
	return "identities"
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating local passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the identity's stored
// hashed password using constant-time comparison.
func (i *Identity) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, i.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
