package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/rbac"
	"github.com/vendahub/vendahub/internal/uniuri"
)

// LocalProvider is the database-backed identity provider.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider creates a new local identity provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// CreateIdentity creates a new credentialed identity carrying the fallback
// USER claim. Assigning any other role is the role assignment service's
// job, not the provider's.
func (p *LocalProvider) CreateIdentity(ctx context.Context, email, password, displayName string) (string, error) {
	var existing models.Identity

	err := p.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return "", ErrEmailExists
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to check existing identity: %w", err)
	}

	ident := models.Identity{
		UID:         uniuri.NewUID(),
		Email:       email,
		DisplayName: displayName,
		Password:    models.HashPassword(password),
		RoleClaim:   rbac.DefaultRole,
		AuthSource:  models.AuthSourceLocal,
		Active:      true,
	}

	if err := p.db.WithContext(ctx).Create(&ident).Error; err != nil {
		return "", fmt.Errorf("failed to create identity: %w", err)
	}

	return ident.UID, nil
}

// SetClaim attaches the role claim to the identity.
func (p *LocalProvider) SetClaim(ctx context.Context, uid string, role rbac.Role) error {
	res := p.db.WithContext(ctx).Model(&models.Identity{}).
		Where("uid = ?", uid).
		Update("role_claim", role)
	if res.Error != nil {
		return fmt.Errorf("failed to set role claim: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrIdentityNotFound
	}

	return nil
}

// Claims reads the identity's current role claim.
func (p *LocalProvider) Claims(ctx context.Context, uid string) (rbac.Role, error) {
	var ident models.Identity

	err := p.db.WithContext(ctx).Select("uid", "role_claim").Where("uid = ?", uid).First(&ident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrIdentityNotFound
	}

	if err != nil {
		return "", fmt.Errorf("failed to read claims: %w", err)
	}

	return rbac.ParseRole(string(ident.RoleClaim)), nil
}

// Authenticate authenticates an identity against the local database.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	var ident models.Identity

	err := p.db.WithContext(ctx).
		Where("email = ? AND auth_source = ?", email, models.AuthSourceLocal).
		First(&ident).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIdentityNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query identity: %w", err)
	}

	if !ident.Active {
		return nil, ErrIdentityDisabled
	}

	if !ident.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	return &ident, nil
}

// VerifySecondFactor checks the TOTP code of an identity with an enrolled
// second factor. Identities without a secret pass trivially.
func (p *LocalProvider) VerifySecondFactor(ident *models.Identity, code string) error {
	if ident.TOTPSecret == "" {
		return nil
	}

	if !totp.Validate(code, ident.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	return nil
}

// EnrollSecondFactor generates and stores a TOTP secret for the identity,
// returning the otpauth provisioning URL.
func (p *LocalProvider) EnrollSecondFactor(ctx context.Context, uid, issuer, account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}

	res := p.db.WithContext(ctx).Model(&models.Identity{}).
		Where("uid = ?", uid).
		Update("totp_secret", key.Secret())
	if res.Error != nil {
		return "", fmt.Errorf("failed to store totp secret: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return "", ErrIdentityNotFound
	}

	return key.URL(), nil
}
