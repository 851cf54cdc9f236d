// Package roles implements the role assignment service: the single
// authority for mutating an identity's role across the claims store and the
// profile store.
package roles

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/identity"
	"github.com/vendahub/vendahub/internal/profile"
	"github.com/vendahub/vendahub/internal/rbac"
)

// Service mutates roles. Every flow writes the claim before the profile
// mirror; a profile failure after a successful claim write is surfaced, not
// rolled back, and heals lazily through Reconcile.
type Service struct {
	ids      identity.Provider
	profiles *profile.Store
	authz    rbac.ServerAuthorizationPolicy
}

// NewService creates a new role assignment service.
func NewService(ids identity.Provider, profiles *profile.Store) *Service {
	return &Service{
		ids:      ids,
		profiles: profiles,
	}
}

// AssignDefault attaches the default USER claim to a newly created identity
// and creates its profile document. Invoked synchronously at identity
// creation. Running it twice for the same identity leaves the final state
// unchanged.
func (s *Service) AssignDefault(ctx context.Context, ident identity.NewIdentity) error {
	if ident.UID == "" {
		return rbac.InvalidArgument("uid must not be empty")
	}

	// claim first, always
	if err := s.ids.SetClaim(ctx, ident.UID, rbac.DefaultRole); err != nil {
		return rbac.Internal("failed to attach default role claim", err)
	}

	exists, err := s.profiles.Exists(ctx, ident.UID)
	if err != nil {
		return rbac.Internal("failed to check profile", err)
	}

	if exists {
		return nil
	}

	p := &models.Profile{
		UID:         ident.UID,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		Role:        rbac.DefaultRole,
		IsActive:    true,
		Level:       1,
	}

	if err := s.profiles.Create(ctx, p); err != nil {
		// The claim is attached but the profile is missing: recognized
		// drift, healed lazily at the next session resolve.
		log.Error().Err(err).Str("uid", ident.UID).Msg("default profile creation failed after claim write")

		return rbac.Internal("failed to create default profile", err)
	}

	log.Info().Str("uid", ident.UID).Msg("default role assigned")

	return nil
}

// EnsureProfile is the client-lazy self-heal path: a missing profile on
// first read is not an error, it is created mirroring the identity's
// current role claim. The claim is authoritative and never touched here —
// a missing profile can be drift left behind by a failed dual write, and
// healing it must not reset an elevated claim. Existing profiles are
// returned untouched.
func (s *Service) EnsureProfile(ctx context.Context, uid, email, displayName string) (*models.Profile, error) {
	p, err := s.profiles.Get(ctx, uid)
	if err == nil {
		return p, nil
	}

	if !errors.Is(err, profile.ErrProfileNotFound) {
		return nil, rbac.Internal("failed to load profile", err)
	}

	claim, err := s.ids.Claims(ctx, uid)
	if err != nil {
		if errors.Is(err, identity.ErrIdentityNotFound) {
			return nil, rbac.NotFound("identity not found")
		}

		return nil, rbac.Internal("failed to read claims", err)
	}

	p = &models.Profile{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		Role:        claim,
		IsActive:    true,
		Level:       1,
	}

	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, rbac.Internal("failed to create profile", err)
	}

	log.Info().Str("uid", uid).Str("role", claim.String()).Msg("missing profile healed")

	return p, nil
}

// Promote changes the role of the target identity. The caller's role must
// come from their verified session claim, never from the profile store or a
// request field. Preconditions are checked in order and the first failure
// wins, before any store is touched.
func (s *Service) Promote(ctx context.Context, caller rbac.Role, uid string, newRole rbac.Role) error {
	if !s.authz.CanManageUsers(caller) {
		return rbac.PermissionDenied("access denied")
	}

	if !newRole.Promotable() {
		return rbac.InvalidArgument("invalid role")
	}

	if uid == "" {
		return rbac.InvalidArgument("uid must not be empty")
	}

	// claim write first; on failure the profile is never updated
	if err := s.ids.SetClaim(ctx, uid, newRole); err != nil {
		if errors.Is(err, identity.ErrIdentityNotFound) {
			return rbac.NotFound("identity not found")
		}

		return rbac.Internal("failed to set role claim", err)
	}

	if err := s.profiles.SetRole(ctx, uid, newRole); err != nil {
		// claim already updated; profile mirror is stale until reconciled
		log.Error().Err(err).Str("uid", uid).Str("role", newRole.String()).
			Msg("profile role update failed after claim write")

		return rbac.Internal("failed to update profile role", err)
	}

	log.Info().Str("uid", uid).Str("role", newRole.String()).Msg("user promoted")

	return nil
}

// CreateUser creates an identity with an explicit role, its claim and its
// profile in one request, returning the new uid. Unlike Promote, the valid
// role list here includes USER.
func (s *Service) CreateUser(
	ctx context.Context,
	caller rbac.Role,
	email, password, displayName string,
	role rbac.Role,
) (string, error) {
	if !s.authz.CanManageUsers(caller) {
		return "", rbac.PermissionDenied("access denied")
	}

	if role == "" {
		role = rbac.DefaultRole
	}

	if !role.Valid() {
		return "", rbac.InvalidArgument("invalid role")
	}

	if email == "" || password == "" {
		return "", rbac.InvalidArgument("email and password must not be empty")
	}

	uid, err := s.ids.CreateIdentity(ctx, email, password, displayName)
	if err != nil {
		return "", rbac.Internal("failed to create identity", err)
	}

	if err := s.ids.SetClaim(ctx, uid, role); err != nil {
		return "", rbac.Internal("failed to attach role claim", err)
	}

	p := &models.Profile{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		IsActive:    true,
		Level:       1,
	}

	if err := s.profiles.Create(ctx, p); err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("profile creation failed after claim write")

		return "", rbac.Internal("failed to create profile", err)
	}

	log.Info().Str("uid", uid).Str("role", role.String()).Msg("user created")

	return uid, nil
}

// Reconcile re-mirrors the claim role onto the profile. Idempotent; called
// at session resolve to heal drift left behind by a failed dual write. The
// claim is authoritative.
func (s *Service) Reconcile(ctx context.Context, uid string) (rbac.Role, error) {
	claim, err := s.ids.Claims(ctx, uid)
	if err != nil {
		if errors.Is(err, identity.ErrIdentityNotFound) {
			return "", rbac.NotFound("identity not found")
		}

		return "", rbac.Internal("failed to read claims", err)
	}

	p, err := s.profiles.Get(ctx, uid)
	if errors.Is(err, profile.ErrProfileNotFound) {
		// no profile yet; the caller decides whether to self-heal
		return claim, nil
	}

	if err != nil {
		return "", rbac.Internal("failed to load profile", err)
	}

	if p.Role != claim {
		if err := s.profiles.UpdateFields(ctx, uid, map[string]interface{}{
			"role":       claim,
			"updated_at": time.Now(),
		}); err != nil {
			return "", rbac.Internal("failed to reconcile profile role", err)
		}

		log.Warn().Str("uid", uid).Str("claim", claim.String()).Str("profile", p.Role.String()).
			Msg("profile role drift reconciled")
	}

	return claim, nil
}
