package identity

import (
	"context"

	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/rbac"
)

// NewIdentity describes a freshly created identity handed to the default
// role assignment flow.
type NewIdentity struct {
	UID         string
	Email       string
	DisplayName string
}

// Provider is the identity provider consumed by the role assignment service
// and the login handlers. The platform ships a local database-backed
// implementation; OIDC SSO identities are materialized through the same
// provider so they get a claim channel too.
type Provider interface {
	// CreateIdentity creates a credentialed identity and returns its uid.
	CreateIdentity(ctx context.Context, email, password, displayName string) (string, error)
	// SetClaim attaches the role claim to the identity. The claim becomes
	// visible to sessions issued afterwards; open sessions keep their
	// snapshot until refreshed.
	SetClaim(ctx context.Context, uid string, role rbac.Role) error
	// Claims reads the identity's current role claim. Absent identities
	// return ErrIdentityNotFound.
	Claims(ctx context.Context, uid string) (rbac.Role, error)
	// Authenticate verifies credentials and returns the identity.
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
}
