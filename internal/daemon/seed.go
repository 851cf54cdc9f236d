package daemon

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/config"
	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/identity"
	"github.com/vendahub/vendahub/internal/profile"
	"github.com/vendahub/vendahub/internal/rbac"
)

// seed bootstraps the first SUPER_ADMIN when the identity table is empty.
// Every later role mutation goes through the role assignment service and
// its caller checks; only this bootstrap writes a privileged claim without
// a caller.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.Identity{}).Count(&count)
	if count > 0 {
		return
	}

	ctx := context.Background()
	ids := identity.NewLocalProvider(db)
	profiles := profile.NewStore(db)

	uid, err := ids.CreateIdentity(ctx, "admin@vendahub.local", "changeme", "Administrator")
	if err != nil {
		log.Error().Err(err).Msg("failed to seed admin identity")
		return
	}

	if err = ids.SetClaim(ctx, uid, rbac.RoleSuperAdmin); err != nil {
		log.Error().Err(err).Msg("failed to seed admin role claim")
		return
	}

	if err = profiles.Create(ctx, &models.Profile{
		UID:         uid,
		Email:       "admin@vendahub.local",
		DisplayName: "Administrator",
		Role:        rbac.RoleSuperAdmin,
		IsActive:    true,
		Level:       1,
	}); err != nil {
		log.Error().Err(err).Msg("failed to seed admin profile")
		return
	}

	log.Warn().Str("uid", uid).Msg("seeded default admin account, change its password")
}
