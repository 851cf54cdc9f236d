package profile

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/rbac"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Profile{}); err != nil {
		t.Fatalf("failed to migrate profile model: %v", err)
	}

	return NewStore(db), db
}

func seedProfile(t *testing.T, s *Store, uid string) {
	t.Helper()

	require.NoError(t, s.Create(context.Background(), &models.Profile{
		UID:      uid,
		Email:    uid + "@example.com",
		Role:     rbac.RoleUser,
		IsActive: true,
		Level:    1,
	}))
}

func TestGet_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	seedProfile(t, s, "u1")

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", p.Email)
	assert.Equal(t, rbac.RoleUser, p.Role)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestExists(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, exists)

	seedProfile(t, s, "u1")

	exists, err = s.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateFields_PartialUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	seedProfile(t, s, "u1")
	require.NoError(t, s.SetRole(ctx, "u1", rbac.RoleUserSDR))

	// a stats update must not touch the role column
	err := s.UpdateFields(ctx, "u1", map[string]interface{}{
		"total_points": int64(150),
		"updated_at":   time.Now(),
	})
	require.NoError(t, err)

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUserSDR, p.Role)
	assert.Equal(t, int64(150), p.TotalPoints)
}

func TestUpdateFields_MissingProfile(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.UpdateFields(context.Background(), "missing", map[string]interface{}{
		"total_points": int64(10),
	})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSetRole_OnlyRoleAndTimestamp(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedProfile(t, s, "u1")

	require.NoError(t, db.Model(&models.Profile{}).Where("uid = ?", "u1").
		Update("total_points", 500).Error)

	require.NoError(t, s.SetRole(ctx, "u1", rbac.RoleAdminGamificacao))

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdminGamificacao, p.Role)
	assert.Equal(t, int64(500), p.TotalPoints, "role change must not rewrite stats")
}

func TestList_PaginationAndOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, uid := range []string{"u1", "u2", "u3"} {
		seedProfile(t, s, uid)
	}

	profiles, total, err := s.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, profiles, 2)

	profiles, total, err = s.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, profiles, 1)
}
