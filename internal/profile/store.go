// Package profile implements the profile store: one mutable document per
// identity, mirroring the role claim and holding gameplay stats.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/rbac"
)

// ErrProfileNotFound is returned when no profile exists for a uid. Callers
// on the session-resolve path treat this as a trigger for default profile
// creation, not as a failure.
var ErrProfileNotFound = errors.New("profile not found")

// Store provides access to profile documents.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new profile store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get loads the profile for uid.
func (s *Store) Get(ctx context.Context, uid string) (*models.Profile, error) {
	var p models.Profile

	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	return &p, nil
}

// Exists reports whether a profile exists for uid.
func (s *Store) Exists(ctx context.Context, uid string) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("uid = ?", uid).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check profile: %w", err)
	}

	return count > 0, nil
}

// Create inserts a new profile document. Exactly one profile per identity;
// a second insert for the same uid fails on the primary key.
func (s *Store) Create(ctx context.Context, p *models.Profile) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// UpdateFields applies a column-level partial update to the profile.
// Role mutations and stats mutations run through here independently, so
// neither ever rewrites the other's columns.
func (s *Store) UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("uid = ?", uid).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update profile: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// SetRole mirrors a new role onto the profile, touching only the role and
// updated_at columns.
func (s *Store) SetRole(ctx context.Context, uid string, role rbac.Role) error {
	return s.UpdateFields(ctx, uid, map[string]interface{}{
		"role":       role,
		"updated_at": time.Now(),
	})
}

// List returns profiles ordered by creation time, newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]models.Profile, int64, error) {
	var (
		profiles []models.Profile
		total    int64
	)

	tx := s.db.WithContext(ctx).Model(&models.Profile{})

	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	err := tx.Order("created_at DESC").Limit(limit).Offset(offset).Find(&profiles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, total, nil
}
