// Package gamification implements point grants and badge awards on top of
// the profile store. All writes are column-level so they never race with
// role mirroring on the same profile row.
package gamification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/profile"
)

// BadgeRule awards a badge once total points reach its threshold.
type BadgeRule struct {
	ID        string
	Label     string
	Threshold int64
}

// DefaultBadgeRules are the point-threshold badges, ordered ascending.
var DefaultBadgeRules = []BadgeRule{
	{ID: "first_steps", Label: "Primeiros Passos", Threshold: 100},
	{ID: "getting_started", Label: "Começando Bem", Threshold: 500},
	{ID: "on_fire", Label: "Pegando Fogo", Threshold: 1000},
	{ID: "expert", Label: "Especialista", Threshold: 2000},
	{ID: "master", Label: "Mestre", Threshold: 5000},
}

// Service applies gamification events to profiles.
type Service struct {
	db       *gorm.DB
	profiles *profile.Store
	rules    []BadgeRule
}

// NewService creates a new gamification service with the default badge rules.
func NewService(db *gorm.DB, profiles *profile.Store) *Service {
	return &Service{
		db:       db,
		profiles: profiles,
		rules:    DefaultBadgeRules,
	}
}

// AwardPoints increments the profile's total points, stamps the activity
// time and appends a feed entry, then checks badge thresholds. The
// increment is an in-database expression, so concurrent awards never lose
// points to read-modify-write races.
func (s *Service) AwardPoints(ctx context.Context, uid string, points int64, reason string) error {
	if points <= 0 {
		return fmt.Errorf("points must be positive, got %d", points)
	}

	err := s.profiles.UpdateFields(ctx, uid, map[string]interface{}{
		"total_points":  gorm.Expr("total_points + ?", points),
		"last_activity": time.Now(),
		"updated_at":    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to award points: %w", err)
	}

	entry := models.Activity{
		UID:    uid,
		Type:   models.ActivityPointsAwarded,
		Points: points,
		Reason: reason,
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	log.Debug().Str("uid", uid).Int64("points", points).Str("reason", reason).Msg("points awarded")

	return s.CheckBadges(ctx, uid)
}

// CheckBadges awards every threshold badge the profile's total points have
// reached but not yet earned. Only the badges column is written, so a
// concurrent role change on the same profile is never clobbered.
func (s *Service) CheckBadges(ctx context.Context, uid string) error {
	p, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to load profile for badge check: %w", err)
	}

	badges := p.Badges
	awarded := false

	for _, rule := range s.rules {
		if p.TotalPoints < rule.Threshold || badges.Contains(rule.ID) {
			continue
		}

		badges = badges.Union(rule.ID)
		awarded = true

		entry := models.Activity{
			UID:    uid,
			Type:   models.ActivityBadgeEarned,
			Reason: rule.Label,
		}

		if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to record badge activity: %w", err)
		}

		log.Info().Str("uid", uid).Str("badge", rule.ID).Msg("badge earned")
	}

	if !awarded {
		return nil
	}

	err = s.profiles.UpdateFields(ctx, uid, map[string]interface{}{
		"badges":     badges,
		"updated_at": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store badges: %w", err)
	}

	return nil
}

// Activities returns the newest feed entries for a profile.
func (s *Service) Activities(ctx context.Context, uid string, limit int) ([]models.Activity, error) {
	var entries []models.Activity

	err := s.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return entries, nil
}
