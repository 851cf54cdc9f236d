package models

import "time"

// ActivityType classifies an activity feed entry.
type ActivityType string

const (
	// ActivityPointsAwarded records a point grant.
	ActivityPointsAwarded ActivityType = "points_awarded"
	// ActivityBadgeEarned records a badge grant.
	ActivityBadgeEarned ActivityType = "badge_earned"
)

// Activity is an append-only record of a gamification event.
type Activity struct {
	// ID is the unique identifier for the activity entry.
	ID uint64 `gorm:"primaryKey"`
	// UID references the profile the activity belongs to.
	UID string `gorm:"size:64;not null;index"`
	// Type classifies the activity.
	Type ActivityType `gorm:"type:varchar(32);not null"`
	// Points is the number of points involved, if any.
	Points int64
	// Reason is the human-readable cause shown in the activity feed.
	Reason string `gorm:"size:255"`
	// CreatedAt is the timestamp of the event (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the Activity model.
func (Activity) TableName() string {
	return "activities"
}
