package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/vendahub/vendahub/internal/rbac"
)

// StringSet is a JSON-serialized set of string ids (badges, achievements).
// Stored as a JSON array column so membership updates stay on one field.
type StringSet []string

// Contains reports set membership.
func (s StringSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}

	return false
}

// Union returns the set with id added, unchanged if already present.
func (s StringSet) Union(id string) StringSet {
	if s.Contains(id) {
		return s
	}

	return append(s, id)
}

// Value implements driver.Valuer for JSON column storage.
func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		s = StringSet{}
	}

	out, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal string set")
	}

	return string(out), nil
}

// Scan implements sql.Scanner for JSON column storage.
func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}

	var raw []byte

	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.Errorf("unsupported string set column type %T", value)
	}

	return errors.Wrap(json.Unmarshal(raw, s), "failed to unmarshal string set")
}

// Profile is the mutable document mirroring an identity's role and holding
// its gameplay stats. Identity/role fields are owned by the role assignment
// service; stats fields are owned by the gamification flows. The two are
// mutated independently, always with column-level updates, so neither side
// ever clobbers the other.
type Profile struct {
	// UID keys the profile to its identity.
	UID string `gorm:"primaryKey;size:64"`
	// Email mirrors the identity's email at creation time.
	Email string `gorm:"size:255;not null"`
	// DisplayName is the profile display name.
	DisplayName string `gorm:"size:255"`
	// Role mirrors the identity's role claim. Display/reporting only, never
	// trusted for authorization.
	Role rbac.Role `gorm:"type:varchar(32);not null;default:'USER'"`
	// IsActive indicates whether the profile is active.
	IsActive bool
	// TotalPoints is the accumulated gamification score.
	TotalPoints int64 `gorm:"column:total_points;not null;default:0"`
	// Level is the gamification level.
	Level int `gorm:"not null;default:1"`
	// Badges is the set of earned badge ids.
	Badges StringSet `gorm:"type:text"`
	// Achievements is the set of earned achievement ids.
	Achievements StringSet `gorm:"type:text"`
	// LastActivity is the timestamp of the latest point-earning action.
	LastActivity *time.Time
	// CreatedAt is the timestamp when the profile was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the profile was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Profile model.
func (Profile) TableName() string {
	return "profiles"
}
