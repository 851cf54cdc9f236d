// Package gormlogger adapts the zerolog global logger to gorm's logger interface.
package gormlogger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gorml "gorm.io/gorm/logger"
)

// SlowThreshold marks queries slower than this as warnings.
const SlowThreshold = 200 * time.Millisecond

// Adapter implements gorm's logger.Interface on top of zerolog.
type Adapter struct {
	level gorml.LogLevel
}

// New creates a gorm logger adapter at the given gorm log level.
func New(level gorml.LogLevel) *Adapter {
	return &Adapter{level: level}
}

// LogMode returns a copy of the adapter with the new level.
func (a *Adapter) LogMode(level gorml.LogLevel) gorml.Interface {
	return &Adapter{level: level}
}

// Info logs informational gorm messages.
func (a *Adapter) Info(_ context.Context, msg string, args ...interface{}) {
	if a.level >= gorml.Info {
		log.Info().Msgf(msg, args...)
	}
}

// Warn logs gorm warnings.
func (a *Adapter) Warn(_ context.Context, msg string, args ...interface{}) {
	if a.level >= gorml.Warn {
		log.Warn().Msgf(msg, args...)
	}
}

// Error logs gorm errors.
func (a *Adapter) Error(_ context.Context, msg string, args ...interface{}) {
	if a.level >= gorml.Error {
		log.Error().Msgf(msg, args...)
	}
}

// Trace logs executed statements at trace level, slow queries and errors above it.
func (a *Adapter) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if a.level <= gorml.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && a.level >= gorml.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case elapsed > SlowThreshold && a.level >= gorml.Warn:
		log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case a.level >= gorml.Info:
		log.Trace().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}
