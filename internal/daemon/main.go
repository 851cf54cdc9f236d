// Package daemon wires the database, the session store and the web service
// together and runs them.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/gofiber/storage"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorml "gorm.io/gorm/logger"

	"github.com/vendahub/vendahub/internal/config"
	"github.com/vendahub/vendahub/internal/db/dsn"
	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/logger"
	"github.com/vendahub/vendahub/internal/logger/adapter/gormlogger"
	"github.com/vendahub/vendahub/internal/web"
	"github.com/vendahub/vendahub/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
		return nil
	}

	gormLevel := gorml.Warn
	if cfg.DevMode {
		gormLevel = gorml.Info
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{
		Logger: gormlogger.New(gormLevel),
	})
	if err != nil {
		panic("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.Identity{},
		&models.Profile{},
		&models.Activity{},
	); err != nil {
		panic("failed to migrate database")
	}

	seed(cfg, db)

	session.Init(sessionStorage(cfg))

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db),
	}
}

// openDialector picks the gorm driver for the configured database.
func openDialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.Driver {
	case config.DBDriverPostgres:
		return gormpostgres.Open(dsn.Create(cfg))
	case config.DBDriverSQLite:
		return sqlite.Open(dsn.Create(cfg))
	default:
		return gormmysql.Open(dsn.Create(cfg))
	}
}

// sessionStorage picks the fiber session storage for the configured
// database. SQLite deployments are single-node dev setups and use the
// in-process store.
func sessionStorage(cfg *config.Config) storage.Storage {
	switch cfg.DB.Driver {
	case config.DBDriverPostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	case config.DBDriverSQLite:
		log.Warn().Msg("using in-process session storage, sessions will not survive restarts")
		return session.NewMemoryStorage()
	default:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	}
}
