package config

import (
	"time"

	"github.com/vendahub/vendahub/internal/logger"
)

// Supported database drivers.
const (
	DBDriverMySQL    = "mysql"
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Auth      Auth
	Webserver Webserver
}

// DB implements database connection settings.
type DB struct {
	Driver   string // mysql, postgres or sqlite
	Host     string
	Port     int
	User     string
	Password string
	Name     string // database name, or file path for sqlite
	Extras   string // extra DSN parameters
}

// Webserver implement webserver settings.
type Webserver struct {
	CacheEnabled        bool    // true = enable cache, false = disable cache
	CleanPath           bool    // use clean path middleware to allow multi slash requests
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // encryption key for cookies
	Session             Session // session settings
}

// Auth implements authentication settings.
type Auth struct {
	LocalDB LocalDBAuth
	OIDC    OIDCAuth
	LDAP    LDAPAuth
}

// LocalDBAuth implements local database authentication settings.
type LocalDBAuth struct {
	Enabled bool
}

// OIDCAuth implements OpenID Connect authentication settings.
type OIDCAuth struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// LDAPAuth implements LDAP directory authentication settings.
type LDAPAuth struct {
	Enabled         bool
	Host            string
	Port            int
	UseSSL          bool
	UseTLS          bool
	SkipVerify      bool
	BindDN          string
	BindPassword    string
	BaseDN          string
	UserFilter      string
	EmailAttr       string
	DisplayNameAttr string
	Timeout         int
}
