// Package conn parses and validates connection descriptors for the two
// supported engines and builds driver DSNs from them.
package conn

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dbdelta/dbdelta/internal/fault"
	"github.com/go-sql-driver/mysql"
)

// Kind identifies the target engine.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMariaDB  Kind = "mariadb"
)

// Default ports per engine.
const (
	DefaultPostgresPort = 5432
	DefaultMariaDBPort  = 3306
)

// Config is a connection descriptor for one schema endpoint.
type Config struct {
	Kind     Kind
	Host     string
	Port     int
	Database string
	Schema   string
	User     string
	Password string
	SSL      bool
}

// systemSchemas are catalog namespaces the loader refuses to introspect.
var systemSchemas = map[Kind]map[string]bool{
	KindPostgres: {
		"pg_catalog":         true,
		"information_schema": true,
		"pg_toast":           true,
		"pg_internal":        true,
	},
	KindMariaDB: {
		"mysql":              true,
		"performance_schema": true,
		"information_schema": true,
		"sys":                true,
	},
}

// ParseURL parses a connection URL of the shape
// {postgres|mariadb}://user[:pass]@host[:port]/database?schema=NAME[&ssl=true].
func ParseURL(raw string) (*Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fault.Config("invalid connection URL %q: %v", raw, err)
	}

	var kind Kind
	switch u.Scheme {
	case "postgres", "postgresql":
		kind = KindPostgres
	case "mariadb", "mysql":
		kind = KindMariaDB
	default:
		return nil, fault.Config("unsupported protocol %q (want postgres or mariadb)", u.Scheme)
	}

	cfg := &Config{
		Kind: kind,
		Host: u.Hostname(),
	}
	if cfg.Host == "" {
		return nil, fault.Config("connection URL %q: missing host", raw)
	}

	cfg.Port = defaultPort(kind)
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 {
			return nil, fault.Config("connection URL %q: invalid port %q", raw, p)
		}
		cfg.Port = port
	}

	cfg.Database = strings.TrimPrefix(u.Path, "/")
	if cfg.Database == "" || strings.Contains(cfg.Database, "/") {
		return nil, fault.Config("connection URL %q: missing database name", raw)
	}

	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}

	q := u.Query()
	cfg.Schema = q.Get("schema")
	cfg.SSL = q.Get("ssl") == "true"

	return cfg, nil
}

func defaultPort(kind Kind) int {
	if kind == KindMariaDB {
		return DefaultMariaDBPort
	}
	return DefaultPostgresPort
}

// Validate checks the descriptor before any connection is attempted. A
// missing schema name and a system schema are both hard errors.
func (c *Config) Validate() error {
	switch c.Kind {
	case KindPostgres, KindMariaDB:
	default:
		return fault.Config("unsupported engine %q", c.Kind)
	}
	if c.Schema == "" {
		return fault.Config("no schema selected for %s; pass ?schema=NAME or --schema", c.Addr())
	}
	if systemSchemas[c.Kind][strings.ToLower(c.Schema)] {
		return fault.Config("schema %q is a system schema and cannot be compared", c.Schema)
	}
	return nil
}

// Addr returns host:port for log and error messages.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Redacted returns a credential-free description of the endpoint.
func (c *Config) Redacted() string {
	return fmt.Sprintf("%s://%s/%s", c.Kind, c.Addr(), c.Database)
}

// PostgresDSN builds a key/value DSN for the pgx stdlib driver.
func (c *Config) PostgresDSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("dbname=%s", c.Database),
		fmt.Sprintf("user=%s", c.User),
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	if c.SSL {
		parts = append(parts, "sslmode=require")
	} else {
		parts = append(parts, "sslmode=prefer")
	}
	parts = append(parts, "application_name=dbdelta")
	return strings.Join(parts, " ")
}

// MariaDBDSN builds a DSN for the go-sql-driver/mysql driver.
func (c *Config) MariaDBDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Addr()
	mc.DBName = c.Database
	if c.SSL {
		mc.TLSConfig = "true"
	}
	return mc.FormatDSN()
}
