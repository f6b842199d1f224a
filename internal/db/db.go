package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/wordbank/dictionary/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25
)

// sqliteDriver is go-sqlite3 with lower() replaced by a Unicode-aware version.
// The built-in one only folds ASCII, so "Ā" would never match "ā" in searches.
const sqliteDriver = "sqlite3_dictionary"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
}

// DB is the dictionary's handle on the relational store.
type DB struct {
	*sqlx.DB
	builder sq.StatementBuilderType
}

// Open connects to the configured store and verifies it answers a ping.
// A store that cannot be reached is reported as an error, never as a nil handle.
func Open(ctx context.Context, cfg config.Config) (*DB, error) {
	driver := strings.TrimSpace(cfg.Database.Driver)
	if driver == "" {
		driver = DriverSQLite
	}

	var sqlDriver, dsn string
	switch driver {
	case DriverSQLite:
		sqlDriver, dsn = sqliteDriver, sqliteDSN(cfg.Database.Path)
	case DriverPostgres:
		sqlDriver, dsn = driver, PostgresURL(cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	} else {
		conn.SetConnMaxIdleTime(defaultConnMaxIdle)
		conn.SetConnMaxLifetime(defaultConnMaxLife)
		conn.SetMaxIdleConns(defaultMaxIdleConns)
		conn.SetMaxOpenConns(defaultMaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &DB{
		DB:      conn,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

// PostgresURL builds a lib/pq connection URL from config.
func PostgresURL(cfg config.DatabaseConfig) string {
	sslmode := "disable"
	if cfg.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		User:   url.UserPassword(cfg.User, cfg.Password),
		Path:   cfg.DBName,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func sqliteDSN(path string) string {
	if strings.TrimSpace(path) == "" {
		path = "dictionary.db"
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}
