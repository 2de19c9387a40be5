// Package sqlstore talks to the database behind the shop under test. It
// seeds fixtures, verifies persisted state and cleans up after a run.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

const (
	driverPostgres = "pgx"
	driverMySQL    = "mysql"
	driverSQLite   = "sqlite"
)

type Store struct {
	db     *sqlx.DB
	driver string
	log    *slog.Logger
	now    func() time.Time
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

var _ ports.ShopStore = (*Store)(nil)

// Open connects using the configured DB_TYPE and verifies the connection.
func Open(ctx context.Context, cfg domain.DatabaseConfig, opts ...Option) (*Store, error) {
	driver, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, &domain.OpError{Op: "sqlstore.open", Kind: domain.KindExecution, Path: cfg.Type, Err: err}
	}
	if driver == driverSQLite {
		// a second connection to :memory: would see an empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.OpError{Op: "sqlstore.ping", Kind: domain.KindExecution, Path: cfg.Type, Err: err}
	}

	s := New(db, opts...)
	s.log.Info("database connected", "type", cfg.Type, "name", cfg.Name)
	return s, nil
}

// New wraps an existing connection.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		driver: db.DriverName(),
		log:    slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DSN returns the database/sql driver name and data source for cfg.
func DSN(cfg domain.DatabaseConfig) (string, string, error) {
	switch cfg.Type {
	case "postgresql":
		u, err := domain.Config{Database: cfg}.DatabaseURL()
		return driverPostgres, u, err
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Name
		mc.ParseTime = true
		return driverMySQL, mc.FormatDSN(), nil
	case "sqlite":
		return driverSQLite, domain.SQLiteFile(cfg.Name), nil
	default:
		return "", "", &domain.OpError{
			Op:   "sqlstore.dsn",
			Kind: domain.KindUnsupported,
			Err:  fmt.Errorf("unsupported database type %q", cfg.Type),
		}
	}
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &domain.OpError{Op: "sqlstore.close", Kind: domain.KindExecution, Err: err}
	}
	s.log.Info("database connection closed")
	return nil
}

// Query runs q and returns every row as a column map. Byte slices are
// returned as strings.
func (s *Store) Query(ctx context.Context, q string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return nil, s.fail("sqlstore.query", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, s.fail("sqlstore.query", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("sqlstore.query", err)
	}
	return out, nil
}

// Exec runs q and returns the number of affected rows.
func (s *Store) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return 0, s.fail("sqlstore.exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail("sqlstore.exec", err)
	}
	return n, nil
}

// insert runs an INSERT and returns the generated id.
func (s *Store) insert(ctx context.Context, op, q string, args ...any) (int64, error) {
	if s.driver == driverMySQL {
		res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
		if err != nil {
			return 0, s.fail(op, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, s.fail(op, err)
		}
		return id, nil
	}

	var id int64
	if err := s.db.QueryRowxContext(ctx, s.db.Rebind(q+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, s.fail(op, err)
	}
	return id, nil
}

// get scans one row into dest. No row is reported as (false, nil).
func (s *Store) get(ctx context.Context, op string, dest any, q string, args ...any) (bool, error) {
	err := s.db.GetContext(ctx, dest, s.db.Rebind(q), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.fail(op, err)
	}
	return true, nil
}

func (s *Store) fail(op string, err error) error {
	s.log.Error("database operation failed", "op", op, "err", err)
	return &domain.OpError{Op: op, Kind: domain.KindExecution, Err: err}
}
