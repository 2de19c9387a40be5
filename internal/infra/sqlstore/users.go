package sqlstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

const userColumns = `id, email, first_name, last_name, COALESCE(phone, '') AS phone,
	COALESCE(password_hash, '') AS password_hash, COALESCE(status, '') AS status,
	COALESCE(failed_login_attempts, 0) AS failed_login_attempts, locked_until, created_at`

// updatableUserColumns lists the columns UpdateUser may touch.
var updatableUserColumns = map[string]bool{
	"first_name":            true,
	"last_name":             true,
	"email":                 true,
	"phone":                 true,
	"status":                true,
	"password_hash":         true,
	"failed_login_attempts": true,
	"locked_until":          true,
}

// HashPassword returns the hex SHA-256 digest stored for seeded users.
func HashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

func (s *Store) CreateUser(ctx context.Context, u domain.NewUser) (int64, error) {
	if strings.TrimSpace(u.Email) == "" {
		return 0, &domain.OpError{Op: "sqlstore.create_user", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("email is required")}
	}
	status := u.Status
	if status == "" {
		status = "active"
	}

	id, err := s.insert(ctx, "sqlstore.create_user",
		`INSERT INTO users (first_name, last_name, email, password_hash, phone, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.FirstName, u.LastName, u.Email, HashPassword(u.Password), u.Phone, s.now().UTC(), status)
	if err != nil {
		return 0, err
	}
	s.log.Info("user created", "id", id, "email", u.Email)
	return id, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	ok, err := s.get(ctx, "sqlstore.user_by_email", &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	ok, err := s.get(ctx, "sqlstore.user_by_id", &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// UpdateUser sets the given columns. A "password" key is hashed into
// password_hash; unknown columns are rejected.
func (s *Store) UpdateUser(ctx context.Context, id int64, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}

	set := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "password" {
			set["password_hash"] = HashPassword(fmt.Sprint(v))
			continue
		}
		if !updatableUserColumns[k] {
			return 0, &domain.OpError{Op: "sqlstore.update_user", Kind: domain.KindInvalidConfig, Path: k, Err: fmt.Errorf("column %q cannot be updated", k)}
		}
		set[k] = v
	}

	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		parts[i] = c + " = ?"
		args = append(args, set[c])
	}
	args = append(args, id)

	return s.Exec(ctx, `UPDATE users SET `+strings.Join(parts, ", ")+` WHERE id = ?`, args...)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) (int64, error) {
	n, err := s.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err == nil && n > 0 {
		s.log.Info("user deleted", "id", id)
	}
	return n, err
}

func (s *Store) DeleteUserByEmail(ctx context.Context, email string) (int64, error) {
	n, err := s.Exec(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err == nil && n > 0 {
		s.log.Info("user deleted", "email", email)
	}
	return n, err
}

// LockoutInfo reports whether email is locked out and for how many more
// minutes. An unknown account is not locked.
func (s *Store) LockoutInfo(ctx context.Context, email string) (domain.Lockout, error) {
	u, err := s.UserByEmail(ctx, email)
	if err != nil || u == nil {
		return domain.Lockout{}, err
	}

	out := domain.Lockout{FailedAttempts: u.FailedLoginAttempts}
	if u.LockedUntil == nil {
		return out, nil
	}
	remaining := u.LockedUntil.Sub(s.now())
	if remaining <= 0 {
		return out, nil
	}
	out.Locked = true
	out.Minutes = int(math.Ceil(remaining.Minutes()))
	return out, nil
}
