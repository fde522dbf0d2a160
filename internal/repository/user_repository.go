package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ellarises/ella-rises/internal/utils"
)

// Roles stored in users.role. Managers may create, update and delete
// maintained entities; standard users only read.
const (
	RoleStandard = "standard"
	RoleManager  = "manager"
)

// User mirrors the 'users' table minus the password hash. Every read
// projection in this repository excludes the hash so no caller can leak it
// outward; only Authenticate touches the column.
type User struct {
	ID        uint64
	Username  string
	Role      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrUserNotFound is returned when a user cannot be found.
var ErrUserNotFound = errors.New("user not found")

// ErrBadCredentials is returned by Authenticate for an unknown username or
// a wrong password. The two cases are deliberately indistinguishable.
var ErrBadCredentials = errors.New("invalid credentials")

// UserRepo encapsulates database queries for user accounts.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the provided DB handle.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var email sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Role, &email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		u.Email = &email.String
	}
	return &u, nil
}

// Search returns users whose username or email contains the term,
// case-insensitively, ordered by username.
func (r *UserRepo) Search(ctx context.Context, term string) ([]*User, error) {
	q := `SELECT id, username, role, email, created_at, updated_at FROM users`
	var args []any
	if cond, like := searchClause(term, "username", "email"); cond != "" {
		q += " WHERE " + cond
		args = append(args, like, like)
	}
	q += " ORDER BY username"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetByID fetches a user by id, hash excluded.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, role, email, created_at, updated_at FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Authenticate verifies a username/password pair and returns the matching
// user on success. This is the only query that reads password_hash, and the
// hash never leaves this method.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	var u User
	var email sql.NullString
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, role, email, password_hash, created_at, updated_at
		 FROM users WHERE username = ? LIMIT 1`, username).
		Scan(&u.ID, &u.Username, &u.Role, &email, &hash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(hash, password) {
		return nil, ErrBadCredentials
	}
	if email.Valid {
		u.Email = &email.String
	}
	return &u, nil
}

// Create inserts a new user with a hashed secret. A taken username fails
// with ErrConflict; the unique index backs up the pre-check. The error
// result is named so the deferred commit's outcome reaches the caller.
func (r *UserRepo) Create(ctx context.Context, username, password, role string, email *string, cost int) (id uint64, err error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var taken uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, username).Scan(&taken)
	if err == nil {
		err = ErrConflict
		return 0, err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, email) VALUES (?, ?, ?, ?)`,
		username, hash, role, email)
	if err != nil {
		if isDuplicateKey(err) {
			err = ErrConflict
		}
		return 0, err
	}
	var newID int64
	if newID, err = res.LastInsertId(); err != nil {
		return 0, err
	}
	return uint64(newID), nil
}

// Update rewrites username, role and email. newPassword replaces the secret
// when non-empty, otherwise the stored hash is kept. The username
// uniqueness check excludes the row under edit.
func (r *UserRepo) Update(ctx context.Context, id uint64, username, role string, email *string, newPassword string, cost int) (err error) {
	username = strings.TrimSpace(username)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var taken uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ? AND id <> ?`, username, id).Scan(&taken)
	if err == nil {
		err = ErrConflict
		return err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var res sql.Result
	if newPassword != "" {
		var hash string
		if hash, err = utils.HashPassword(newPassword, cost); err != nil {
			return err
		}
		res, err = tx.ExecContext(ctx,
			`UPDATE users SET username = ?, role = ?, email = ?, password_hash = ?,
			 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			username, role, email, hash, id)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE users SET username = ?, role = ?, email = ?,
			 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			username, role, email, id)
	}
	if err != nil {
		if isDuplicateKey(err) {
			err = ErrConflict
		}
		return err
	}
	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		if err = tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = ErrUserNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a user account.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
