package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, bio, avatar, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Bio, &u.Avatar,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const createUser = `
INSERT INTO users (username, email, password_hash, first_name, last_name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Username, arg.Email, arg.PasswordHash,
		arg.FirstName, arg.LastName, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanUser(row)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ? COLLATE NOCASE`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

type UpdateUserParams struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Bio       string
	UpdatedAt time.Time
}

const updateUser = `
UPDATE users
SET email = ?, first_name = ?, last_name = ?, bio = ?, updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUser,
		arg.Email, arg.FirstName, arg.LastName, arg.Bio, arg.UpdatedAt, arg.ID,
	)
	return scanUser(row)
}

type UpdateUserAvatarParams struct {
	ID        int64
	Avatar    string
	UpdatedAt time.Time
}

const updateUserAvatar = `UPDATE users SET avatar = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateUserAvatar(ctx context.Context, arg UpdateUserAvatarParams) error {
	_, err := q.db.ExecContext(ctx, updateUserAvatar, arg.Avatar, arg.UpdatedAt, arg.ID)
	return err
}

type UpdateUserPasswordParams struct {
	ID           int64
	PasswordHash string
	UpdatedAt    time.Time
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&count)
	return count, err
}

// TopAuthorRow is a user annotated with their total post count.
type TopAuthorRow struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Avatar    sql.NullString
	PostCount int64
}

const listTopAuthors = `
SELECT u.id, u.username, u.first_name, u.last_name, u.avatar, COUNT(p.id) AS post_count
FROM users u
LEFT JOIN posts p ON p.author_id = u.id
GROUP BY u.id
ORDER BY post_count DESC, u.created_at ASC
LIMIT ?`

// ListTopAuthors returns the most prolific authors, oldest account first on
// ties.
func (q *Queries) ListTopAuthors(ctx context.Context, limit int64) ([]TopAuthorRow, error) {
	rows, err := q.db.QueryContext(ctx, listTopAuthors, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TopAuthorRow
	for rows.Next() {
		var a TopAuthorRow
		if err := rows.Scan(&a.ID, &a.Username, &a.FirstName, &a.LastName, &a.Avatar, &a.PostCount); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
