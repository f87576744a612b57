package store

import (
	"context"
	"time"
)

type CreateCommentParams struct {
	PostID    int64
	UserID    int64
	Body      string
	CreatedAt time.Time
}

const createComment = `
INSERT INTO comments (post_id, user_id, body, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, post_id, user_id, body, created_at`

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	var c Comment
	err := q.db.QueryRowContext(ctx, createComment,
		arg.PostID, arg.UserID, arg.Body, arg.CreatedAt,
	).Scan(&c.ID, &c.PostID, &c.UserID, &c.Body, &c.CreatedAt)
	return c, err
}

const getCommentByID = `SELECT id, post_id, user_id, body, created_at FROM comments WHERE id = ?`

func (q *Queries) GetCommentByID(ctx context.Context, id int64) (Comment, error) {
	var c Comment
	err := q.db.QueryRowContext(ctx, getCommentByID, id).
		Scan(&c.ID, &c.PostID, &c.UserID, &c.Body, &c.CreatedAt)
	return c, err
}

const deleteComment = `DELETE FROM comments WHERE id = ?`

func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteComment, id)
	return err
}

// CommentRow is a comment joined with its author's display fields.
type CommentRow struct {
	Comment
	Username  string
	FirstName string
	LastName  string
}

const listCommentsForPost = `
SELECT cm.id, cm.post_id, cm.user_id, cm.body, cm.created_at,
       u.username, u.first_name, u.last_name
FROM comments cm
JOIN users u ON u.id = cm.user_id
WHERE cm.post_id = ?
ORDER BY cm.created_at ASC, cm.id ASC`

// ListCommentsForPost returns the post's comments oldest first.
func (q *Queries) ListCommentsForPost(ctx context.Context, postID int64) ([]CommentRow, error) {
	rows, err := q.db.QueryContext(ctx, listCommentsForPost, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CommentRow
	for rows.Next() {
		var c CommentRow
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.UserID, &c.Body, &c.CreatedAt,
			&c.Username, &c.FirstName, &c.LastName,
		); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const countCommentsForPost = `SELECT COUNT(*) FROM comments WHERE post_id = ?`

func (q *Queries) CountCommentsForPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCommentsForPost, postID).Scan(&count)
	return count, err
}
