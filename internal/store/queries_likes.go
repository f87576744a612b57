package store

import (
	"context"
	"time"
)

const deleteLike = `DELETE FROM likes WHERE post_id = ? AND user_id = ?`
const insertLike = `INSERT OR IGNORE INTO likes (post_id, user_id, created_at) VALUES (?, ?, ?)`

type ToggleLikeParams struct {
	PostID    int64
	UserID    int64
	CreatedAt time.Time
}

// ToggleLike removes the user's like on the post if one exists, otherwise
// records it. Returns true when the post ends up liked. The UNIQUE
// constraint on (post_id, user_id) keeps concurrent toggles from creating
// duplicates.
func (q *Queries) ToggleLike(ctx context.Context, arg ToggleLikeParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, deleteLike, arg.PostID, arg.UserID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n > 0 {
		return false, nil
	}

	if _, err := q.db.ExecContext(ctx, insertLike, arg.PostID, arg.UserID, arg.CreatedAt); err != nil {
		return false, err
	}
	return true, nil
}

const hasLiked = `SELECT EXISTS(SELECT 1 FROM likes WHERE post_id = ? AND user_id = ?)`

type HasLikedParams struct {
	PostID int64
	UserID int64
}

func (q *Queries) HasLiked(ctx context.Context, arg HasLikedParams) (bool, error) {
	var liked bool
	err := q.db.QueryRowContext(ctx, hasLiked, arg.PostID, arg.UserID).Scan(&liked)
	return liked, err
}

const countLikesForPost = `SELECT COUNT(*) FROM likes WHERE post_id = ?`

func (q *Queries) CountLikesForPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countLikesForPost, postID).Scan(&count)
	return count, err
}
