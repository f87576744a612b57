package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const postColumns = `id, title, slug, content, image, status, published_at, category_id, author_id, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Image, &p.Status,
		&p.PublishedAt, &p.CategoryID, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// PostRow is a post joined with its author and category plus like and
// comment counts, as rendered on listings and detail pages.
type PostRow struct {
	Post
	AuthorUsername string
	CategoryName   sql.NullString
	CategorySlug   sql.NullString
	LikeCount      int64
	CommentCount   int64
}

const postRowColumns = `
p.id, p.title, p.slug, p.content, p.image, p.status, p.published_at,
p.category_id, p.author_id, p.created_at, p.updated_at,
u.username, c.name, c.slug,
(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id)`

const postRowFrom = `
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN categories c ON c.id = p.category_id`

func scanPostRow(row interface{ Scan(...interface{}) error }) (PostRow, error) {
	var p PostRow
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Image, &p.Status,
		&p.PublishedAt, &p.CategoryID, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt,
		&p.AuthorUsername, &p.CategoryName, &p.CategorySlug,
		&p.LikeCount, &p.CommentCount,
	)
	return p, err
}

func (q *Queries) queryPostRows(ctx context.Context, query string, args ...interface{}) ([]PostRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PostRow
	for rows.Next() {
		p, err := scanPostRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type CreatePostParams struct {
	Title       string
	Slug        string
	Content     string
	Image       sql.NullString
	Status      string
	PublishedAt sql.NullTime
	CategoryID  sql.NullInt64
	AuthorID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const createPost = `
INSERT INTO posts (title, slug, content, image, status, published_at, category_id, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.Title, arg.Slug, arg.Content, arg.Image, arg.Status,
		arg.PublishedAt, arg.CategoryID, arg.AuthorID, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanPost(row)
}

const getPostByID = `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostByID, id))
}

const getPostRowByID = `SELECT ` + postRowColumns + postRowFrom + ` WHERE p.id = ?`

func (q *Queries) GetPostRowByID(ctx context.Context, id int64) (PostRow, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, getPostRowByID, id))
}

const getPostBySlug = `SELECT ` + postColumns + ` FROM posts WHERE slug = ?`

func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostBySlug, slug))
}

type UpdatePostParams struct {
	ID          int64
	Title       string
	Content     string
	Image       sql.NullString
	Status      string
	PublishedAt sql.NullTime
	CategoryID  sql.NullInt64
	UpdatedAt   time.Time
}

const updatePost = `
UPDATE posts
SET title = ?, content = ?, image = ?, status = ?, published_at = ?, category_id = ?, updated_at = ?
WHERE id = ?
RETURNING ` + postColumns

// UpdatePost rewrites the mutable post fields. The slug is fixed at
// creation so existing links keep working.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.Title, arg.Content, arg.Image, arg.Status,
		arg.PublishedAt, arg.CategoryID, arg.UpdatedAt, arg.ID,
	)
	return scanPost(row)
}

const deletePost = `DELETE FROM posts WHERE id = ?`

func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

type ListPublishedPostsParams struct {
	Limit  int64
	Offset int64
}

const listPublishedPosts = `SELECT ` + postRowColumns + postRowFrom + `
WHERE p.status = 'published'
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`

func (q *Queries) ListPublishedPosts(ctx context.Context, arg ListPublishedPostsParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listPublishedPosts, arg.Limit, arg.Offset)
}

const countPublishedPosts = `SELECT COUNT(*) FROM posts WHERE status = 'published'`

func (q *Queries) CountPublishedPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPublishedPosts).Scan(&count)
	return count, err
}

type ListPostsByCategoryParams struct {
	CategoryID int64
	Limit      int64
	Offset     int64
}

const listPostsByCategory = `SELECT ` + postRowColumns + postRowFrom + `
WHERE p.status = 'published' AND p.category_id = ?
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`

func (q *Queries) ListPostsByCategory(ctx context.Context, arg ListPostsByCategoryParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listPostsByCategory, arg.CategoryID, arg.Limit, arg.Offset)
}

const countPostsByCategory = `SELECT COUNT(*) FROM posts WHERE status = 'published' AND category_id = ?`

func (q *Queries) CountPostsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsByCategory, categoryID).Scan(&count)
	return count, err
}

type ListPostsByTagParams struct {
	TagID  int64
	Limit  int64
	Offset int64
}

const listPostsByTag = `SELECT ` + postRowColumns + postRowFrom + `
JOIN post_tags pt ON pt.post_id = p.id
WHERE p.status = 'published' AND pt.tag_id = ?
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`

func (q *Queries) ListPostsByTag(ctx context.Context, arg ListPostsByTagParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listPostsByTag, arg.TagID, arg.Limit, arg.Offset)
}

const countPostsByTag = `
SELECT COUNT(*)
FROM posts p
JOIN post_tags pt ON pt.post_id = p.id
WHERE p.status = 'published' AND pt.tag_id = ?`

func (q *Queries) CountPostsByTag(ctx context.Context, tagID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsByTag, tagID).Scan(&count)
	return count, err
}

type ListPostsByAuthorParams struct {
	AuthorID int64
	Limit    int64
	Offset   int64
}

const listPostsByAuthor = `SELECT ` + postRowColumns + postRowFrom + `
WHERE p.status = 'published' AND p.author_id = ?
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`

func (q *Queries) ListPostsByAuthor(ctx context.Context, arg ListPostsByAuthorParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listPostsByAuthor, arg.AuthorID, arg.Limit, arg.Offset)
}

const countPostsByAuthor = `SELECT COUNT(*) FROM posts WHERE status = 'published' AND author_id = ?`

func (q *Queries) CountPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsByAuthor, authorID).Scan(&count)
	return count, err
}

// searchWhere matches a term against the post title and content plus the
// joined category, tag, and author names.
const searchWhere = `
LEFT JOIN post_tags spt ON spt.post_id = p.id
LEFT JOIN tags st ON st.id = spt.tag_id
WHERE p.status = 'published' AND (
    lower(p.title) LIKE ? ESCAPE '\'
    OR lower(p.content) LIKE ? ESCAPE '\'
    OR lower(c.name) LIKE ? ESCAPE '\'
    OR lower(st.name) LIKE ? ESCAPE '\'
    OR lower(u.username) LIKE ? ESCAPE '\'
)`

type SearchPostsParams struct {
	Query  string
	Limit  int64
	Offset int64
}

const searchPosts = `SELECT DISTINCT ` + postRowColumns + postRowFrom + searchWhere + `
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`

// SearchPosts performs a case-insensitive substring search across published
// posts. Posts matching through several fields appear once.
func (q *Queries) SearchPosts(ctx context.Context, arg SearchPostsParams) ([]PostRow, error) {
	pat := searchPattern(arg.Query)
	return q.queryPostRows(ctx, searchPosts, pat, pat, pat, pat, pat, arg.Limit, arg.Offset)
}

const countSearchPosts = `SELECT COUNT(DISTINCT p.id)` + postRowFrom + searchWhere

func (q *Queries) CountSearchPosts(ctx context.Context, query string) (int64, error) {
	pat := searchPattern(query)
	var count int64
	err := q.db.QueryRowContext(ctx, countSearchPosts, pat, pat, pat, pat, pat).Scan(&count)
	return count, err
}

func searchPattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(query))
	return "%" + escaped + "%"
}

const listLatestPosts = `SELECT ` + postRowColumns + postRowFrom + `
WHERE p.status = 'published'
ORDER BY p.created_at DESC, p.id DESC
LIMIT ?`

func (q *Queries) ListLatestPosts(ctx context.Context, limit int64) ([]PostRow, error) {
	return q.queryPostRows(ctx, listLatestPosts, limit)
}

const listTrendingPosts = `SELECT DISTINCT ` + postRowColumns + postRowFrom + `
JOIN post_tags pt ON pt.post_id = p.id
JOIN tags t ON t.id = pt.tag_id
WHERE p.status = 'published' AND lower(t.name) = lower(?)
ORDER BY p.created_at DESC, p.id DESC
LIMIT ?`

// ListTrendingPosts returns the newest published posts carrying the given
// tag name, matched case-insensitively.
func (q *Queries) ListTrendingPosts(ctx context.Context, tagName string, limit int64) ([]PostRow, error) {
	return q.queryPostRows(ctx, listTrendingPosts, tagName, limit)
}

const deletePostTags = `DELETE FROM post_tags WHERE post_id = ?`
const insertPostTag = `INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`

// SetPostTags replaces the post's tag set wholesale.
func (q *Queries) SetPostTags(ctx context.Context, postID int64, tagIDs []int64) error {
	if _, err := q.db.ExecContext(ctx, deletePostTags, postID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := q.db.ExecContext(ctx, insertPostTag, postID, tagID); err != nil {
			return err
		}
	}
	return nil
}

const getTagsForPost = `
SELECT t.id, t.name, t.slug, t.created_at
FROM tags t
JOIN post_tags pt ON pt.tag_id = t.id
WHERE pt.post_id = ?
ORDER BY t.name ASC`

func (q *Queries) GetTagsForPost(ctx context.Context, postID int64) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, getTagsForPost, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const listScheduledPostsDue = `SELECT ` + postColumns + ` FROM posts
WHERE status = 'scheduled' AND published_at IS NOT NULL AND published_at <= ?
ORDER BY published_at ASC`

// ListScheduledPostsDue returns scheduled posts whose publish time has
// passed.
func (q *Queries) ListScheduledPostsDue(ctx context.Context, now time.Time) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, listScheduledPostsDue, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type PublishPostParams struct {
	ID          int64
	PublishedAt sql.NullTime
	UpdatedAt   time.Time
}

const publishPost = `
UPDATE posts
SET status = 'published', published_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + postColumns

func (q *Queries) PublishPost(ctx context.Context, arg PublishPostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, publishPost, arg.PublishedAt, arg.UpdatedAt, arg.ID)
	return scanPost(row)
}

const slugExists = `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = ?)`

func (q *Queries) PostSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, slugExists, slug).Scan(&exists)
	return exists, err
}
