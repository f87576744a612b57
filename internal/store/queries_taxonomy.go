package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type CreateCategoryParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
}

const createCategory = `
INSERT INTO categories (name, slug, created_at)
VALUES (?, ?, ?)
RETURNING id, name, slug, created_at`

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, createCategory, arg.Name, arg.Slug, arg.CreatedAt).
		Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	return c, err
}

const getCategoryBySlug = `SELECT id, name, slug, created_at FROM categories WHERE slug = ?`

func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategoryBySlug, slug).
		Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	return c, err
}

const getCategoryByName = `SELECT id, name, slug, created_at FROM categories WHERE name = ? COLLATE NOCASE`

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategoryByName, name).
		Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	return c, err
}

const listCategories = `SELECT id, name, slug, created_at FROM categories ORDER BY name ASC`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CategoryCountRow is a category annotated with its published post count.
type CategoryCountRow struct {
	Category
	PostCount int64
}

const listCategoriesWithCount = `
SELECT c.id, c.name, c.slug, c.created_at, COUNT(p.id) AS post_count
FROM categories c
LEFT JOIN posts p ON p.category_id = c.id AND p.status = 'published'
GROUP BY c.id
ORDER BY c.name ASC`

func (q *Queries) ListCategoriesWithCount(ctx context.Context) ([]CategoryCountRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategoriesWithCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CategoryCountRow
	for rows.Next() {
		var c CategoryCountRow
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.PostCount); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type CreateTagParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
}

const createTag = `
INSERT INTO tags (name, slug, created_at)
VALUES (?, ?, ?)
RETURNING id, name, slug, created_at`

func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	var t Tag
	err := q.db.QueryRowContext(ctx, createTag, arg.Name, arg.Slug, arg.CreatedAt).
		Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	return t, err
}

const getTagBySlug = `SELECT id, name, slug, created_at FROM tags WHERE slug = ?`

func (q *Queries) GetTagBySlug(ctx context.Context, slug string) (Tag, error) {
	var t Tag
	err := q.db.QueryRowContext(ctx, getTagBySlug, slug).
		Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	return t, err
}

const getTagByName = `SELECT id, name, slug, created_at FROM tags WHERE name = ? COLLATE NOCASE`

func (q *Queries) GetTagByName(ctx context.Context, name string) (Tag, error) {
	var t Tag
	err := q.db.QueryRowContext(ctx, getTagByName, name).
		Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	return t, err
}

type GetOrCreateTagParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
}

// GetOrCreateTag looks a tag up by name (case-insensitive) and creates it
// when missing.
func (q *Queries) GetOrCreateTag(ctx context.Context, arg GetOrCreateTagParams) (Tag, error) {
	tag, err := q.GetTagByName(ctx, arg.Name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Tag{}, err
	}
	return q.CreateTag(ctx, CreateTagParams(arg))
}

const listTags = `SELECT id, name, slug, created_at FROM tags ORDER BY name ASC`

func (q *Queries) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, listTags)
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

// TagCountRow is a tag annotated with its published post count.
type TagCountRow struct {
	Tag
	PostCount int64
}

const listTagsWithCount = `
SELECT t.id, t.name, t.slug, t.created_at, COUNT(p.id) AS post_count
FROM tags t
LEFT JOIN post_tags pt ON pt.tag_id = t.id
LEFT JOIN posts p ON p.id = pt.post_id AND p.status = 'published'
GROUP BY t.id
ORDER BY post_count DESC, t.name ASC`

func (q *Queries) ListTagsWithCount(ctx context.Context) ([]TagCountRow, error) {
	rows, err := q.db.QueryContext(ctx, listTagsWithCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TagCountRow
	for rows.Next() {
		var t TagCountRow
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.PostCount); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
