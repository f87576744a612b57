package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avolkov/inkpress/internal/auth"
	"github.com/avolkov/inkpress/internal/util"
)

// Default seed credentials
const (
	SeedAdminUsername = "admin"
	SeedAdminEmail    = "admin@myblog.com"
	SeedAdminPassword = "changeme"

	SeedAuthorUsername = "writer"
	SeedAuthorEmail    = "writer@myblog.com"
	SeedAuthorPassword = "changeme"
)

// Seed creates initial data: an admin account, a writer account, starter
// categories and tags, and a couple of published posts. Safe to run more
// than once.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	_, err := queries.GetUserByUsername(ctx, SeedAdminUsername)
	if err == nil {
		slog.Info("seed data already present, skipping")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	admin, err := seedUser(ctx, queries, SeedAdminUsername, SeedAdminEmail, SeedAdminPassword, "Site", "Admin")
	if err != nil {
		return err
	}
	writer, err := seedUser(ctx, queries, SeedAuthorUsername, SeedAuthorEmail, SeedAuthorPassword, "", "")
	if err != nil {
		return err
	}

	now := time.Now()
	categoryIDs := make(map[string]int64)
	for _, name := range []string{"Technology", "Travel", "Food"} {
		cat, err := queries.CreateCategory(ctx, CreateCategoryParams{
			Name:      name,
			Slug:      util.Slugify(name),
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating category %q: %w", name, err)
		}
		categoryIDs[name] = cat.ID
	}

	tagIDs := make(map[string]int64)
	for _, name := range []string{"trending", "golang", "guide"} {
		tag, err := queries.CreateTag(ctx, CreateTagParams{
			Name:      name,
			Slug:      util.Slugify(name),
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating tag %q: %w", name, err)
		}
		tagIDs[name] = tag.ID
	}

	posts := []struct {
		title    string
		content  string
		category string
		author   int64
		tags     []string
	}{
		{
			title:    "Welcome to the Blog",
			content:  "This is the first post. Sign up, write something, and join the conversation.",
			category: "Technology",
			author:   admin.ID,
			tags:     []string{"trending"},
		},
		{
			title:    "Getting Started with Writing",
			content:  "A short guide to publishing your first post: pick a category, add a few tags, and hit publish.",
			category: "Travel",
			author:   writer.ID,
			tags:     []string{"guide", "trending"},
		},
	}

	for _, p := range posts {
		post, err := queries.CreatePost(ctx, CreatePostParams{
			Title:       p.title,
			Slug:        util.Slugify(p.title),
			Content:     p.content,
			Status:      PostStatusPublished,
			PublishedAt: sql.NullTime{Time: now, Valid: true},
			CategoryID:  sql.NullInt64{Int64: categoryIDs[p.category], Valid: true},
			AuthorID:    p.author,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("creating post %q: %w", p.title, err)
		}

		ids := make([]int64, 0, len(p.tags))
		for _, tag := range p.tags {
			ids = append(ids, tagIDs[tag])
		}
		if err := queries.SetPostTags(ctx, post.ID, ids); err != nil {
			return fmt.Errorf("tagging post %q: %w", p.title, err)
		}
	}

	slog.Info("seeded initial data",
		"admin", SeedAdminUsername,
		"writer", SeedAuthorUsername,
		"password", SeedAdminPassword,
	)

	return nil
}

func seedUser(ctx context.Context, queries *Queries, username, email, password, first, last string) (User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hashing password for %s: %w", username, err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return User{}, fmt.Errorf("creating user %s: %w", username, err)
	}
	return user, nil
}
