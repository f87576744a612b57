package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "inkpress-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func createTestUser(t *testing.T, q *Queries, username string) User {
	t.Helper()

	now := time.Now()
	user, err := q.CreateUser(context.Background(), CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser %s: %v", username, err)
	}
	return user
}

func createTestPost(t *testing.T, q *Queries, authorID int64, title, slug string) Post {
	t.Helper()

	now := time.Now()
	post, err := q.CreatePost(context.Background(), CreatePostParams{
		Title:       title,
		Slug:        slug,
		Content:     "content for " + title,
		Status:      PostStatusPublished,
		PublishedAt: sql.NullTime{Time: now, Valid: true},
		AuthorID:    authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreatePost %s: %v", title, err)
	}
	return post
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	user, err := q.CreateUser(ctx, CreateUserParams{
		Username:     "tester",
		Email:        "test@example.com",
		PasswordHash: "hashed-password",
		FirstName:    "Test",
		LastName:     "User",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if user.ID == 0 {
		t.Error("user.ID should not be 0")
	}
	if user.Username != "tester" {
		t.Errorf("Username = %q, want %q", user.Username, "tester")
	}
	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "test@example.com")
	}
	if got := user.DisplayName(); got != "Test User" {
		t.Errorf("DisplayName() = %q, want %q", got, "Test User")
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestUser(t, q, "dupe")

	now := time.Now()
	_, err := q.CreateUser(context.Background(), CreateUserParams{
		Username:     "DUPE",
		Email:        "other@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == nil {
		t.Fatal("expected unique constraint error for duplicate username")
	}
}

func TestGetUserByUsername(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	created := createTestUser(t, q, "findme")

	found, err := q.GetUserByUsername(ctx, "findme")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}

	// Lookup is case-insensitive
	found, err = q.GetUserByUsername(ctx, "FindMe")
	if err != nil {
		t.Fatalf("GetUserByUsername case-insensitive: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	_, err := q.GetUserByUsername(context.Background(), "nonexistent")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	created := createTestUser(t, q, "updateme")

	updated, err := q.UpdateUser(ctx, UpdateUserParams{
		ID:        created.ID,
		Email:     "new@example.com",
		FirstName: "New",
		LastName:  "Name",
		Bio:       "about me",
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if updated.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", updated.Email, "new@example.com")
	}
	if updated.Bio != "about me" {
		t.Errorf("Bio = %q, want %q", updated.Bio, "about me")
	}
	if updated.Username != "updateme" {
		t.Errorf("Username = %q, should be unchanged", updated.Username)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	created := createTestUser(t, q, "pwchange")

	err := q.UpdateUserPassword(ctx, UpdateUserPasswordParams{
		ID:           created.ID,
		PasswordHash: "new-hash",
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	found, err := q.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if found.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, "new-hash")
	}
}

func TestCreatePost(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "author")

	now := time.Now()
	cat, err := q.CreateCategory(ctx, CreateCategoryParams{Name: "Tech", Slug: "tech", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	post, err := q.CreatePost(ctx, CreatePostParams{
		Title:       "Hello World",
		Slug:        "hello-world",
		Content:     "First post.",
		Status:      PostStatusPublished,
		PublishedAt: sql.NullTime{Time: now, Valid: true},
		CategoryID:  sql.NullInt64{Int64: cat.ID, Valid: true},
		AuthorID:    user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if post.ID == 0 {
		t.Error("post.ID should not be 0")
	}
	if post.Slug != "hello-world" {
		t.Errorf("Slug = %q, want %q", post.Slug, "hello-world")
	}
	if !post.IsPublished() {
		t.Error("IsPublished() = false, want true")
	}

	row, err := q.GetPostRowByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostRowByID: %v", err)
	}
	if row.AuthorUsername != "author" {
		t.Errorf("AuthorUsername = %q, want %q", row.AuthorUsername, "author")
	}
	if !row.CategoryName.Valid || row.CategoryName.String != "Tech" {
		t.Errorf("CategoryName = %+v, want Tech", row.CategoryName)
	}
}

func TestCreatePost_DuplicateSlug(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	user := createTestUser(t, q, "author")
	createTestPost(t, q, user.ID, "First", "same-slug")

	now := time.Now()
	_, err := q.CreatePost(context.Background(), CreatePostParams{
		Title:     "Second",
		Slug:      "same-slug",
		Content:   "x",
		Status:    PostStatusPublished,
		AuthorID:  user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err == nil {
		t.Fatal("expected unique constraint error for duplicate slug")
	}

	exists, err := q.PostSlugExists(context.Background(), "same-slug")
	if err != nil {
		t.Fatalf("PostSlugExists: %v", err)
	}
	if !exists {
		t.Error("PostSlugExists = false, want true")
	}
}

func TestListPublishedPosts_ExcludesDrafts(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "author")
	createTestPost(t, q, user.ID, "Published", "published")

	now := time.Now()
	_, err := q.CreatePost(ctx, CreatePostParams{
		Title:     "Draft",
		Slug:      "draft",
		Content:   "x",
		Status:    PostStatusDraft,
		AuthorID:  user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePost draft: %v", err)
	}

	posts, err := q.ListPublishedPosts(ctx, ListPublishedPostsParams{Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("ListPublishedPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d, want 1", len(posts))
	}
	if posts[0].Slug != "published" {
		t.Errorf("Slug = %q, want %q", posts[0].Slug, "published")
	}

	count, err := q.CountPublishedPosts(ctx)
	if err != nil {
		t.Fatalf("CountPublishedPosts: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestListPublishedPosts_Pagination(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "author")

	for i := 0; i < 8; i++ {
		createTestPost(t, q, user.ID, fmt.Sprintf("Post %d", i), fmt.Sprintf("post-%d", i))
	}

	page1, err := q.ListPublishedPosts(ctx, ListPublishedPostsParams{Limit: 6, Offset: 0})
	if err != nil {
		t.Fatalf("ListPublishedPosts: %v", err)
	}
	if len(page1) != 6 {
		t.Errorf("len(page1) = %d, want 6", len(page1))
	}

	page2, err := q.ListPublishedPosts(ctx, ListPublishedPostsParams{Limit: 6, Offset: 6})
	if err != nil {
		t.Fatalf("ListPublishedPosts page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Errorf("len(page2) = %d, want 2", len(page2))
	}
}

func TestListPublishedPosts_NewestFirst(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "author")

	base := time.Now().Add(-time.Hour)
	mk := func(slug, status string, createdAt time.Time) {
		t.Helper()
		_, err := q.CreatePost(ctx, CreatePostParams{
			Title:       slug,
			Slug:        slug,
			Content:     "x",
			Status:      status,
			AuthorID:    user.ID,
			PublishedAt: sql.NullTime{Time: createdAt, Valid: status == PostStatusPublished},
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		})
		if err != nil {
			t.Fatalf("CreatePost %s: %v", slug, err)
		}
	}

	mk("first", PostStatusPublished, base.Add(1*time.Minute))
	mk("second", PostStatusPublished, base.Add(2*time.Minute))
	mk("third", PostStatusPublished, base.Add(3*time.Minute))
	mk("fourth", PostStatusDraft, base.Add(4*time.Minute))

	posts, err := q.ListPublishedPosts(ctx, ListPublishedPostsParams{Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("ListPublishedPosts: %v", err)
	}

	var got []string
	for _, p := range posts {
		got = append(got, p.Slug)
	}
	want := []string{"third", "second", "first"}
	if len(got) != len(want) {
		t.Fatalf("slugs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slugs = %v, want %v", got, want)
		}
	}
}

func TestPostTags_Replace(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "author")
	post := createTestPost(t, q, user.ID, "Tagged", "tagged")

	now := time.Now()
	tag1, _ := q.CreateTag(ctx, CreateTagParams{Name: "one", Slug: "one", CreatedAt: now})
	tag2, _ := q.CreateTag(ctx, CreateTagParams{Name: "two", Slug: "two", CreatedAt: now})
	tag3, _ := q.CreateTag(ctx, CreateTagParams{Name: "three", Slug: "three", CreatedAt: now})

	if err := q.SetPostTags(ctx, post.ID, []int64{tag1.ID, tag2.ID}); err != nil {
		t.Fatalf("SetPostTags: %v", err)
	}

	tags, err := q.GetTagsForPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetTagsForPost: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("len(tags) = %d, want 2", len(tags))
	}

	// Replacing the set drops tags not in the new list
	if err := q.SetPostTags(ctx, post.ID, []int64{tag3.ID}); err != nil {
		t.Fatalf("SetPostTags replace: %v", err)
	}

	tags, err = q.GetTagsForPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetTagsForPost: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("len(tags) = %d, want 1", len(tags))
	}
	if tags[0].Name != "three" {
		t.Errorf("tag = %q, want %q", tags[0].Name, "three")
	}
}

func TestGetOrCreateTag(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	first, err := q.GetOrCreateTag(ctx, GetOrCreateTagParams{Name: "golang", Slug: "golang", CreatedAt: now})
	if err != nil {
		t.Fatalf("GetOrCreateTag: %v", err)
	}

	// Same name with different case resolves to the existing tag
	second, err := q.GetOrCreateTag(ctx, GetOrCreateTagParams{Name: "GoLang", Slug: "golang-2", CreatedAt: now})
	if err != nil {
		t.Fatalf("GetOrCreateTag second: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second.ID = %d, want %d", second.ID, first.ID)
	}
}

func TestSearchPosts(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	now := time.Now()

	alice := createTestUser(t, q, "alice")
	bob := createTestUser(t, q, "bob")

	cat, _ := q.CreateCategory(ctx, CreateCategoryParams{Name: "Cooking", Slug: "cooking", CreatedAt: now})

	p1, err := q.CreatePost(ctx, CreatePostParams{
		Title:       "Sourdough basics",
		Slug:        "sourdough-basics",
		Content:     "Flour, water, salt.",
		Status:      PostStatusPublished,
		PublishedAt: sql.NullTime{Time: now, Valid: true},
		CategoryID:  sql.NullInt64{Int64: cat.ID, Valid: true},
		AuthorID:    alice.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	createTestPost(t, q, bob.ID, "Mountain hiking", "mountain-hiking")

	tag, _ := q.CreateTag(ctx, CreateTagParams{Name: "baking", Slug: "baking", CreatedAt: now})
	if err := q.SetPostTags(ctx, p1.ID, []int64{tag.ID}); err != nil {
		t.Fatalf("SetPostTags: %v", err)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"title match", "sourdough", 1},
		{"title match case-insensitive", "SOURDOUGH", 1},
		{"content match", "flour", 1},
		{"category match", "cooking", 1},
		{"tag match", "baking", 1},
		{"author match", "bob", 1},
		{"no match", "quantum", 0},
		{"multi-field match counted once", "a", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := q.SearchPosts(ctx, SearchPostsParams{Query: tt.query, Limit: 10, Offset: 0})
			if err != nil {
				t.Fatalf("SearchPosts: %v", err)
			}
			if len(posts) != tt.want {
				t.Errorf("len(posts) = %d, want %d", len(posts), tt.want)
			}

			count, err := q.CountSearchPosts(ctx, tt.query)
			if err != nil {
				t.Fatalf("CountSearchPosts: %v", err)
			}
			if count != int64(tt.want) {
				t.Errorf("count = %d, want %d", count, tt.want)
			}
		})
	}
}

func TestSearchPosts_EscapesWildcards(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "author")
	createTestPost(t, q, user.ID, "Plain title", "plain-title")

	// A bare % would match everything if not escaped
	posts, err := q.SearchPosts(ctx, SearchPostsParams{Query: "100%", Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("SearchPosts: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("len(posts) = %d, want 0", len(posts))
	}
}

func TestListTrendingPosts(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	now := time.Now()
	user := createTestUser(t, q, "author")

	tag, _ := q.CreateTag(ctx, CreateTagParams{Name: "Trending", Slug: "trending", CreatedAt: now})

	for i := 0; i < 5; i++ {
		post := createTestPost(t, q, user.ID, fmt.Sprintf("Hot %d", i), fmt.Sprintf("hot-%d", i))
		if err := q.SetPostTags(ctx, post.ID, []int64{tag.ID}); err != nil {
			t.Fatalf("SetPostTags: %v", err)
		}
	}
	createTestPost(t, q, user.ID, "Cold", "cold")

	// Tag name matching is case-insensitive and the result is capped
	posts, err := q.ListTrendingPosts(ctx, "trending", 3)
	if err != nil {
		t.Fatalf("ListTrendingPosts: %v", err)
	}
	if len(posts) != 3 {
		t.Errorf("len(posts) = %d, want 3", len(posts))
	}
	for _, p := range posts {
		if p.Slug == "cold" {
			t.Error("untagged post in trending results")
		}
	}
}

func TestListTopAuthors(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	prolific := createTestUser(t, q, "prolific")
	casual := createTestUser(t, q, "casual")
	createTestUser(t, q, "lurker")

	for i := 0; i < 3; i++ {
		createTestPost(t, q, prolific.ID, fmt.Sprintf("P %d", i), fmt.Sprintf("p-%d", i))
	}
	createTestPost(t, q, casual.ID, "C", "c")

	authors, err := q.ListTopAuthors(ctx, 4)
	if err != nil {
		t.Fatalf("ListTopAuthors: %v", err)
	}
	if len(authors) != 3 {
		t.Fatalf("len(authors) = %d, want 3", len(authors))
	}
	if authors[0].Username != "prolific" || authors[0].PostCount != 3 {
		t.Errorf("first = %s (%d), want prolific (3)", authors[0].Username, authors[0].PostCount)
	}
	if authors[1].Username != "casual" {
		t.Errorf("second = %s, want casual", authors[1].Username)
	}
	if authors[2].PostCount != 0 {
		t.Errorf("lurker PostCount = %d, want 0", authors[2].PostCount)
	}
}

func TestToggleLike(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "liker")
	post := createTestPost(t, q, user.ID, "Likeable", "likeable")

	// First toggle likes
	liked, err := q.ToggleLike(ctx, ToggleLikeParams{PostID: post.ID, UserID: user.ID, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if !liked {
		t.Error("first toggle should like")
	}

	has, err := q.HasLiked(ctx, HasLikedParams{PostID: post.ID, UserID: user.ID})
	if err != nil {
		t.Fatalf("HasLiked: %v", err)
	}
	if !has {
		t.Error("HasLiked = false after like")
	}

	count, err := q.CountLikesForPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountLikesForPost: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	// Second toggle removes the like
	liked, err = q.ToggleLike(ctx, ToggleLikeParams{PostID: post.ID, UserID: user.ID, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("ToggleLike second: %v", err)
	}
	if liked {
		t.Error("second toggle should unlike")
	}

	count, err = q.CountLikesForPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountLikesForPost: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestComments(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author")
	commenter := createTestUser(t, q, "commenter")
	post := createTestPost(t, q, author.ID, "Discussed", "discussed")

	base := time.Now()
	for i := 0; i < 3; i++ {
		_, err := q.CreateComment(ctx, CreateCommentParams{
			PostID:    post.ID,
			UserID:    commenter.ID,
			Body:      fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}

	comments, err := q.ListCommentsForPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListCommentsForPost: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("len(comments) = %d, want 3", len(comments))
	}
	// Oldest first
	if comments[0].Body != "comment 0" {
		t.Errorf("first comment = %q, want %q", comments[0].Body, "comment 0")
	}
	if comments[0].Username != "commenter" {
		t.Errorf("Username = %q, want %q", comments[0].Username, "commenter")
	}

	count, err := q.CountCommentsForPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountCommentsForPost: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestDeletePost_CascadesCommentsAndLikes(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "author")
	post := createTestPost(t, q, user.ID, "Doomed", "doomed")

	_, err := q.CreateComment(ctx, CreateCommentParams{PostID: post.ID, UserID: user.ID, Body: "x", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if _, err := q.ToggleLike(ctx, ToggleLikeParams{PostID: post.ID, UserID: user.ID, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	if err := q.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}

	if _, err := q.GetPostByID(ctx, post.ID); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
	count, err := q.CountCommentsForPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountCommentsForPost: %v", err)
	}
	if count != 0 {
		t.Errorf("comment count = %d, want 0", count)
	}
	likes, err := q.CountLikesForPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountLikesForPost: %v", err)
	}
	if likes != 0 {
		t.Errorf("like count = %d, want 0", likes)
	}
}

func TestScheduledPublishing(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "author")

	now := time.Now()
	due, err := q.CreatePost(ctx, CreatePostParams{
		Title:       "Due",
		Slug:        "due",
		Content:     "x",
		Status:      PostStatusScheduled,
		PublishedAt: sql.NullTime{Time: now.Add(-time.Hour), Valid: true},
		AuthorID:    user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreatePost due: %v", err)
	}

	_, err = q.CreatePost(ctx, CreatePostParams{
		Title:       "Future",
		Slug:        "future",
		Content:     "x",
		Status:      PostStatusScheduled,
		PublishedAt: sql.NullTime{Time: now.Add(time.Hour), Valid: true},
		AuthorID:    user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreatePost future: %v", err)
	}

	pending, err := q.ListScheduledPostsDue(ctx, now)
	if err != nil {
		t.Fatalf("ListScheduledPostsDue: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("len(pending) = %d, want 1", len(pending))
	}
	if pending[0].ID != due.ID {
		t.Errorf("pending ID = %d, want %d", pending[0].ID, due.ID)
	}

	published, err := q.PublishPost(ctx, PublishPostParams{
		ID:          due.ID,
		PublishedAt: sql.NullTime{Time: now, Valid: true},
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("PublishPost: %v", err)
	}
	if published.Status != PostStatusPublished {
		t.Errorf("Status = %q, want %q", published.Status, PostStatusPublished)
	}
}

func TestCreateEnquiry(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	enq, err := q.CreateEnquiry(ctx, CreateEnquiryParams{
		Name:      "Visitor",
		Email:     "visitor@example.com",
		Contact:   "+49 30 555 0100",
		Subject:   "Hello",
		Message:   "Just saying hi.",
		IpAddress: sql.NullString{String: "203.0.113.7", Valid: true},
		Country:   sql.NullString{String: "DE", Valid: true},
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEnquiry: %v", err)
	}
	if enq.ID == 0 {
		t.Error("enq.ID should not be 0")
	}

	items, err := q.ListEnquiries(ctx, ListEnquiriesParams{Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("ListEnquiries: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Contact != "+49 30 555 0100" {
		t.Errorf("Contact = %q", items[0].Contact)
	}
	if items[0].Country.String != "DE" {
		t.Errorf("Country = %q, want DE", items[0].Country.String)
	}
}

func TestEvents(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	old := time.Now().Add(-48 * time.Hour)
	if err := q.CreateEvent(ctx, CreateEventParams{Level: "WARN", Message: "old", Meta: "{}", CreatedAt: old}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := q.CreateEvent(ctx, CreateEventParams{Level: "ERROR", Message: "recent", Meta: "{}", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	deleted, err := q.DeleteEventsBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	events, err := q.ListEvents(ctx, ListEventsParams{Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Message != "recent" {
		t.Errorf("Message = %q, want %q", events[0].Message, "recent")
	}
}

func TestSeed(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	admin, err := q.GetUserByUsername(ctx, SeedAdminUsername)
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if admin.Email != SeedAdminEmail {
		t.Errorf("Email = %q, want %q", admin.Email, SeedAdminEmail)
	}

	count, err := q.CountPublishedPosts(ctx)
	if err != nil {
		t.Fatalf("CountPublishedPosts: %v", err)
	}
	if count == 0 {
		t.Error("seed should create published posts")
	}

	// Second seed should skip
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Second Seed: %v", err)
	}
	users, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if users != 2 {
		t.Errorf("users = %d, want 2 (seed should skip if exists)", users)
	}
}
