package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHome(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	h := NewHomeHandler(db, testRenderer(t, sm))

	author := createTestUser(t, db, testUser{Username: "writer", Email: "writer@example.com"})
	post := createTestPost(t, db, testPost{Title: "Trendy", Slug: "trendy", Content: "Hot stuff", AuthorID: author.ID})

	// Tag one post as trending
	now := time.Now()
	res, err := db.Exec(`INSERT INTO tags (name, slug, created_at) VALUES ('Trending', 'trending', ?)`, now)
	if err != nil {
		t.Fatalf("failed to insert tag: %v", err)
	}
	tagID, _ := res.LastInsertId()
	if _, err := db.Exec(`INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)`, post.ID, tagID); err != nil {
		t.Fatalf("failed to tag post: %v", err)
	}

	r := requestWithSession(sm, httptest.NewRequest("GET", "/", nil))
	w := httptest.NewRecorder()
	h.Home(w, r)

	assertStatus(t, w.Code, http.StatusOK)
}

func TestHomeEmpty(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	h := NewHomeHandler(db, testRenderer(t, sm))

	r := requestWithSession(sm, httptest.NewRequest("GET", "/", nil))
	w := httptest.NewRecorder()
	h.Home(w, r)

	assertStatus(t, w.Code, http.StatusOK)
}

func TestAbout(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	h := NewHomeHandler(db, testRenderer(t, sm))

	r := requestWithSession(sm, httptest.NewRequest("GET", "/about", nil))
	w := httptest.NewRecorder()
	h.About(w, r)

	assertStatus(t, w.Code, http.StatusOK)
}
