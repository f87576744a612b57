package handler

import (
	"net/url"
	"testing"
)

func TestBuildPagination(t *testing.T) {
	tests := []struct {
		name           string
		currentPage    int
		totalItems     int64
		perPage        int
		wantPages      int
		wantHasPrev    bool
		wantHasNext    bool
		wantShouldShow bool
	}{
		{"empty", 1, 0, 6, 1, false, false, false},
		{"single page", 1, 5, 6, 1, false, false, false},
		{"exact fit", 1, 12, 6, 2, false, true, true},
		{"partial last page", 1, 13, 6, 3, false, true, true},
		{"middle page", 2, 18, 6, 3, true, true, true},
		{"last page", 3, 18, 6, 3, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPagination(tt.currentPage, tt.totalItems, tt.perPage, "/posts", nil)
			if p.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d; want %d", p.TotalPages, tt.wantPages)
			}
			if p.HasPrev != tt.wantHasPrev {
				t.Errorf("HasPrev = %v; want %v", p.HasPrev, tt.wantHasPrev)
			}
			if p.HasNext != tt.wantHasNext {
				t.Errorf("HasNext = %v; want %v", p.HasNext, tt.wantHasNext)
			}
			if p.ShouldShow() != tt.wantShouldShow {
				t.Errorf("ShouldShow() = %v; want %v", p.ShouldShow(), tt.wantShouldShow)
			}
		})
	}
}

func TestPaginationPreservesQuery(t *testing.T) {
	params := url.Values{"q": {"golang"}, "page": {"2"}}
	p := BuildPagination(2, 20, 6, "/posts", params)

	if p.QueryString != "q=golang" {
		t.Errorf("QueryString = %q; want %q", p.QueryString, "q=golang")
	}
	if got := p.PageURL(3); got != "/posts?q=golang&page=3" {
		t.Errorf("PageURL(3) = %q", got)
	}
	if got := p.PrevURL(); got != "/posts?q=golang&page=1" {
		t.Errorf("PrevURL() = %q", got)
	}
}

func TestPaginationPageURLWithoutQuery(t *testing.T) {
	p := BuildPagination(1, 20, 6, "/posts", nil)
	if got := p.NextURL(); got != "/posts?page=2" {
		t.Errorf("NextURL() = %q", got)
	}
}
