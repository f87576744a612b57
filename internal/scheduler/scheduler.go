// Package scheduler runs background maintenance jobs: publishing
// scheduled posts, pruning old events, and refreshing the GeoIP database.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avolkov/inkpress/internal/geoip"
	"github.com/avolkov/inkpress/internal/logging"
	"github.com/avolkov/inkpress/internal/store"
)

// eventRetention is how long events are kept before pruning.
const eventRetention = 90 * 24 * time.Hour

// Scheduler handles periodic background tasks.
type Scheduler struct {
	db     *sql.DB
	geo    *geoip.Lookup
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a new scheduler instance. geo may be nil when GeoIP is
// not configured.
func New(db *sql.DB, geo *geoip.Lookup, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		geo:    geo,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the cron jobs and begins running them.
func (s *Scheduler) Start() error {
	// Publish due posts every minute
	if _, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.processScheduledPosts(); err != nil {
			s.logger.Error("failed to process scheduled posts", "error", err)
		}
	}); err != nil {
		return err
	}

	// Prune old events daily
	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune events", "error", err)
		}
	}); err != nil {
		return err
	}

	// Pick up GeoIP database updates weekly
	if s.geo != nil {
		if _, err := s.cron.AddFunc("0 4 * * 1", func() {
			if err := s.geo.Reload(); err != nil {
				s.logger.Warn("failed to reload GeoIP database", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// processScheduledPosts publishes posts whose scheduled time has passed.
func (s *Scheduler) processScheduledPosts() error {
	ctx := context.Background()
	queries := store.New(s.db)

	now := time.Now()
	posts, err := queries.ListScheduledPostsDue(ctx, now)
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		return nil
	}

	s.logger.Info("processing scheduled posts", "count", len(posts))

	for _, post := range posts {
		if err := s.publishPost(ctx, queries, post, now); err != nil {
			s.logger.Error("failed to publish scheduled post",
				"post_id", post.ID,
				"post_title", post.Title,
				"error", err,
			)
			continue
		}

		s.logger.Info("published scheduled post",
			"post_id", post.ID,
			"post_title", post.Title,
			"scheduled_at", post.PublishedAt.Time,
		)
	}

	return nil
}

// publishPost publishes a single scheduled post and records an event.
func (s *Scheduler) publishPost(ctx context.Context, queries *store.Queries, post store.Post, now time.Time) error {
	_, err := queries.PublishPost(ctx, store.PublishPostParams{
		ID:          post.ID,
		PublishedAt: sql.NullTime{Time: now, Valid: true},
		UpdatedAt:   now,
	})
	if err != nil {
		return err
	}

	meta, _ := json.Marshal(map[string]any{
		"post_id":      post.ID,
		"post_slug":    post.Slug,
		"published_at": now.Format(time.RFC3339),
	})

	if err := queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     logging.EventLevelInfo,
		Message:   "Post published by scheduler: " + post.Title,
		Meta:      string(meta),
		CreatedAt: now,
	}); err != nil {
		s.logger.Warn("failed to record scheduled publish event", "error", err)
	}

	return nil
}

// pruneEvents deletes events older than the retention window.
func (s *Scheduler) pruneEvents() error {
	ctx := context.Background()
	queries := store.New(s.db)

	cutoff := time.Now().Add(-eventRetention)
	deleted, err := queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.Info("pruned old events", "deleted", deleted, "cutoff", cutoff)
	}
	return nil
}
