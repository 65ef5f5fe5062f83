package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/vesilelab/vesilebot/bot/models"
	"github.com/vesilelab/vesilebot/core/logger"
)

// RecordVideo stores a media row and returns its id.
func (g *Gateway) RecordVideo(ctx context.Context, nv models.NewVideo) (int64, error) {
	var id int64
	err := g.db.GetContext(ctx, &id, `
		INSERT INTO videos (user_id, locator, video_locale, sentence_id, reference_id, classroom_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING video_id`,
		nv.OwnerID, nv.Locator, nv.Locale, nv.SentenceID, nv.ReferenceID, nv.ClassroomID)
	if err != nil {
		return 0, fmt.Errorf("record video: %w", err)
	}
	logger.SVCVideos.Info("video recorded",
		slog.String("event", "video.record"),
		slog.Int64("video_id", id),
		slog.Int64("profile_id", nv.OwnerID),
		slog.String("locator", nv.Locator),
	)
	return id, nil
}

// PickUnseenVideo serves one random translator video in the locale that the
// profile has not made, voted on, or skipped this session. A non-nil
// classroomID narrows the pool to that classroom. ErrNotFound signals an
// exhausted pool.
func (g *Gateway) PickUnseenVideo(ctx context.Context, profileID int64, locale string, exclude []int64, classroomID *string) (*models.VotableVideo, error) {
	q := `
		SELECT v.video_id, v.locator, s.sentence_content
		FROM videos v
		JOIN sentences s ON s.sentence_id = v.sentence_id
		WHERE v.video_locale = ?
		  AND v.reference_id IS NULL
		  AND v.user_id <> ?
		  AND v.video_id NOT IN (SELECT video_id FROM votes WHERE user_id = ?)
		  AND v.video_id NOT IN (SELECT reference_id FROM videos WHERE user_id = ? AND reference_id IS NOT NULL)`
	args := []any{locale, profileID, profileID, profileID}
	if len(exclude) > 0 {
		q += ` AND v.video_id NOT IN (?)`
		args = append(args, exclude)
	}
	if classroomID != nil {
		q += ` AND v.classroom_id = ?`
		args = append(args, *classroomID)
	}
	q += ` ORDER BY RANDOM() LIMIT 1`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, fmt.Errorf("pick video: expand: %w", err)
	}

	var out models.VotableVideo
	err = g.db.GetContext(ctx, &out, g.db.Rebind(q), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pick video: %w", err)
	}
	return &out, nil
}

// OwnVideos returns the profile's response videos paired with the translator
// videos they answer, newest first.
func (g *Gateway) OwnVideos(ctx context.Context, ownerID int64) ([]models.VideoPair, error) {
	var out []models.VideoPair
	err := g.db.SelectContext(ctx, &out, `
		SELECT v.video_id,
		       v.locator,
		       ref.locator AS reference_locator,
		       s.sentence_content
		FROM videos v
		LEFT JOIN videos ref ON ref.video_id = v.reference_id
		LEFT JOIN sentences s ON s.sentence_id = ref.sentence_id
		WHERE v.user_id = $1
		ORDER BY v.video_id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("own videos: %w", err)
	}
	return out, nil
}

// DeleteVideo removes a video owned by the profile and returns its locator
// so the stored object can be dropped as well.
func (g *Gateway) DeleteVideo(ctx context.Context, videoID, ownerID int64) (string, error) {
	var locator string
	err := g.db.GetContext(ctx, &locator, `
		DELETE FROM videos
		WHERE video_id = $1 AND user_id = $2
		RETURNING locator`, videoID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("delete video: %w", err)
	}
	logger.SVCVideos.Info("video deleted",
		slog.String("event", "video.delete"),
		slog.Int64("video_id", videoID),
		slog.Int64("profile_id", ownerID),
	)
	return locator, nil
}

// AddVideoScore bumps the up or down tally on a video.
func (g *Gateway) AddVideoScore(ctx context.Context, videoID int64, dir models.VoteDirection) error {
	column := "up_score"
	if dir == models.VoteDown {
		column = "down_score"
	}
	q := fmt.Sprintf(`UPDATE videos SET %s = %s + 1 WHERE video_id = $1`, column, column)
	res, err := g.db.ExecContext(ctx, q, videoID)
	if err != nil {
		return fmt.Errorf("add video score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
