package storage

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/vesilelab/vesilebot/bot/models"
	"github.com/vesilelab/vesilebot/core/logger"
)

// RecordVote stores a judgement and returns the vote id.
func (g *Gateway) RecordVote(ctx context.Context, voterID, videoID int64, dir models.VoteDirection) (int64, error) {
	var id int64
	err := g.db.GetContext(ctx, &id, `
		INSERT INTO votes (user_id, video_id, vote_type, vote_timestamp)
		VALUES ($1, $2, $3, NOW())
		RETURNING vote_id`, voterID, videoID, string(dir))
	if err != nil {
		return 0, fmt.Errorf("record vote: %w", err)
	}
	logger.SVCVotes.Info("vote recorded",
		slog.String("event", "vote.record"),
		slog.Int64("vote_id", id),
		slog.Int64("video_id", videoID),
		slog.Int64("profile_id", voterID),
	)
	return id, nil
}

// FeedbackFor returns the non-empty feedback notes voters left on a video.
func (g *Gateway) FeedbackFor(ctx context.Context, videoID int64) ([]string, error) {
	var notes []string
	err := g.db.SelectContext(ctx, &notes, `
		SELECT feedback FROM votes
		WHERE video_id = $1 AND feedback IS NOT NULL AND feedback <> ''`, videoID)
	if err != nil {
		return nil, fmt.Errorf("feedback for video %d: %w", videoID, err)
	}
	return notes, nil
}

// SetVoteFeedback attaches free-text feedback to an earlier vote.
func (g *Gateway) SetVoteFeedback(ctx context.Context, voteID int64, feedback string) error {
	res, err := g.db.ExecContext(ctx, `
		UPDATE votes SET feedback = $1 WHERE vote_id = $2`, feedback, voteID)
	if err != nil {
		return fmt.Errorf("set vote feedback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
