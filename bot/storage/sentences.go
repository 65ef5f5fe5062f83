package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"log/slog"

	"github.com/vesilelab/vesilebot/bot/models"
	"github.com/vesilelab/vesilebot/core/logger"
)

// RecordSentence stores a sentence unless one with identical content already
// exists in the same locale. It returns the row id either way; created is
// false when the content matched an existing row.
func (g *Gateway) RecordSentence(ctx context.Context, ownerID int64, locale, content string) (id int64, created bool, err error) {
	err = g.db.GetContext(ctx, &id, `
		SELECT sentence_id FROM sentences
		WHERE sentence_locale = $1 AND sentence_content = $2`, locale, content)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("record sentence lookup: %w", err)
	}

	err = g.db.GetContext(ctx, &id, `
		INSERT INTO sentences (user_id, sentence_locale, sentence_content)
		VALUES ($1, $2, $3)
		RETURNING sentence_id`, ownerID, locale, content)
	if err != nil {
		return 0, false, fmt.Errorf("record sentence: %w", err)
	}
	logger.SVCSentences.Info("sentence recorded",
		slog.String("event", "sentence.record"),
		slog.Int64("sentence_id", id),
		slog.Int64("profile_id", ownerID),
		slog.String("locale", locale),
	)
	return id, true, nil
}

// ListSentences returns every sentence in a locale, oldest first.
func (g *Gateway) ListSentences(ctx context.Context, locale string) ([]models.Sentence, error) {
	var out []models.Sentence
	err := g.db.SelectContext(ctx, &out, `
		SELECT sentence_id, user_id, sentence_locale, sentence_content
		FROM sentences
		WHERE sentence_locale = $1
		ORDER BY sentence_id ASC`, locale)
	if err != nil {
		return nil, fmt.Errorf("list sentences: %w", err)
	}
	return out, nil
}

// OwnSentences returns the sentences a profile wrote, oldest first.
func (g *Gateway) OwnSentences(ctx context.Context, ownerID int64) ([]models.Sentence, error) {
	var out []models.Sentence
	err := g.db.SelectContext(ctx, &out, `
		SELECT sentence_id, user_id, sentence_locale, sentence_content
		FROM sentences
		WHERE user_id = $1
		ORDER BY sentence_id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("own sentences: %w", err)
	}
	return out, nil
}

// DeleteSentence removes a sentence owned by the profile together with the
// videos recorded for it. It returns the locators of the removed videos so
// the caller can drop the stored objects too.
func (g *Gateway) DeleteSentence(ctx context.Context, sentenceID, ownerID int64) ([]string, error) {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("delete sentence: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var locators []string
	err = tx.SelectContext(ctx, &locators, `
		SELECT locator FROM videos WHERE sentence_id = $1`, sentenceID)
	if err != nil {
		return nil, fmt.Errorf("delete sentence: locators: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM sentences WHERE sentence_id = $1 AND user_id = $2`,
		sentenceID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("delete sentence: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("delete sentence: commit: %w", err)
	}
	logger.SVCSentences.Info("sentence deleted",
		slog.String("event", "sentence.delete"),
		slog.Int64("sentence_id", sentenceID),
		slog.Int64("profile_id", ownerID),
		slog.Int("pending_count", len(locators)),
	)
	return locators, nil
}
