package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/vesilelab/vesilebot/bot/models"
	"github.com/vesilelab/vesilebot/core/logger"
)

// FindProfile resolves a profile by its Telegram account id.
func (g *Gateway) FindProfile(ctx context.Context, externalID int64) (*models.Profile, error) {
	var p models.Profile
	err := g.db.GetContext(ctx, &p, `
		SELECT user_id, username, locale, user_role, telegram_id, classroom_id
		FROM users
		WHERE telegram_id = $1`, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

// CreateProfile inserts a profile row and returns it with its assigned id.
func (g *Gateway) CreateProfile(ctx context.Context, name, locale string, role models.Role, externalID int64) (*models.Profile, error) {
	start := time.Now()
	var p models.Profile
	err := g.db.GetContext(ctx, &p, `
		INSERT INTO users (username, locale, user_role, telegram_id)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id, username, locale, user_role, telegram_id, classroom_id`,
		name, locale, string(role), externalID)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	logger.SVCProfiles.Info("profile created",
		slog.String("event", "profile.create"),
		slog.Int64("profile_id", p.ID),
		slog.String("role", string(role)),
		slog.String("locale", locale),
		slog.Duration("duration", logger.Took(start)),
	)
	return &p, nil
}

// UpdateProfileRoleAndLocale rewrites the role and locale of an existing profile.
func (g *Gateway) UpdateProfileRoleAndLocale(ctx context.Context, profileID int64, role models.Role, locale string) error {
	res, err := g.db.ExecContext(ctx, `
		UPDATE users SET user_role = $1, locale = $2 WHERE user_id = $3`,
		string(role), locale, profileID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RankOf computes a profile's points and its rank among profiles with the
// same role. Points are the net vote score over the profile's videos.
func (g *Gateway) RankOf(ctx context.Context, profileID int64, role models.Role) (*models.Rank, error) {
	var r models.Rank
	err := g.db.GetContext(ctx, &r, `
		SELECT points, rank FROM (
			SELECT u.user_id,
			       COALESCE(SUM(v.up_score - v.down_score), 0) AS points,
			       RANK() OVER (ORDER BY COALESCE(SUM(v.up_score - v.down_score), 0) DESC) AS rank
			FROM users u
			LEFT JOIN videos v ON v.user_id = u.user_id
			WHERE u.user_role = $1
			GROUP BY u.user_id
		) ranked
		WHERE user_id = $2`, string(role), profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rank of %d: %w", profileID, err)
	}
	return &r, nil
}

// ListProfiles returns every profile ordered by id.
func (g *Gateway) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	err := g.db.SelectContext(ctx, &out, `
		SELECT user_id, username, locale, user_role, telegram_id, classroom_id
		FROM users
		ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

// profileColumns lists the columns admins may filter or edit. Column names
// arrive from chat input, so they are matched against this allow-list instead
// of being interpolated directly.
var profileColumns = map[string]bool{
	"username":     true,
	"locale":       true,
	"user_role":    true,
	"telegram_id":  true,
	"classroom_id": true,
}

// ProfilesBy returns profiles whose column equals value.
func (g *Gateway) ProfilesBy(ctx context.Context, column, value string) ([]models.Profile, error) {
	if !profileColumns[column] {
		return nil, fmt.Errorf("profiles by: unknown column %q", column)
	}
	var out []models.Profile
	q := fmt.Sprintf(`
		SELECT user_id, username, locale, user_role, telegram_id, classroom_id
		FROM users
		WHERE %s = $1
		ORDER BY user_id ASC`, column)
	if err := g.db.SelectContext(ctx, &out, q, value); err != nil {
		return nil, fmt.Errorf("profiles by %s: %w", column, err)
	}
	return out, nil
}

// UpdateProfileField sets one allow-listed column on a profile.
func (g *Gateway) UpdateProfileField(ctx context.Context, profileID int64, column, value string) error {
	if !profileColumns[column] {
		return fmt.Errorf("update field: unknown column %q", column)
	}
	q := fmt.Sprintf(`UPDATE users SET %s = $1 WHERE user_id = $2`, column)
	res, err := g.db.ExecContext(ctx, q, value, profileID)
	if err != nil {
		return fmt.Errorf("update field %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCProfiles.Info("profile updated",
		slog.String("event", "profile.update"),
		slog.Int64("profile_id", profileID),
	)
	return nil
}

// DeleteProfile removes a profile row. Dependent rows cascade in the schema.
func (g *Gateway) DeleteProfile(ctx context.Context, profileID int64) error {
	res, err := g.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, profileID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCProfiles.Info("profile deleted",
		slog.String("event", "profile.delete"),
		slog.Int64("profile_id", profileID),
	)
	return nil
}
