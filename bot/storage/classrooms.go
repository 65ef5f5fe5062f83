package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"log/slog"

	"github.com/vesilelab/vesilebot/core/logger"
)

// ValidateClassroom checks a classroom id and password pair.
func (g *Gateway) ValidateClassroom(ctx context.Context, classroomID, password string) (bool, error) {
	var found string
	err := g.db.GetContext(ctx, &found, `
		SELECT classroom_id FROM classrooms
		WHERE classroom_id = $1 AND password = $2`, classroomID, password)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("validate classroom: %w", err)
	}
	return true, nil
}

// SetProfileClassroom enrolls a profile in a classroom, or unenrolls it when
// classroomID is nil.
func (g *Gateway) SetProfileClassroom(ctx context.Context, profileID int64, classroomID *string) error {
	res, err := g.db.ExecContext(ctx, `
		UPDATE users SET classroom_id = $1 WHERE user_id = $2`, classroomID, profileID)
	if err != nil {
		return fmt.Errorf("set classroom: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	cid := ""
	if classroomID != nil {
		cid = *classroomID
	}
	logger.SVCClassrooms.Info("classroom membership changed",
		slog.String("event", "classroom.membership"),
		slog.Int64("profile_id", profileID),
		slog.String("classroom_id", cid),
	)
	return nil
}
