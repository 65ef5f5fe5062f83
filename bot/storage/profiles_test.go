package storage

import (
	"context"
	"strings"
	"testing"
)

// The column allow-list is the guard between admin chat input and SQL text.
// Unknown columns must be rejected before any query is built.
func TestProfilesByRejectsUnknownColumn(t *testing.T) {
	g := &Gateway{}
	for _, column := range []string{
		"user_id",
		"password",
		"users; DROP TABLE users",
		"username--",
		"",
	} {
		if _, err := g.ProfilesBy(context.Background(), column, "x"); err == nil {
			t.Errorf("ProfilesBy accepted column %q", column)
		} else if !strings.Contains(err.Error(), "unknown column") {
			t.Errorf("ProfilesBy(%q) error = %v, want unknown column", column, err)
		}
	}
}

func TestUpdateProfileFieldRejectsUnknownColumn(t *testing.T) {
	g := &Gateway{}
	if err := g.UpdateProfileField(context.Background(), 1, "telegram_id) = 0 --", "x"); err == nil {
		t.Fatal("UpdateProfileField accepted a hostile column")
	}
}

func TestProfileColumnsCoverEditableFields(t *testing.T) {
	for _, column := range []string{"username", "locale", "user_role", "telegram_id", "classroom_id"} {
		if !profileColumns[column] {
			t.Errorf("column %q missing from the allow-list", column)
		}
	}
	if profileColumns["user_id"] {
		t.Error("primary key must not be editable")
	}
}
