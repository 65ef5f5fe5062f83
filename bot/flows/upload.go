package flows

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/models"
)

// storeUpload streams the turn's media into the blob store under a fresh
// role-scoped key and records the video row. The row is written only after
// the object upload succeeds.
func (f *Flows) storeUpload(t *conv.Turn, role models.Role, sentenceID, referenceID *int64, classroomID *string) (int64, error) {
	ownerID, err := profileID(t)
	if err != nil {
		return 0, err
	}
	m := t.Event.Media
	if m == nil {
		return 0, fmt.Errorf("flows: media event without payload")
	}

	body, err := f.media.Open(t.Ctx, *m)
	if err != nil {
		return 0, fmt.Errorf("flows: open upload: %w", err)
	}
	defer body.Close()

	key := fmt.Sprintf("videos/%s/%d/%s.mp4", role, ownerID, uuid.NewString())
	if err := f.blob.Put(t.Ctx, key, body, m.Size, "video/mp4"); err != nil {
		return 0, err
	}

	return f.gw.RecordVideo(t.Ctx, models.NewVideo{
		OwnerID:     ownerID,
		Locator:     key,
		Locale:      t.Locale(),
		SentenceID:  sentenceID,
		ReferenceID: referenceID,
		ClassroomID: classroomID,
	})
}
