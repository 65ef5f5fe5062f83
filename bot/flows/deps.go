// Package flows registers the conversation transition rules: registration,
// translator, user, classroom, voting, and admin.
package flows

import (
	"context"
	"io"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/models"
)

// Gateway is the persistence surface the flows depend on.
type Gateway interface {
	FindProfile(ctx context.Context, externalID int64) (*models.Profile, error)
	CreateProfile(ctx context.Context, name, locale string, role models.Role, externalID int64) (*models.Profile, error)
	RankOf(ctx context.Context, profileID int64, role models.Role) (*models.Rank, error)

	RecordSentence(ctx context.Context, ownerID int64, locale, content string) (int64, bool, error)
	ListSentences(ctx context.Context, locale string) ([]models.Sentence, error)
	OwnSentences(ctx context.Context, ownerID int64) ([]models.Sentence, error)
	DeleteSentence(ctx context.Context, sentenceID, ownerID int64) ([]string, error)

	RecordVideo(ctx context.Context, nv models.NewVideo) (int64, error)
	PickUnseenVideo(ctx context.Context, profileID int64, locale string, exclude []int64, classroomID *string) (*models.VotableVideo, error)
	OwnVideos(ctx context.Context, ownerID int64) ([]models.VideoPair, error)
	DeleteVideo(ctx context.Context, videoID, ownerID int64) (string, error)
	AddVideoScore(ctx context.Context, videoID int64, dir models.VoteDirection) error

	RecordVote(ctx context.Context, voterID, videoID int64, dir models.VoteDirection) (int64, error)
	SetVoteFeedback(ctx context.Context, voteID int64, feedback string) error
	FeedbackFor(ctx context.Context, videoID int64) ([]string, error)

	ValidateClassroom(ctx context.Context, classroomID, password string) (bool, error)
	SetProfileClassroom(ctx context.Context, profileID int64, classroomID *string) error

	ListProfiles(ctx context.Context) ([]models.Profile, error)
	ProfilesBy(ctx context.Context, column, value string) ([]models.Profile, error)
	UpdateProfileField(ctx context.Context, profileID int64, column, value string) error
	DeleteProfile(ctx context.Context, profileID int64) error
}

// Blob stores and serves video payloads.
type Blob interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) (bool, error)
	SignedReadURL(ctx context.Context, key string) (string, error)
}

// MediaSource fetches uploaded file bytes from the messaging transport.
type MediaSource interface {
	Open(ctx context.Context, m conv.Media) (io.ReadCloser, error)
}

// Notifier relays contact messages to the operators' channel.
type Notifier interface {
	Relay(profileID int64, name, text string) error
}

// Codes exposes the rotating translator access code.
type Codes interface {
	Current() string
}

// Flows wires the collaborators into the engine's rule table.
type Flows struct {
	gw       Gateway
	blob     Blob
	media    MediaSource
	notifier Notifier
	codes    Codes
	pageSize int
	adminID  int64
}

// Options configures flow registration.
type Options struct {
	// PageSize bounds list pages; zero means 10.
	PageSize int
	// AdminID is the Telegram account granted the admin flow.
	AdminID int64
}

// New builds the flow set.
func New(gw Gateway, blob Blob, media MediaSource, notifier Notifier, codes Codes, opts Options) *Flows {
	size := opts.PageSize
	if size <= 0 {
		size = 10
	}
	return &Flows{
		gw:       gw,
		blob:     blob,
		media:    media,
		notifier: notifier,
		codes:    codes,
		pageSize: size,
		adminID:  opts.AdminID,
	}
}

// Register installs every rule and prompt on the engine.
func (f *Flows) Register(e *conv.Engine) {
	f.registerEntry(e)
	f.registerRegistration(e)
	f.registerTranslator(e)
	f.registerVoting(e)
	f.registerUser(e)
	f.registerClassroom(e)
	f.registerAdmin(e)
}
