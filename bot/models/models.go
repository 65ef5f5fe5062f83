package models

import "time"

// Role enumerates profile roles stored in the users table.
type Role string

const (
	RoleUser       Role = "User"
	RoleTranslator Role = "Translator"
	RoleAdmin      Role = "Admin"
)

// Profile is a registered participant resolved from a Telegram account.
type Profile struct {
	ID          int64   `db:"user_id"`
	Name        string  `db:"username"`
	Locale      string  `db:"locale"`
	Role        Role    `db:"user_role"`
	ExternalID  int64   `db:"telegram_id"`
	ClassroomID *string `db:"classroom_id"`
}

// Sentence is a text item translators record videos for.
type Sentence struct {
	ID      int64  `db:"sentence_id"`
	OwnerID int64  `db:"user_id"`
	Locale  string `db:"sentence_locale"`
	Content string `db:"sentence_content"`
}

// Video is a stored media item, either a translator recording bound to a
// sentence or a user response referencing a translator video.
type Video struct {
	ID          int64   `db:"video_id"`
	OwnerID     int64   `db:"user_id"`
	Locator     string  `db:"locator"`
	Locale      string  `db:"video_locale"`
	SentenceID  *int64  `db:"sentence_id"`
	ReferenceID *int64  `db:"reference_id"`
	ClassroomID *string `db:"classroom_id"`
	UpScore     int     `db:"up_score"`
	DownScore   int     `db:"down_score"`
}

// NewVideo carries the fields needed to record a video row.
type NewVideo struct {
	OwnerID     int64
	Locator     string
	Locale      string
	SentenceID  *int64
	ReferenceID *int64
	ClassroomID *string
}

// VotableVideo is a candidate served to a voter or responder, joined with
// the sentence it translates.
type VotableVideo struct {
	ID       int64  `db:"video_id"`
	Locator  string `db:"locator"`
	Sentence string `db:"sentence_content"`
}

// VideoPair is an own response video joined with the translator video it
// references, for the "my videos" browser.
type VideoPair struct {
	ID               int64   `db:"video_id"`
	Locator          string  `db:"locator"`
	ReferenceLocator *string `db:"reference_locator"`
	Sentence         *string `db:"sentence_content"`
}

// VoteDirection marks an up or down vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Vote is a recorded judgement on a video.
type Vote struct {
	ID       int64         `db:"vote_id"`
	VoterID  int64         `db:"user_id"`
	VideoID  int64         `db:"video_id"`
	Type     VoteDirection `db:"vote_type"`
	Feedback *string       `db:"feedback"`
	CastAt   time.Time     `db:"vote_timestamp"`
}

// Rank is a profile's score and position among its role.
type Rank struct {
	Points int `db:"points"`
	Rank   int `db:"rank"`
}

// Classroom groups profiles behind a shared password.
type Classroom struct {
	ID       string `db:"classroom_id"`
	Name     string `db:"classname"`
	Password string `db:"password"`
	OwnerID  int64  `db:"user_id"`
}
