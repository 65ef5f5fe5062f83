package conv

// State identifies a finite-state-machine step in the conversation.
type State string

const (
	// StateEntry is where every fresh or restarted conversation begins.
	StateEntry State = "entry"
	// StateTerminal marks an ended conversation; the next inbound event
	// restarts at StateEntry.
	StateTerminal State = "terminal"

	StateLocale   State = "locale"
	StateConsent  State = "consent"
	StateRole     State = "role"
	StateRoleCode State = "role_code"

	StateTranslatorMenu State = "translator_menu"
	StateUserMenu       State = "user_menu"
	StateAdminMenu      State = "admin_menu"
	StateClassroomMenu  State = "classroom_menu"

	StateWriteSentence State = "write_sentence"
	StateClassPassword State = "class_password"
	StateContact       State = "contact"

	StateTranslatorUpload State = "translator_upload"
	StateResponseUpload   State = "response_upload"

	StateBrowseSentences State = "browse_sentences"
	StateOwnVideos       State = "own_videos"
	StateVoting          State = "voting"

	StateAdminUsers  State = "admin_users"
	StateAdminFilter State = "admin_filter"
)
