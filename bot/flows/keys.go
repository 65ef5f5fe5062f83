package flows

// Session attribute keys. Attributes live only for the session; everything
// durable goes through the gateway.
const (
	attrProfileID = "profile_id"
	attrRole      = "role"
	attrName      = "name"
	attrClassroom = "classroom_id"

	attrSentenceID = "sentence_id"
	attrServedID   = "served_video_id"
	attrVoteID     = "vote_id"
	attrSkipped    = "skipped_videos"
	attrScoped     = "classroom_scoped"
	attrPage       = "page"
)

// Translation keys used by the flows. Catalogs ship one entry per key per
// locale; a missing entry degrades to the key itself.
const (
	keyChooseLanguage = "choose_language"
	keyLangAz         = "lang_az"
	keyLangRu         = "lang_ru"
	keyLangUa         = "lang_ua"

	keyConsentMessage  = "consent_message"
	keyConfirmButton   = "confirm_button"
	keyCancelButton    = "cancel_button"
	keyConsentDeclined = "consent_declined"

	keyChooseRole      = "choose_role"
	keyRoleUser        = "role_user"
	keyRoleTranslator  = "role_translator"
	keyEnterAccessCode = "enter_access_code"
	keyWrongCode       = "wrong_code"

	keyTranslatorMenuTitle = "translator_menu_title"
	keyMenuViewSentences   = "menu_view_sentences"
	keyMenuWriteSentence   = "menu_write_sentence"
	keyMenuEditSentences   = "menu_edit_sentences"
	keyMenuVote            = "menu_vote"
	keyMenuViewCode        = "menu_view_code"
	keyAccessCodeIs        = "access_code_is"

	keyWriteSentencePrompt = "write_sentence_prompt"
	keyDuplicateSentence   = "duplicate_sentence"
	keyUploadVideoPrompt   = "upload_video_prompt"
	keySendVideoOnly       = "send_video_only"
	keyVideoSaved          = "video_saved"

	keySentencesEmpty = "sentences_empty"
	keySentencesPage  = "sentences_page"
	keyBackButton     = "back_button"
	keyDeleteButton   = "delete_button"
	keyPrevButton     = "prev_button"
	keyNextButton     = "next_button"
	keySentenceDeleted = "sentence_deleted"

	keyVoteUp       = "vote_up"
	keyVoteDown     = "vote_down"
	keyVoteRecorded = "vote_recorded"
	keyFeedbackAsk  = "feedback_prompt"
	keyFeedbackSaved = "feedback_saved"
	keyNoMoreVideos = "no_more_videos"

	keyUserMenuTitle     = "user_menu_title"
	keyMenuRequestVideo  = "menu_request_video"
	keyMenuMyVideos      = "menu_my_videos"
	keyMenuMyRank        = "menu_my_rank"
	keyMenuJoinClassroom = "menu_join_classroom"
	keyMenuOpenClassroom = "menu_open_classroom"
	keyMenuContact       = "menu_contact"
	keySkipButton        = "skip_button"
	keyResponseSaved     = "response_saved"
	keyRankMessage       = "rank_message"

	keyJoinClassroomPrompt = "join_classroom_prompt"
	keyClassroomJoined     = "classroom_joined"
	keyClassroomInvalid    = "classroom_invalid"
	keyClassroomMenuTitle  = "classroom_menu_title"
	keyMenuClassRequest    = "menu_classroom_request"
	keyMenuLeaveClassroom  = "menu_leave_classroom"
	keyClassroomLeft       = "classroom_left"

	keyContactPrompt = "contact_prompt"
	keyContactSent   = "contact_sent"

	keyOwnVideosEmpty = "own_videos_empty"
	keyOwnVideosPage  = "own_videos_page"
	keyVideoDeleted   = "video_deleted"
	keyFeedbackButton = "view_feedback"
	keyFeedbackHeader = "feedback_header"
	keyNoFeedbackYet  = "no_feedback_yet"

	keyAdminMenuTitle   = "admin_menu_title"
	keyMenuManageUsers  = "menu_manage_users"
	keyAdminUsersHint   = "admin_users_hint"
	keyAdminViewAll     = "admin_view_all"
	keyAdminFilterLabel = "admin_filter_button"
	keyAdminFilterHint  = "admin_filter_prompt"
	keyAdminUsersPage   = "admin_users_page"
	keyAdminDeleted     = "admin_deleted"
	keyAdminBadInput    = "admin_bad_input"
	keyAdminNoMatch     = "admin_no_match"

	keyGoodbye = "goodbye"
)

// Inline callback keys.
const (
	cbSentenceNav    = "sent_nav"
	cbSentenceDelete = "sent_del"
	cbVideoNav       = "vid_nav"
	cbVideoDelete    = "vid_del"
	cbVideoFeedback  = "vid_fb"
	cbVote           = "vote"
	cbUsersNav       = "usr_nav"
)
