package flows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/models"
	"github.com/vesilelab/vesilebot/bot/otp"
	"github.com/vesilelab/vesilebot/bot/storage"
)

// keyTexts resolves every key to itself, so tests drive label matchers with
// the raw translation keys.
type keyTexts struct{}

func (keyTexts) Text(locale, key string) string { return key }

type sent struct {
	Text     string
	Keyboard *conv.Keyboard
}

type recorder struct {
	msgs []sent
}

func (r *recorder) SendText(text string, kb *conv.Keyboard) error {
	r.msgs = append(r.msgs, sent{Text: text, Keyboard: kb})
	return nil
}

func (r *recorder) SendVideo(url, caption string, kb *conv.Keyboard) error {
	r.msgs = append(r.msgs, sent{Text: "video:" + url, Keyboard: kb})
	return nil
}

func (r *recorder) texts() []string {
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Text)
	}
	return out
}

func (r *recorder) contains(text string) bool {
	for _, m := range r.msgs {
		if strings.Contains(m.Text, text) {
			return true
		}
	}
	return false
}

type fakeGateway struct {
	profiles  map[int64]*models.Profile
	sentences []models.Sentence
	videos    []models.Video
	votes     []models.Vote
	nextID    int64

	rankErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{profiles: make(map[int64]*models.Profile), nextID: 100}
}

func (g *fakeGateway) id() int64 { g.nextID++; return g.nextID }

func (g *fakeGateway) FindProfile(_ context.Context, externalID int64) (*models.Profile, error) {
	for _, p := range g.profiles {
		if p.ExternalID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (g *fakeGateway) CreateProfile(_ context.Context, name, locale string, role models.Role, externalID int64) (*models.Profile, error) {
	p := &models.Profile{ID: g.id(), Name: name, Locale: locale, Role: role, ExternalID: externalID}
	g.profiles[p.ID] = p
	cp := *p
	return &cp, nil
}

func (g *fakeGateway) RankOf(context.Context, int64, models.Role) (*models.Rank, error) {
	if g.rankErr != nil {
		return nil, g.rankErr
	}
	return &models.Rank{Points: 5, Rank: 2}, nil
}

func (g *fakeGateway) RecordSentence(_ context.Context, ownerID int64, locale, content string) (int64, bool, error) {
	for _, s := range g.sentences {
		if s.Locale == locale && s.Content == content {
			return s.ID, false, nil
		}
	}
	s := models.Sentence{ID: g.id(), OwnerID: ownerID, Locale: locale, Content: content}
	g.sentences = append(g.sentences, s)
	return s.ID, true, nil
}

func (g *fakeGateway) ListSentences(_ context.Context, locale string) ([]models.Sentence, error) {
	var out []models.Sentence
	for _, s := range g.sentences {
		if s.Locale == locale {
			out = append(out, s)
		}
	}
	return out, nil
}

func (g *fakeGateway) OwnSentences(_ context.Context, ownerID int64) ([]models.Sentence, error) {
	var out []models.Sentence
	for _, s := range g.sentences {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (g *fakeGateway) DeleteSentence(_ context.Context, sentenceID, ownerID int64) ([]string, error) {
	var locators []string
	kept := g.sentences[:0]
	found := false
	for _, s := range g.sentences {
		if s.ID == sentenceID && s.OwnerID == ownerID {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	g.sentences = kept
	if !found {
		return nil, storage.ErrNotFound
	}
	keptVideos := g.videos[:0]
	for _, v := range g.videos {
		if v.SentenceID != nil && *v.SentenceID == sentenceID {
			locators = append(locators, v.Locator)
			continue
		}
		keptVideos = append(keptVideos, v)
	}
	g.videos = keptVideos
	return locators, nil
}

func (g *fakeGateway) RecordVideo(_ context.Context, nv models.NewVideo) (int64, error) {
	v := models.Video{
		ID: g.id(), OwnerID: nv.OwnerID, Locator: nv.Locator, Locale: nv.Locale,
		SentenceID: nv.SentenceID, ReferenceID: nv.ReferenceID, ClassroomID: nv.ClassroomID,
	}
	g.videos = append(g.videos, v)
	return v.ID, nil
}

func (g *fakeGateway) PickUnseenVideo(_ context.Context, profileID int64, locale string, exclude []int64, classroomID *string) (*models.VotableVideo, error) {
	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	for _, vote := range g.votes {
		if vote.VoterID == profileID {
			skip[vote.VideoID] = true
		}
	}
	for _, v := range g.videos {
		if v.OwnerID == profileID && v.ReferenceID != nil {
			skip[*v.ReferenceID] = true
		}
	}
	for _, v := range g.videos {
		if v.ReferenceID != nil || v.OwnerID == profileID || v.Locale != locale || skip[v.ID] {
			continue
		}
		if classroomID != nil && (v.ClassroomID == nil || *v.ClassroomID != *classroomID) {
			continue
		}
		return &models.VotableVideo{ID: v.ID, Locator: v.Locator, Sentence: "sentence"}, nil
	}
	return nil, storage.ErrNotFound
}

func (g *fakeGateway) OwnVideos(_ context.Context, ownerID int64) ([]models.VideoPair, error) {
	var out []models.VideoPair
	for _, v := range g.videos {
		if v.OwnerID == ownerID {
			out = append(out, models.VideoPair{ID: v.ID, Locator: v.Locator})
		}
	}
	return out, nil
}

func (g *fakeGateway) DeleteVideo(_ context.Context, videoID, ownerID int64) (string, error) {
	for i, v := range g.videos {
		if v.ID == videoID && v.OwnerID == ownerID {
			g.videos = append(g.videos[:i], g.videos[i+1:]...)
			return v.Locator, nil
		}
	}
	return "", storage.ErrNotFound
}

func (g *fakeGateway) AddVideoScore(_ context.Context, videoID int64, dir models.VoteDirection) error {
	for i := range g.videos {
		if g.videos[i].ID == videoID {
			if dir == models.VoteUp {
				g.videos[i].UpScore++
			} else {
				g.videos[i].DownScore++
			}
			return nil
		}
	}
	return storage.ErrNotFound
}

func (g *fakeGateway) RecordVote(_ context.Context, voterID, videoID int64, dir models.VoteDirection) (int64, error) {
	v := models.Vote{ID: g.id(), VoterID: voterID, VideoID: videoID, Type: dir, CastAt: time.Now()}
	g.votes = append(g.votes, v)
	return v.ID, nil
}

func (g *fakeGateway) FeedbackFor(_ context.Context, videoID int64) ([]string, error) {
	var notes []string
	for _, v := range g.votes {
		if v.VideoID == videoID && v.Feedback != nil && *v.Feedback != "" {
			notes = append(notes, *v.Feedback)
		}
	}
	return notes, nil
}

func (g *fakeGateway) SetVoteFeedback(_ context.Context, voteID int64, feedback string) error {
	for i := range g.votes {
		if g.votes[i].ID == voteID {
			g.votes[i].Feedback = &feedback
			return nil
		}
	}
	return storage.ErrNotFound
}

func (g *fakeGateway) ValidateClassroom(_ context.Context, classroomID, password string) (bool, error) {
	return classroomID == "c1" && password == "secret", nil
}

func (g *fakeGateway) SetProfileClassroom(_ context.Context, profileID int64, classroomID *string) error {
	p, ok := g.profiles[profileID]
	if !ok {
		return storage.ErrNotFound
	}
	p.ClassroomID = classroomID
	return nil
}

func (g *fakeGateway) ListProfiles(context.Context) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range g.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (g *fakeGateway) ProfilesBy(_ context.Context, column, value string) ([]models.Profile, error) {
	if column != "user_role" {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	var out []models.Profile
	for _, p := range g.profiles {
		if string(p.Role) == value {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (g *fakeGateway) UpdateProfileField(_ context.Context, profileID int64, column, value string) error {
	if _, ok := g.profiles[profileID]; !ok {
		return storage.ErrNotFound
	}
	return nil
}

func (g *fakeGateway) DeleteProfile(_ context.Context, profileID int64) error {
	if _, ok := g.profiles[profileID]; !ok {
		return storage.ErrNotFound
	}
	delete(g.profiles, profileID)
	return nil
}

type fakeBlob struct {
	objects map[string][]byte
	deleted []string
}

func newFakeBlob() *fakeBlob { return &fakeBlob{objects: make(map[string][]byte)} }

func (b *fakeBlob) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBlob) Delete(_ context.Context, key string) (bool, error) {
	_, ok := b.objects[key]
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return ok, nil
}

func (b *fakeBlob) SignedReadURL(_ context.Context, key string) (string, error) {
	return "https://signed.example/" + key, nil
}

type fakeMedia struct{}

func (fakeMedia) Open(context.Context, conv.Media) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("bytes")), nil
}

type fakeNotifier struct {
	relayed []string
}

func (n *fakeNotifier) Relay(profileID int64, name, text string) error {
	n.relayed = append(n.relayed, text)
	return nil
}

type fixture struct {
	engine   *conv.Engine
	gw       *fakeGateway
	blob     *fakeBlob
	notifier *fakeNotifier
	out      *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine, err := conv.New(conv.Config{FallbackDelay: time.Hour}, keyTexts{}, nil)
	if err != nil {
		t.Fatalf("conv.New: %v", err)
	}
	t.Cleanup(engine.Shutdown)

	gw := newFakeGateway()
	blobStore := newFakeBlob()
	notifier := &fakeNotifier{}
	fl := New(gw, blobStore, fakeMedia{}, notifier, otp.Static("424242"), Options{PageSize: 10})
	fl.Register(engine)

	return &fixture{engine: engine, gw: gw, blob: blobStore, notifier: notifier, out: &recorder{}}
}

func (fx *fixture) send(t *testing.T, userID int64, ev conv.Event) {
	t.Helper()
	if err := fx.engine.OnEvent(context.Background(), userID, ev, fx.out); err != nil {
		t.Fatalf("OnEvent(%v): %v", ev, err)
	}
}

func (fx *fixture) state(userID int64) conv.State {
	return fx.engine.Sessions().Resolve(userID).State()
}

func TestRegistrationUserPath(t *testing.T) {
	fx := newFixture(t)

	fx.send(t, 50, conv.TextEvent("/start"))
	if got := fx.state(50); got != conv.StateLocale {
		t.Fatalf("state = %q, want %q", got, conv.StateLocale)
	}

	fx.send(t, 50, conv.TextEvent("lang_ru"))
	if got := fx.state(50); got != conv.StateConsent {
		t.Fatalf("state = %q, want %q", got, conv.StateConsent)
	}

	fx.send(t, 50, conv.TextEvent("confirm_button"))
	fx.send(t, 50, conv.TextEvent("role_user"))

	if got := fx.state(50); got != conv.StateUserMenu {
		t.Fatalf("state = %q, want %q", got, conv.StateUserMenu)
	}
	p, err := fx.gw.FindProfile(context.Background(), 50)
	if err != nil {
		t.Fatalf("profile was not created: %v", err)
	}
	if p.Role != models.RoleUser || p.Locale != "ru" {
		t.Fatalf("profile = %+v, want User/ru", p)
	}
	sess := fx.engine.Sessions().Resolve(50)
	if id, ok := sess.AttrInt64(attrProfileID); !ok || id != p.ID {
		t.Fatalf("cached profile id = %d, %v", id, ok)
	}
}

func TestRegistrationTranslatorNeedsAccessCode(t *testing.T) {
	fx := newFixture(t)

	fx.send(t, 51, conv.TextEvent("/start"))
	fx.send(t, 51, conv.TextEvent("lang_az"))
	fx.send(t, 51, conv.TextEvent("confirm_button"))
	fx.send(t, 51, conv.TextEvent("role_translator"))
	if got := fx.state(51); got != conv.StateRoleCode {
		t.Fatalf("state = %q, want %q", got, conv.StateRoleCode)
	}

	fx.send(t, 51, conv.TextEvent("000000"))
	if got := fx.state(51); got != conv.StateRole {
		t.Fatalf("wrong code must return to role choice, state = %q", got)
	}
	if !fx.out.contains("wrong_code") {
		t.Fatal("wrong code notice missing")
	}

	fx.send(t, 51, conv.TextEvent("role_translator"))
	fx.send(t, 51, conv.TextEvent("424242"))
	if got := fx.state(51); got != conv.StateTranslatorMenu {
		t.Fatalf("state = %q, want %q", got, conv.StateTranslatorMenu)
	}
	p, err := fx.gw.FindProfile(context.Background(), 51)
	if err != nil || p.Role != models.RoleTranslator {
		t.Fatalf("profile = %+v, %v; want Translator", p, err)
	}
}

func TestKnownProfileSkipsRegistration(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.gw.CreateProfile(context.Background(), "back", "ua", models.RoleTranslator, 52); err != nil {
		t.Fatal(err)
	}

	fx.send(t, 52, conv.TextEvent("/start"))
	if got := fx.state(52); got != conv.StateTranslatorMenu {
		t.Fatalf("state = %q, want %q", got, conv.StateTranslatorMenu)
	}
	sess := fx.engine.Sessions().Resolve(52)
	if loc, _ := sess.AttrString(conv.AttrLocale); loc != "ua" {
		t.Fatalf("cached locale = %q, want ua", loc)
	}
}

// registerTranslator walks a fresh account to the translator menu.
func registerTranslator(t *testing.T, fx *fixture, userID int64) {
	t.Helper()
	fx.send(t, userID, conv.TextEvent("/start"))
	fx.send(t, userID, conv.TextEvent("lang_az"))
	fx.send(t, userID, conv.TextEvent("confirm_button"))
	fx.send(t, userID, conv.TextEvent("role_translator"))
	fx.send(t, userID, conv.TextEvent("424242"))
	if got := fx.state(userID); got != conv.StateTranslatorMenu {
		t.Fatalf("setup: state = %q, want translator menu", got)
	}
}

func TestWriteSentenceCancelReturnsToMenu(t *testing.T) {
	fx := newFixture(t)
	registerTranslator(t, fx, 53)

	fx.send(t, 53, conv.TextEvent("menu_write_sentence"))
	if got := fx.state(53); got != conv.StateWriteSentence {
		t.Fatalf("state = %q, want %q", got, conv.StateWriteSentence)
	}

	fx.send(t, 53, conv.TextEvent("cancel_button"))
	if got := fx.state(53); got != conv.StateTranslatorMenu {
		t.Fatalf("cancel went to %q, want back to menu", got)
	}
	if len(fx.gw.sentences) != 0 {
		t.Fatalf("cancel recorded %d sentences", len(fx.gw.sentences))
	}
}

func TestSentenceUploadRoundTrip(t *testing.T) {
	fx := newFixture(t)
	registerTranslator(t, fx, 54)

	fx.send(t, 54, conv.TextEvent("menu_write_sentence"))
	fx.send(t, 54, conv.TextEvent("Salam dünya"))
	if got := fx.state(54); got != conv.StateTranslatorUpload {
		t.Fatalf("state = %q, want %q", got, conv.StateTranslatorUpload)
	}

	// Non-video input re-prompts without changing state.
	fx.send(t, 54, conv.TextEvent("text instead"))
	if got := fx.state(54); got != conv.StateTranslatorUpload {
		t.Fatalf("state = %q after stray text, want unchanged", got)
	}
	if !fx.out.contains("send_video_only") {
		t.Fatal("re-prompt missing")
	}

	fx.send(t, 54, conv.MediaEvent(conv.Media{FileID: "f1", Size: 5}))
	if got := fx.state(54); got != conv.StateTranslatorMenu {
		t.Fatalf("state = %q, want back to menu", got)
	}
	if len(fx.gw.videos) != 1 {
		t.Fatalf("videos = %d, want 1", len(fx.gw.videos))
	}
	v := fx.gw.videos[0]
	if v.SentenceID == nil {
		t.Fatal("video not bound to the sentence")
	}
	if _, ok := fx.blob.objects[v.Locator]; !ok {
		t.Fatalf("no object stored under %q", v.Locator)
	}
	if !strings.HasPrefix(v.Locator, "videos/Translator/") || !strings.HasSuffix(v.Locator, ".mp4") {
		t.Fatalf("locator = %q", v.Locator)
	}
}

func TestDuplicateSentenceWarnsAndProceeds(t *testing.T) {
	fx := newFixture(t)
	registerTranslator(t, fx, 55)

	fx.send(t, 55, conv.TextEvent("menu_write_sentence"))
	fx.send(t, 55, conv.TextEvent("Salam"))
	fx.send(t, 55, conv.TextEvent("cancel_button"))

	fx.send(t, 55, conv.TextEvent("menu_write_sentence"))
	fx.out.msgs = nil
	fx.send(t, 55, conv.TextEvent("Salam"))

	if !fx.out.contains("duplicate_sentence") {
		t.Fatal("duplicate warning missing")
	}
	if got := fx.state(55); got != conv.StateTranslatorUpload {
		t.Fatalf("duplicate must still proceed to upload, state = %q", got)
	}
	if len(fx.gw.sentences) != 1 {
		t.Fatalf("sentences = %d, want deduplicated 1", len(fx.gw.sentences))
	}
}

func TestOwnSentencesPaginationClamps(t *testing.T) {
	fx := newFixture(t)
	registerTranslator(t, fx, 56)
	ownerID, _ := fx.engine.Sessions().Resolve(56).AttrInt64(attrProfileID)
	for i := 0; i < 23; i++ {
		if _, _, err := fx.gw.RecordSentence(context.Background(), ownerID, "az", fmt.Sprintf("sentence %02d", i)); err != nil {
			t.Fatal(err)
		}
	}

	fx.send(t, 56, conv.TextEvent("menu_edit_sentences"))
	if got := fx.state(56); got != conv.StateBrowseSentences {
		t.Fatalf("state = %q", got)
	}

	fx.out.msgs = nil
	fx.send(t, 56, conv.CallbackEvent(cbSentenceNav, "2"))
	last := fx.out.msgs[len(fx.out.msgs)-1]
	if !strings.Contains(last.Text, "sentence 22") || strings.Contains(last.Text, "sentence 19") {
		t.Fatalf("last page wrong:\n%s", last.Text)
	}

	// Out-of-range page requests clamp to the last page.
	fx.out.msgs = nil
	fx.send(t, 56, conv.CallbackEvent(cbSentenceNav, "99"))
	last = fx.out.msgs[len(fx.out.msgs)-1]
	if !strings.Contains(last.Text, "sentence 22") {
		t.Fatalf("page 99 did not clamp:\n%s", last.Text)
	}
}

func TestDeleteSentenceRemovesBlobObjects(t *testing.T) {
	fx := newFixture(t)
	registerTranslator(t, fx, 57)

	fx.send(t, 57, conv.TextEvent("menu_write_sentence"))
	fx.send(t, 57, conv.TextEvent("tə cümlə"))
	fx.send(t, 57, conv.MediaEvent(conv.Media{FileID: "f2", Size: 5}))
	sentenceID := fx.gw.sentences[0].ID

	fx.send(t, 57, conv.TextEvent("menu_edit_sentences"))
	fx.send(t, 57, conv.CallbackEvent(cbSentenceDelete, fmt.Sprintf("%d", sentenceID)))

	if len(fx.gw.sentences) != 0 {
		t.Fatalf("sentence not deleted")
	}
	if len(fx.blob.objects) != 0 {
		t.Fatalf("blob objects left: %v", fx.blob.objects)
	}
}

func TestVotingDownAttachesFeedback(t *testing.T) {
	fx := newFixture(t)
	registerTranslator(t, fx, 58)

	// Another translator's videos to vote on. A second candidate keeps the
	// session in the voting state after the first judgement.
	other, _ := fx.gw.CreateProfile(context.Background(), "other", "az", models.RoleTranslator, 900)
	sid, _, _ := fx.gw.RecordSentence(context.Background(), other.ID, "az", "other sentence")
	videoID, _ := fx.gw.RecordVideo(context.Background(), models.NewVideo{OwnerID: other.ID, Locator: "videos/Translator/x.mp4", Locale: "az", SentenceID: &sid})
	_, _ = fx.gw.RecordVideo(context.Background(), models.NewVideo{OwnerID: other.ID, Locator: "videos/Translator/y.mp4", Locale: "az", SentenceID: &sid})

	fx.send(t, 58, conv.TextEvent("menu_vote"))
	if got := fx.state(58); got != conv.StateVoting {
		t.Fatalf("state = %q", got)
	}

	fx.send(t, 58, conv.CallbackEvent(cbVote, fmt.Sprintf("down:%d", videoID)))
	if len(fx.gw.votes) != 1 || fx.gw.votes[0].Type != models.VoteDown {
		t.Fatalf("votes = %+v", fx.gw.votes)
	}
	if fx.gw.videos[0].DownScore != 1 {
		t.Fatalf("down score = %d, want 1", fx.gw.videos[0].DownScore)
	}

	fx.send(t, 58, conv.TextEvent("too blurry"))
	if fx.gw.votes[0].Feedback == nil || *fx.gw.votes[0].Feedback != "too blurry" {
		t.Fatalf("feedback = %v", fx.gw.votes[0].Feedback)
	}
}

func TestOwnVideoFeedbackView(t *testing.T) {
	fx := newFixture(t)
	ownerID := registerUser(t, fx, 66)

	withNotes, _ := fx.gw.RecordVideo(context.Background(), models.NewVideo{OwnerID: ownerID, Locator: "videos/User/a.mp4", Locale: "az"})
	bare, _ := fx.gw.RecordVideo(context.Background(), models.NewVideo{OwnerID: ownerID, Locator: "videos/User/b.mp4", Locale: "az"})
	voteID, _ := fx.gw.RecordVote(context.Background(), 999, withNotes, models.VoteDown)
	if err := fx.gw.SetVoteFeedback(context.Background(), voteID, "too dark"); err != nil {
		t.Fatal(err)
	}

	fx.send(t, 66, conv.TextEvent("menu_my_videos"))
	if got := fx.state(66); got != conv.StateOwnVideos {
		t.Fatalf("state = %q", got)
	}

	// Each listed item carries a feedback button next to its delete button.
	page := fx.out.msgs[len(fx.out.msgs)-1]
	if page.Keyboard == nil || len(page.Keyboard.Inline) < 2 {
		t.Fatalf("keyboard = %+v", page.Keyboard)
	}
	row := page.Keyboard.Inline[0]
	if len(row) != 2 || row[1].Key != cbVideoFeedback {
		t.Fatalf("first item row = %+v", row)
	}

	fx.out.msgs = nil
	fx.send(t, 66, conv.CallbackEvent(cbVideoFeedback, fmt.Sprintf("%d", withNotes)))
	last := fx.out.msgs[len(fx.out.msgs)-1]
	if !strings.Contains(last.Text, "feedback_header") || !strings.Contains(last.Text, "too dark") {
		t.Fatalf("feedback view:\n%s", last.Text)
	}
	if got := fx.state(66); got != conv.StateOwnVideos {
		t.Fatalf("state after view = %q", got)
	}

	fx.out.msgs = nil
	fx.send(t, 66, conv.CallbackEvent(cbVideoFeedback, fmt.Sprintf("%d", bare)))
	if !fx.out.contains("no_feedback_yet") {
		t.Fatal("empty feedback notice missing")
	}
}

func TestVotingExhaustedPoolReturnsToMenu(t *testing.T) {
	fx := newFixture(t)
	registerTranslator(t, fx, 59)

	fx.send(t, 59, conv.TextEvent("menu_vote"))
	if got := fx.state(59); got != conv.StateTranslatorMenu {
		t.Fatalf("state = %q, want back in menu", got)
	}
	if !fx.out.contains("no_more_videos") {
		t.Fatal("empty pool notice missing")
	}
}

// registerUser walks a fresh account to the user menu.
func registerUser(t *testing.T, fx *fixture, userID int64) int64 {
	t.Helper()
	fx.send(t, userID, conv.TextEvent("/start"))
	fx.send(t, userID, conv.TextEvent("lang_az"))
	fx.send(t, userID, conv.TextEvent("confirm_button"))
	fx.send(t, userID, conv.TextEvent("role_user"))
	id, _ := fx.engine.Sessions().Resolve(userID).AttrInt64(attrProfileID)
	return id
}

func TestResponseUploadSkipExcludesVideo(t *testing.T) {
	fx := newFixture(t)
	registerUser(t, fx, 60)

	other, _ := fx.gw.CreateProfile(context.Background(), "tr", "az", models.RoleTranslator, 901)
	sid, _, _ := fx.gw.RecordSentence(context.Background(), other.ID, "az", "s1")
	_, _ = fx.gw.RecordVideo(context.Background(), models.NewVideo{OwnerID: other.ID, Locator: "videos/Translator/a.mp4", Locale: "az", SentenceID: &sid})
	_, _ = fx.gw.RecordVideo(context.Background(), models.NewVideo{OwnerID: other.ID, Locator: "videos/Translator/b.mp4", Locale: "az", SentenceID: &sid})

	fx.send(t, 60, conv.TextEvent("menu_request_video"))
	if got := fx.state(60); got != conv.StateResponseUpload {
		t.Fatalf("state = %q", got)
	}
	served, _ := fx.engine.Sessions().Resolve(60).AttrInt64(attrServedID)

	fx.send(t, 60, conv.TextEvent("skip_button"))
	second, _ := fx.engine.Sessions().Resolve(60).AttrInt64(attrServedID)
	if second == served {
		t.Fatalf("skip served the same video %d again", served)
	}

	// Both skipped: the pool is drained.
	fx.send(t, 60, conv.TextEvent("skip_button"))
	if got := fx.state(60); got != conv.StateUserMenu {
		t.Fatalf("state = %q, want user menu after drained pool", got)
	}
}

func TestResponseUploadStoresReference(t *testing.T) {
	fx := newFixture(t)
	userPID := registerUser(t, fx, 61)

	other, _ := fx.gw.CreateProfile(context.Background(), "tr", "az", models.RoleTranslator, 902)
	sid, _, _ := fx.gw.RecordSentence(context.Background(), other.ID, "az", "s1")
	refID, _ := fx.gw.RecordVideo(context.Background(), models.NewVideo{OwnerID: other.ID, Locator: "videos/Translator/a.mp4", Locale: "az", SentenceID: &sid})

	fx.send(t, 61, conv.TextEvent("menu_request_video"))
	fx.send(t, 61, conv.MediaEvent(conv.Media{FileID: "resp", Size: 5}))

	var response *models.Video
	for i := range fx.gw.videos {
		if fx.gw.videos[i].OwnerID == userPID {
			response = &fx.gw.videos[i]
		}
	}
	if response == nil {
		t.Fatal("response video not recorded")
	}
	if response.ReferenceID == nil || *response.ReferenceID != refID {
		t.Fatalf("reference = %v, want %d", response.ReferenceID, refID)
	}
	if !strings.HasPrefix(response.Locator, "videos/User/") {
		t.Fatalf("locator = %q", response.Locator)
	}
}

func TestJoinClassroomValidatesCredentials(t *testing.T) {
	fx := newFixture(t)
	pid := registerUser(t, fx, 62)

	fx.send(t, 62, conv.TextEvent("menu_join_classroom"))
	fx.send(t, 62, conv.TextEvent("c1 wrongpass"))
	if got := fx.state(62); got != conv.StateClassPassword {
		t.Fatalf("bad password changed state to %q", got)
	}
	if !fx.out.contains("classroom_invalid") {
		t.Fatal("invalid credentials notice missing")
	}

	fx.send(t, 62, conv.TextEvent("c1 secret"))
	if got := fx.state(62); got != conv.StateUserMenu {
		t.Fatalf("state = %q, want user menu", got)
	}
	p := fx.gw.profiles[pid]
	if p.ClassroomID == nil || *p.ClassroomID != "c1" {
		t.Fatalf("classroom = %v, want c1", p.ClassroomID)
	}
}

func TestContactRelaysToOperators(t *testing.T) {
	fx := newFixture(t)
	registerUser(t, fx, 63)

	fx.send(t, 63, conv.TextEvent("menu_contact"))
	fx.send(t, 63, conv.TextEvent("the bot ate my video"))

	if len(fx.notifier.relayed) != 1 || fx.notifier.relayed[0] != "the bot ate my video" {
		t.Fatalf("relayed = %v", fx.notifier.relayed)
	}
	if got := fx.state(63); got != conv.StateUserMenu {
		t.Fatalf("state = %q, want user menu", got)
	}
}

func TestGatewayErrorKeepsStateAndNotifies(t *testing.T) {
	fx := newFixture(t)
	registerUser(t, fx, 64)
	fx.gw.rankErr = errors.New("db down")

	fx.out.msgs = nil
	fx.send(t, 64, conv.TextEvent("menu_my_rank"))

	if !fx.out.contains("technical_difficulty") {
		t.Fatalf("sent = %v, want technical_difficulty", fx.out.texts())
	}
	if got := fx.state(64); got != conv.StateUserMenu {
		t.Fatalf("state = %q, want unchanged user menu", got)
	}
}

func TestPageHelper(t *testing.T) {
	cases := []struct {
		total, requested, size         int
		start, end, pageNum, pageCount int
	}{
		{0, 0, 10, 0, 0, 0, 1},
		{23, 0, 10, 0, 10, 0, 3},
		{23, 2, 10, 20, 23, 2, 3},
		{23, 99, 10, 20, 23, 2, 3},
		{23, -5, 10, 0, 10, 0, 3},
		{10, 1, 10, 0, 10, 0, 1},
	}
	for _, c := range cases {
		start, end, pageNum, pages := page(c.total, c.requested, c.size)
		if start != c.start || end != c.end || pageNum != c.pageNum || pages != c.pageCount {
			t.Errorf("page(%d,%d,%d) = %d,%d,%d,%d; want %d,%d,%d,%d",
				c.total, c.requested, c.size, start, end, pageNum, pages,
				c.start, c.end, c.pageNum, c.pageCount)
		}
	}
}

func TestWipedSessionGetsRestartPrompt(t *testing.T) {
	fx := newFixture(t)
	registerUser(t, fx, 65)

	// Simulate an evicted session that kept its state but lost its attrs.
	sess := fx.engine.Sessions().Resolve(65)
	sess.ClearAttr(attrProfileID)

	fx.out.msgs = nil
	fx.send(t, 65, conv.TextEvent("menu_my_rank"))

	if !fx.out.contains("session_expired") {
		t.Fatalf("sent = %v, want session_expired", fx.out.texts())
	}
	if got := fx.state(65); got != conv.StateEntry {
		t.Fatalf("state = %q, want entry", got)
	}
}
