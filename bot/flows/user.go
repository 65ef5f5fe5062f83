package flows

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/models"
	"github.com/vesilelab/vesilebot/bot/storage"
)

func (f *Flows) registerUser(e *conv.Engine) {
	e.Handle(conv.StateUserMenu, conv.Label(keyMenuRequestVideo), func(t *conv.Turn) (conv.State, error) {
		t.Session.ClearAttr(attrScoped)
		return f.serveRequest(t)
	})
	e.Handle(conv.StateUserMenu, conv.Label(keyMenuMyVideos), func(t *conv.Turn) (conv.State, error) {
		return f.showOwnVideos(t, 0)
	})
	e.Handle(conv.StateUserMenu, conv.Label(keyMenuMyRank), func(t *conv.Turn) (conv.State, error) {
		id, err := profileID(t)
		if err != nil {
			return "", err
		}
		rank, err := f.gw.RankOf(t.Ctx, id, sessionRole(t))
		if err != nil {
			return "", err
		}
		if err := t.Send(t.Textf(keyRankMessage, rank.Points, rank.Rank), nil); err != nil {
			return "", err
		}
		return conv.StateUserMenu, nil
	})
	e.Handle(conv.StateUserMenu, conv.Label(keyMenuJoinClassroom), func(t *conv.Turn) (conv.State, error) {
		kb := conv.ReplyKeyboard([]string{t.Text(keyCancelButton)})
		if err := t.Send(t.Text(keyJoinClassroomPrompt), kb); err != nil {
			return "", err
		}
		return conv.StateClassPassword, nil
	})
	e.Handle(conv.StateUserMenu, conv.Label(keyMenuOpenClassroom), func(t *conv.Turn) (conv.State, error) {
		return f.showClassroomMenu(t)
	})
	e.Handle(conv.StateUserMenu, conv.Label(keyMenuContact), func(t *conv.Turn) (conv.State, error) {
		kb := conv.ReplyKeyboard([]string{t.Text(keyCancelButton)})
		if err := t.Send(t.Text(keyContactPrompt), kb); err != nil {
			return "", err
		}
		return conv.StateContact, nil
	})
	e.Handle(conv.StateUserMenu, conv.Label(keyCancelButton), endConversation)
	e.Prompt(conv.StateUserMenu, f.showUserMenu)

	e.Handle(conv.StateResponseUpload, conv.Label(keyCancelButton), func(t *conv.Turn) (conv.State, error) {
		f.clearRequest(t)
		return f.showUserMenu(t)
	})
	e.Handle(conv.StateResponseUpload, conv.Label(keySkipButton), func(t *conv.Turn) (conv.State, error) {
		if served, ok := t.Session.AttrInt64(attrServedID); ok {
			t.Session.AddToInt64Set(attrSkipped, served)
		}
		return f.serveRequest(t)
	})
	e.Handle(conv.StateResponseUpload, conv.AnyMedia(), func(t *conv.Turn) (conv.State, error) {
		served, ok := t.Session.AttrInt64(attrServedID)
		if !ok {
			return f.serveRequest(t)
		}
		var classroomID *string
		if t.Session.AttrBool(attrScoped) {
			if cid, ok := t.Session.AttrString(attrClassroom); ok {
				classroomID = &cid
			}
		}
		if _, err := f.storeUpload(t, models.RoleUser, nil, &served, classroomID); err != nil {
			return "", err
		}
		t.Session.AddToInt64Set(attrSkipped, served)
		if err := t.Send(t.Text(keyResponseSaved), nil); err != nil {
			return "", err
		}
		return f.serveRequest(t)
	})
	e.Handle(conv.StateResponseUpload, conv.Any(), func(t *conv.Turn) (conv.State, error) {
		if err := t.Send(t.Text(keySendVideoOnly), nil); err != nil {
			return "", err
		}
		return conv.StateResponseUpload, nil
	})

	e.Handle(conv.StateOwnVideos, conv.Label(keyBackButton), f.showUserMenu)
	e.Handle(conv.StateOwnVideos, conv.CallbackRe(cbVideoNav, `^\d+$`), func(t *conv.Turn) (conv.State, error) {
		p, _ := strconv.Atoi(t.Event.CallbackPayload)
		return f.showOwnVideos(t, p)
	})
	e.Handle(conv.StateOwnVideos, conv.CallbackRe(cbVideoDelete, `^\d+$`), func(t *conv.Turn) (conv.State, error) {
		ownerID, err := profileID(t)
		if err != nil {
			return "", err
		}
		videoID, _ := strconv.ParseInt(t.Event.CallbackPayload, 10, 64)
		locator, err := f.gw.DeleteVideo(t.Ctx, videoID, ownerID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
		if locator != "" {
			_, _ = f.blob.Delete(t.Ctx, locator)
		}
		if err := t.Send(t.Text(keyVideoDeleted), nil); err != nil {
			return "", err
		}
		p, _ := t.Session.AttrInt(attrPage)
		return f.showOwnVideos(t, p)
	})
	e.Handle(conv.StateOwnVideos, conv.CallbackRe(cbVideoFeedback, `^\d+$`), func(t *conv.Turn) (conv.State, error) {
		videoID, _ := strconv.ParseInt(t.Event.CallbackPayload, 10, 64)
		return f.showVideoFeedback(t, videoID)
	})
	e.Prompt(conv.StateOwnVideos, func(t *conv.Turn) (conv.State, error) {
		p, _ := t.Session.AttrInt(attrPage)
		return f.showOwnVideos(t, p)
	})

	e.Handle(conv.StateClassPassword, conv.Label(keyCancelButton), f.showUserMenu)
	e.Handle(conv.StateClassPassword, conv.AnyText(), func(t *conv.Turn) (conv.State, error) {
		id, err := profileID(t)
		if err != nil {
			return "", err
		}
		classroomID, password, ok := strings.Cut(strings.TrimSpace(t.Event.Text), " ")
		if ok {
			valid, err := f.gw.ValidateClassroom(t.Ctx, classroomID, strings.TrimSpace(password))
			if err != nil {
				return "", err
			}
			ok = valid
		}
		if !ok {
			if err := t.Send(t.Text(keyClassroomInvalid), nil); err != nil {
				return "", err
			}
			return conv.StateClassPassword, nil
		}
		if err := f.gw.SetProfileClassroom(t.Ctx, id, &classroomID); err != nil {
			return "", err
		}
		t.Session.SetAttr(attrClassroom, classroomID)
		if err := t.Send(t.Text(keyClassroomJoined), nil); err != nil {
			return "", err
		}
		return f.showUserMenu(t)
	})

	e.Handle(conv.StateContact, conv.Label(keyCancelButton), f.showUserMenu)
	e.Handle(conv.StateContact, conv.AnyText(), func(t *conv.Turn) (conv.State, error) {
		id, err := profileID(t)
		if err != nil {
			return "", err
		}
		name, _ := t.Session.AttrString(attrName)
		if err := f.notifier.Relay(id, name, strings.TrimSpace(t.Event.Text)); err != nil {
			return "", err
		}
		if err := t.Send(t.Text(keyContactSent), nil); err != nil {
			return "", err
		}
		return f.showUserMenu(t)
	})
}

// serveRequest picks one unseen translator video and asks for a signed
// response, with skip and cancel controls.
func (f *Flows) serveRequest(t *conv.Turn) (conv.State, error) {
	id, err := profileID(t)
	if err != nil {
		return "", err
	}
	v, err := f.pickCandidate(t, id)
	if err != nil {
		return "", err
	}
	if v == nil {
		f.clearRequest(t)
		if err := t.Send(t.Text(keyNoMoreVideos), nil); err != nil {
			return "", err
		}
		return f.showUserMenu(t)
	}
	url, err := f.blob.SignedReadURL(t.Ctx, v.Locator)
	if err != nil {
		return "", err
	}
	kb := conv.ReplyKeyboard([]string{t.Text(keySkipButton), t.Text(keyCancelButton)})
	if err := t.SendVideo(url, v.Sentence, kb); err != nil {
		return "", err
	}
	t.Session.SetAttr(attrServedID, v.ID)
	return conv.StateResponseUpload, nil
}

// pickCandidate applies the session's skip set and, when the flow is scoped,
// the profile's classroom to the unseen-video query. A drained pool comes
// back as nil rather than an error.
func (f *Flows) pickCandidate(t *conv.Turn, profileID int64) (*models.VotableVideo, error) {
	var classroomID *string
	if t.Session.AttrBool(attrScoped) {
		if cid, ok := t.Session.AttrString(attrClassroom); ok {
			classroomID = &cid
		}
	}
	v, err := f.gw.PickUnseenVideo(t.Ctx, profileID, t.Locale(), t.Session.Int64Set(attrSkipped), classroomID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (f *Flows) clearRequest(t *conv.Turn) {
	t.Session.ClearAttr(attrServedID)
	t.Session.ClearAttr(attrScoped)
}

// showOwnVideos renders one page of the profile's responses with the
// translated sentence each one answers and a delete button per item.
func (f *Flows) showOwnVideos(t *conv.Turn, requested int) (conv.State, error) {
	ownerID, err := profileID(t)
	if err != nil {
		return "", err
	}
	pairs, err := f.gw.OwnVideos(t.Ctx, ownerID)
	if err != nil {
		return "", err
	}
	if len(pairs) == 0 {
		kb := conv.ReplyKeyboard([]string{t.Text(keyBackButton)})
		if err := t.Send(t.Text(keyOwnVideosEmpty), kb); err != nil {
			return "", err
		}
		return conv.StateOwnVideos, nil
	}
	start, end, pageNum, pages := page(len(pairs), requested, f.pageSize)
	t.Session.SetAttr(attrPage, pageNum)

	var b strings.Builder
	b.WriteString(t.Textf(keyOwnVideosPage, pageNum+1, pages))
	rows := make([][]conv.Button, 0, end-start+1)
	for i, p := range pairs[start:end] {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(start + i + 1))
		b.WriteString(". ")
		if p.Sentence != nil {
			b.WriteString(*p.Sentence)
		} else {
			b.WriteString(p.Locator)
		}
		rows = append(rows, []conv.Button{
			{
				Text: t.Textf(keyDeleteButton, start+i+1),
				Key:  cbVideoDelete,
				Data: strconv.FormatInt(p.ID, 10),
			},
			{
				Text: t.Textf(keyFeedbackButton, start+i+1),
				Key:  cbVideoFeedback,
				Data: strconv.FormatInt(p.ID, 10),
			},
		})
	}
	if err := t.Send(b.String(), navKeyboard(t, cbVideoNav, pageNum, pages, rows)); err != nil {
		return "", err
	}
	return conv.StateOwnVideos, nil
}

// showVideoFeedback replays the voters' notes left on one of the profile's
// videos. The browser stays on its current page.
func (f *Flows) showVideoFeedback(t *conv.Turn, videoID int64) (conv.State, error) {
	notes, err := f.gw.FeedbackFor(t.Ctx, videoID)
	if err != nil {
		return "", err
	}
	if len(notes) == 0 {
		if err := t.Send(t.Text(keyNoFeedbackYet), nil); err != nil {
			return "", err
		}
		return conv.StateOwnVideos, nil
	}
	var b strings.Builder
	b.WriteString(t.Text(keyFeedbackHeader))
	for _, n := range notes {
		b.WriteString("\n• ")
		b.WriteString(n)
	}
	if err := t.Send(b.String(), nil); err != nil {
		return "", err
	}
	return conv.StateOwnVideos, nil
}
