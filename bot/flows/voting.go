package flows

import (
	"strconv"
	"strings"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/models"
)

func (f *Flows) registerVoting(e *conv.Engine) {
	e.Handle(conv.StateVoting, conv.Label(keyBackButton), func(t *conv.Turn) (conv.State, error) {
		f.clearVoting(t)
		return f.menuFor(t, sessionRole(t))
	})
	e.Handle(conv.StateVoting, conv.CallbackRe(cbVote, `^(up|down):\d+$`), func(t *conv.Turn) (conv.State, error) {
		voterID, err := profileID(t)
		if err != nil {
			return "", err
		}
		dirRaw, idRaw, _ := strings.Cut(t.Event.CallbackPayload, ":")
		videoID, _ := strconv.ParseInt(idRaw, 10, 64)
		dir := models.VoteDirection(dirRaw)

		voteID, err := f.gw.RecordVote(t.Ctx, voterID, videoID, dir)
		if err != nil {
			return "", err
		}
		if err := f.gw.AddVideoScore(t.Ctx, videoID, dir); err != nil {
			return "", err
		}
		if dir == models.VoteDown {
			// Free-text follow-up in this state attaches to this vote.
			t.Session.SetAttr(attrVoteID, voteID)
			if err := t.Send(t.Text(keyFeedbackAsk), nil); err != nil {
				return "", err
			}
		} else {
			t.Session.ClearAttr(attrVoteID)
			if err := t.Send(t.Text(keyVoteRecorded), nil); err != nil {
				return "", err
			}
		}
		return f.serveVote(t)
	})
	e.Handle(conv.StateVoting, conv.AnyText(), func(t *conv.Turn) (conv.State, error) {
		voteID, ok := t.Session.AttrInt64(attrVoteID)
		if !ok {
			if err := t.Send(t.Text(keyVoteUp)+" / "+t.Text(keyVoteDown), nil); err != nil {
				return "", err
			}
			return conv.StateVoting, nil
		}
		if err := f.gw.SetVoteFeedback(t.Ctx, voteID, strings.TrimSpace(t.Event.Text)); err != nil {
			return "", err
		}
		t.Session.ClearAttr(attrVoteID)
		if err := t.Send(t.Text(keyFeedbackSaved), nil); err != nil {
			return "", err
		}
		return conv.StateVoting, nil
	})
	e.Prompt(conv.StateVoting, f.serveVote)
}

// serveVote picks one unseen video and presents it with up/down buttons.
// An exhausted pool sends the voter back to the menu.
func (f *Flows) serveVote(t *conv.Turn) (conv.State, error) {
	voterID, err := profileID(t)
	if err != nil {
		return "", err
	}
	v, err := f.pickCandidate(t, voterID)
	if err != nil {
		return "", err
	}
	if v == nil {
		f.clearVoting(t)
		if err := t.Send(t.Text(keyNoMoreVideos), nil); err != nil {
			return "", err
		}
		return f.menuFor(t, sessionRole(t))
	}

	url, err := f.blob.SignedReadURL(t.Ctx, v.Locator)
	if err != nil {
		return "", err
	}
	id := strconv.FormatInt(v.ID, 10)
	kb := &conv.Keyboard{Inline: [][]conv.Button{{
		{Text: t.Text(keyVoteUp), Key: cbVote, Data: "up:" + id},
		{Text: t.Text(keyVoteDown), Key: cbVote, Data: "down:" + id},
	}}}
	if err := t.SendVideo(url, v.Sentence, kb); err != nil {
		return "", err
	}
	t.Session.SetAttr(attrServedID, v.ID)
	return conv.StateVoting, nil
}

func (f *Flows) clearVoting(t *conv.Turn) {
	t.Session.ClearAttr(attrVoteID)
	t.Session.ClearAttr(attrServedID)
}
