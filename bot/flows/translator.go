package flows

import (
	"strconv"
	"strings"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/models"
)

func (f *Flows) registerTranslator(e *conv.Engine) {
	e.Handle(conv.StateTranslatorMenu, conv.Label(keyMenuViewSentences), func(t *conv.Turn) (conv.State, error) {
		return f.showAllSentences(t, 0)
	})
	e.Handle(conv.StateTranslatorMenu, conv.CallbackRe(cbSentenceNav, `^\d+$`), func(t *conv.Turn) (conv.State, error) {
		p, _ := strconv.Atoi(t.Event.CallbackPayload)
		return f.showAllSentences(t, p)
	})
	e.Handle(conv.StateTranslatorMenu, conv.Label(keyMenuWriteSentence), func(t *conv.Turn) (conv.State, error) {
		kb := conv.ReplyKeyboard([]string{t.Text(keyCancelButton)})
		if err := t.Send(t.Text(keyWriteSentencePrompt), kb); err != nil {
			return "", err
		}
		return conv.StateWriteSentence, nil
	})
	e.Handle(conv.StateTranslatorMenu, conv.Label(keyMenuEditSentences), func(t *conv.Turn) (conv.State, error) {
		return f.showOwnSentences(t, 0)
	})
	e.Handle(conv.StateTranslatorMenu, conv.Label(keyMenuVote), func(t *conv.Turn) (conv.State, error) {
		return f.serveVote(t)
	})
	e.Handle(conv.StateTranslatorMenu, conv.Label(keyMenuViewCode), func(t *conv.Turn) (conv.State, error) {
		if err := t.Send(t.Textf(keyAccessCodeIs, f.codes.Current()), nil); err != nil {
			return "", err
		}
		return conv.StateTranslatorMenu, nil
	})
	e.Handle(conv.StateTranslatorMenu, conv.Label(keyCancelButton), endConversation)
	e.Prompt(conv.StateTranslatorMenu, f.showTranslatorMenu)

	e.Handle(conv.StateWriteSentence, conv.Label(keyCancelButton), f.showTranslatorMenu)
	e.Handle(conv.StateWriteSentence, conv.AnyText(), func(t *conv.Turn) (conv.State, error) {
		ownerID, err := profileID(t)
		if err != nil {
			return "", err
		}
		content := strings.TrimSpace(t.Event.Text)
		id, created, err := f.gw.RecordSentence(t.Ctx, ownerID, t.Locale(), content)
		if err != nil {
			return "", err
		}
		if !created {
			if err := t.Send(t.Text(keyDuplicateSentence), nil); err != nil {
				return "", err
			}
		}
		t.Session.SetAttr(attrSentenceID, id)
		kb := conv.ReplyKeyboard([]string{t.Text(keyCancelButton)})
		if err := t.Send(t.Text(keyUploadVideoPrompt), kb); err != nil {
			return "", err
		}
		return conv.StateTranslatorUpload, nil
	})

	e.Handle(conv.StateTranslatorUpload, conv.Label(keyCancelButton), func(t *conv.Turn) (conv.State, error) {
		t.Session.ClearAttr(attrSentenceID)
		return f.showTranslatorMenu(t)
	})
	e.Handle(conv.StateTranslatorUpload, conv.AnyMedia(), func(t *conv.Turn) (conv.State, error) {
		sentenceID, ok := t.Session.AttrInt64(attrSentenceID)
		if !ok {
			return f.showTranslatorMenu(t)
		}
		if _, err := f.storeUpload(t, models.RoleTranslator, &sentenceID, nil, nil); err != nil {
			return "", err
		}
		t.Session.ClearAttr(attrSentenceID)
		if err := t.Send(t.Text(keyVideoSaved), nil); err != nil {
			return "", err
		}
		return f.showTranslatorMenu(t)
	})
	e.Handle(conv.StateTranslatorUpload, conv.Any(), func(t *conv.Turn) (conv.State, error) {
		if err := t.Send(t.Text(keySendVideoOnly), nil); err != nil {
			return "", err
		}
		return conv.StateTranslatorUpload, nil
	})

	e.Handle(conv.StateBrowseSentences, conv.Label(keyBackButton), f.showTranslatorMenu)
	e.Handle(conv.StateBrowseSentences, conv.CallbackRe(cbSentenceNav, `^\d+$`), func(t *conv.Turn) (conv.State, error) {
		p, _ := strconv.Atoi(t.Event.CallbackPayload)
		return f.showOwnSentences(t, p)
	})
	e.Handle(conv.StateBrowseSentences, conv.CallbackRe(cbSentenceDelete, `^\d+$`), func(t *conv.Turn) (conv.State, error) {
		ownerID, err := profileID(t)
		if err != nil {
			return "", err
		}
		sentenceID, _ := strconv.ParseInt(t.Event.CallbackPayload, 10, 64)
		locators, err := f.gw.DeleteSentence(t.Ctx, sentenceID, ownerID)
		if err != nil {
			return "", err
		}
		for _, locator := range locators {
			// Row is already gone; a failed object delete is logged inside
			// the store and must not fail the turn.
			_, _ = f.blob.Delete(t.Ctx, locator)
		}
		if err := t.Send(t.Text(keySentenceDeleted), nil); err != nil {
			return "", err
		}
		p, _ := t.Session.AttrInt(attrPage)
		return f.showOwnSentences(t, p)
	})
	e.Prompt(conv.StateBrowseSentences, func(t *conv.Turn) (conv.State, error) {
		p, _ := t.Session.AttrInt(attrPage)
		return f.showOwnSentences(t, p)
	})
}

// showAllSentences renders one read-only page of the locale's sentence pool.
// The session stays in the menu state; paging runs over inline callbacks.
func (f *Flows) showAllSentences(t *conv.Turn, requested int) (conv.State, error) {
	sentences, err := f.gw.ListSentences(t.Ctx, t.Locale())
	if err != nil {
		return "", err
	}
	if len(sentences) == 0 {
		if err := t.Send(t.Text(keySentencesEmpty), nil); err != nil {
			return "", err
		}
		return conv.StateTranslatorMenu, nil
	}
	start, end, pageNum, pages := page(len(sentences), requested, f.pageSize)

	var b strings.Builder
	b.WriteString(t.Textf(keySentencesPage, pageNum+1, pages))
	for i, s := range sentences[start:end] {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(start + i + 1))
		b.WriteString(". ")
		b.WriteString(s.Content)
	}
	if err := t.Send(b.String(), navKeyboard(t, cbSentenceNav, pageNum, pages, nil)); err != nil {
		return "", err
	}
	return conv.StateTranslatorMenu, nil
}

// showOwnSentences renders one page of the translator's sentences with a
// delete button per item.
func (f *Flows) showOwnSentences(t *conv.Turn, requested int) (conv.State, error) {
	ownerID, err := profileID(t)
	if err != nil {
		return "", err
	}
	sentences, err := f.gw.OwnSentences(t.Ctx, ownerID)
	if err != nil {
		return "", err
	}
	if len(sentences) == 0 {
		kb := conv.ReplyKeyboard([]string{t.Text(keyBackButton)})
		if err := t.Send(t.Text(keySentencesEmpty), kb); err != nil {
			return "", err
		}
		return conv.StateBrowseSentences, nil
	}
	start, end, pageNum, pages := page(len(sentences), requested, f.pageSize)
	t.Session.SetAttr(attrPage, pageNum)

	var b strings.Builder
	b.WriteString(t.Textf(keySentencesPage, pageNum+1, pages))
	rows := make([][]conv.Button, 0, end-start+1)
	for i, s := range sentences[start:end] {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(start + i + 1))
		b.WriteString(". ")
		b.WriteString(s.Content)
		rows = append(rows, []conv.Button{{
			Text: t.Textf(keyDeleteButton, start+i+1),
			Key:  cbSentenceDelete,
			Data: strconv.FormatInt(s.ID, 10),
		}})
	}
	kb := navKeyboard(t, cbSentenceNav, pageNum, pages, rows)
	if err := t.Send(b.String(), kb); err != nil {
		return "", err
	}
	return conv.StateBrowseSentences, nil
}

// navKeyboard appends a prev/next inline row to the given rows when there is
// more than one page.
func navKeyboard(t *conv.Turn, key string, pageNum, pages int, rows [][]conv.Button) *conv.Keyboard {
	if pages > 1 {
		var nav []conv.Button
		if pageNum > 0 {
			nav = append(nav, conv.Button{
				Text: t.Text(keyPrevButton),
				Key:  key,
				Data: strconv.Itoa(pageNum - 1),
			})
		}
		if pageNum < pages-1 {
			nav = append(nav, conv.Button{
				Text: t.Text(keyNextButton),
				Key:  key,
				Data: strconv.Itoa(pageNum + 1),
			})
		}
		rows = append(rows, nav)
	}
	if len(rows) == 0 {
		return nil
	}
	return &conv.Keyboard{Inline: rows}
}
