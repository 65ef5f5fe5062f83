package flows

import (
	"strconv"
	"strings"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/models"
)

func (f *Flows) registerAdmin(e *conv.Engine) {
	e.Handle(conv.StateAdminMenu, conv.Label(keyMenuManageUsers), func(t *conv.Turn) (conv.State, error) {
		return f.showAdminUsersHint(t)
	})
	e.Handle(conv.StateAdminMenu, conv.Label(keyCancelButton), endConversation)
	e.Prompt(conv.StateAdminMenu, f.showAdminMenu)

	e.Handle(conv.StateAdminUsers, conv.Label(keyBackButton), f.showAdminMenu)
	e.Handle(conv.StateAdminUsers, conv.Label(keyAdminViewAll), func(t *conv.Turn) (conv.State, error) {
		profiles, err := f.gw.ListProfiles(t.Ctx)
		if err != nil {
			return "", err
		}
		return f.showProfiles(t, profiles, 0)
	})
	e.Handle(conv.StateAdminUsers, conv.CallbackRe(cbUsersNav, `^\d+$`), func(t *conv.Turn) (conv.State, error) {
		profiles, err := f.gw.ListProfiles(t.Ctx)
		if err != nil {
			return "", err
		}
		p, _ := strconv.Atoi(t.Event.CallbackPayload)
		return f.showProfiles(t, profiles, p)
	})
	e.Handle(conv.StateAdminUsers, conv.Label(keyAdminFilterLabel), func(t *conv.Turn) (conv.State, error) {
		kb := conv.ReplyKeyboard([]string{t.Text(keyCancelButton)})
		if err := t.Send(t.Text(keyAdminFilterHint), kb); err != nil {
			return "", err
		}
		return conv.StateAdminFilter, nil
	})
	// Free text here is a maintenance command: "del <profile id>" or
	// "set <profile id> <column> <value>".
	e.Handle(conv.StateAdminUsers, conv.AnyText(), func(t *conv.Turn) (conv.State, error) {
		fields := strings.Fields(t.Event.Text)
		switch {
		case len(fields) == 2 && fields[0] == "del":
			id, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				break
			}
			if err := f.gw.DeleteProfile(t.Ctx, id); err != nil {
				return "", err
			}
			if err := t.Send(t.Text(keyAdminDeleted), nil); err != nil {
				return "", err
			}
			return conv.StateAdminUsers, nil
		case len(fields) >= 4 && fields[0] == "set":
			id, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				break
			}
			value := strings.Join(fields[3:], " ")
			if err := f.gw.UpdateProfileField(t.Ctx, id, fields[2], value); err != nil {
				return "", err
			}
			if err := t.Send(t.Text(keyAdminDeleted), nil); err != nil {
				return "", err
			}
			return conv.StateAdminUsers, nil
		}
		if err := t.Send(t.Text(keyAdminBadInput), nil); err != nil {
			return "", err
		}
		return conv.StateAdminUsers, nil
	})
	e.Prompt(conv.StateAdminUsers, f.showAdminUsersHint)

	e.Handle(conv.StateAdminFilter, conv.Label(keyCancelButton), f.showAdminUsersHint)
	e.Handle(conv.StateAdminFilter, conv.AnyText(), func(t *conv.Turn) (conv.State, error) {
		column, value, ok := strings.Cut(strings.TrimSpace(t.Event.Text), " ")
		if !ok {
			if err := t.Send(t.Text(keyAdminBadInput), nil); err != nil {
				return "", err
			}
			return conv.StateAdminFilter, nil
		}
		profiles, err := f.gw.ProfilesBy(t.Ctx, column, strings.TrimSpace(value))
		if err != nil {
			if err := t.Send(t.Text(keyAdminBadInput), nil); err != nil {
				return "", err
			}
			return conv.StateAdminFilter, nil
		}
		if len(profiles) == 0 {
			if err := t.Send(t.Text(keyAdminNoMatch), nil); err != nil {
				return "", err
			}
			return conv.StateAdminFilter, nil
		}
		return f.showProfiles(t, profiles, 0)
	})
}

func (f *Flows) showAdminUsersHint(t *conv.Turn) (conv.State, error) {
	kb := conv.ReplyKeyboard(
		[]string{t.Text(keyAdminViewAll), t.Text(keyAdminFilterLabel)},
		[]string{t.Text(keyBackButton)},
	)
	if err := t.Send(t.Text(keyAdminUsersHint), kb); err != nil {
		return "", err
	}
	return conv.StateAdminUsers, nil
}

// showProfiles renders one page of a profile listing.
func (f *Flows) showProfiles(t *conv.Turn, profiles []models.Profile, requested int) (conv.State, error) {
	if len(profiles) == 0 {
		if err := t.Send(t.Text(keyAdminNoMatch), nil); err != nil {
			return "", err
		}
		return conv.StateAdminUsers, nil
	}
	start, end, pageNum, pages := page(len(profiles), requested, f.pageSize)

	var b strings.Builder
	b.WriteString(t.Textf(keyAdminUsersPage, pageNum+1, pages))
	for _, p := range profiles[start:end] {
		b.WriteString("\n")
		b.WriteString(strconv.FormatInt(p.ID, 10))
		b.WriteString(" | ")
		b.WriteString(p.Name)
		b.WriteString(" | ")
		b.WriteString(p.Locale)
		b.WriteString(" | ")
		b.WriteString(string(p.Role))
	}
	if err := t.Send(b.String(), navKeyboard(t, cbUsersNav, pageNum, pages, nil)); err != nil {
		return "", err
	}
	return conv.StateAdminUsers, nil
}
