package flows

import (
	"errors"
	"strings"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/models"
	"github.com/vesilelab/vesilebot/bot/storage"
)

// registerEntry installs the handler run for fresh and restarted sessions.
// Identity reconciliation is deterministic and side-effect-free apart from
// the session cache: a known account jumps straight to its role's menu.
func (f *Flows) registerEntry(e *conv.Engine) {
	e.Entry(func(t *conv.Turn) (conv.State, error) {
		p, err := f.gw.FindProfile(t.Ctx, t.Session.UserID)
		if err == nil {
			cacheProfile(t, p)
			role := p.Role
			// The configured operator account is always an admin, even if
			// its row predates the role.
			if f.adminID != 0 && t.Session.UserID == f.adminID {
				role = models.RoleAdmin
				t.Session.SetAttr(attrRole, string(role))
			}
			return f.menuFor(t, role)
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
		if t.Event.Sender != "" {
			t.Session.SetAttr(attrName, t.Event.Sender)
		}
		return f.askLocale(t)
	})
}

func (f *Flows) askLocale(t *conv.Turn) (conv.State, error) {
	kb := conv.ReplyKeyboard([]string{
		t.Text(keyLangAz), t.Text(keyLangRu), t.Text(keyLangUa),
	})
	if err := t.Send(t.Text(keyChooseLanguage), kb); err != nil {
		return "", err
	}
	return conv.StateLocale, nil
}

func (f *Flows) registerRegistration(e *conv.Engine) {
	pick := func(locale, labelKey string) {
		e.Handle(conv.StateLocale, conv.Label(labelKey), func(t *conv.Turn) (conv.State, error) {
			t.Session.SetAttr(conv.AttrLocale, locale)
			return f.askConsent(t)
		})
	}
	pick("az", keyLangAz)
	pick("ru", keyLangRu)
	pick("ua", keyLangUa)
	e.Prompt(conv.StateLocale, f.askLocale)

	e.Handle(conv.StateConsent, conv.Label(keyConfirmButton), func(t *conv.Turn) (conv.State, error) {
		return f.askRole(t)
	})
	e.Handle(conv.StateConsent, conv.Label(keyCancelButton), func(t *conv.Turn) (conv.State, error) {
		if err := t.Send(t.Text(keyConsentDeclined), &conv.Keyboard{Remove: true}); err != nil {
			return "", err
		}
		return t.End(), nil
	})
	e.Prompt(conv.StateConsent, f.askConsent)

	e.Handle(conv.StateRole, conv.Label(keyRoleUser), func(t *conv.Turn) (conv.State, error) {
		return f.createProfile(t, models.RoleUser)
	})
	e.Handle(conv.StateRole, conv.Label(keyRoleTranslator), func(t *conv.Turn) (conv.State, error) {
		if err := t.Send(t.Text(keyEnterAccessCode), &conv.Keyboard{Remove: true}); err != nil {
			return "", err
		}
		return conv.StateRoleCode, nil
	})
	e.Handle(conv.StateRole, conv.Label(keyCancelButton), endConversation)
	e.Prompt(conv.StateRole, f.askRole)

	e.Handle(conv.StateRoleCode, conv.AnyText(), func(t *conv.Turn) (conv.State, error) {
		if strings.TrimSpace(t.Event.Text) == f.codes.Current() {
			return f.createProfile(t, models.RoleTranslator)
		}
		if err := t.Send(t.Text(keyWrongCode), nil); err != nil {
			return "", err
		}
		return f.askRole(t)
	})
}

func (f *Flows) askConsent(t *conv.Turn) (conv.State, error) {
	kb := conv.ReplyKeyboard([]string{
		t.Text(keyConfirmButton), t.Text(keyCancelButton),
	})
	if err := t.Send(t.Text(keyConsentMessage), kb); err != nil {
		return "", err
	}
	return conv.StateConsent, nil
}

func (f *Flows) askRole(t *conv.Turn) (conv.State, error) {
	kb := conv.ReplyKeyboard(
		[]string{t.Text(keyRoleUser), t.Text(keyRoleTranslator)},
		[]string{t.Text(keyCancelButton)},
	)
	if err := t.Send(t.Text(keyChooseRole), kb); err != nil {
		return "", err
	}
	return conv.StateRole, nil
}

func (f *Flows) createProfile(t *conv.Turn, role models.Role) (conv.State, error) {
	name, _ := t.Session.AttrString(attrName)
	p, err := f.gw.CreateProfile(t.Ctx, name, t.Locale(), role, t.Session.UserID)
	if err != nil {
		return "", err
	}
	cacheProfile(t, p)
	return f.menuFor(t, role)
}
