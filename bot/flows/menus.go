package flows

import (
	"fmt"

	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/models"
)

// profileID returns the cached profile id for the turn. Flows past
// registration always have one; its absence means the session was evicted or
// wiped, which the engine turns into a restart prompt.
func profileID(t *conv.Turn) (int64, error) {
	id, ok := t.Session.AttrInt64(attrProfileID)
	if !ok {
		return 0, fmt.Errorf("flows: session %d has no profile: %w", t.Session.UserID, conv.ErrSessionExpired)
	}
	return id, nil
}

func sessionRole(t *conv.Turn) models.Role {
	r, _ := t.Session.AttrString(attrRole)
	return models.Role(r)
}

// cacheProfile stores the identity fields flows read on later turns.
func cacheProfile(t *conv.Turn, p *models.Profile) {
	t.Session.SetAttr(attrProfileID, p.ID)
	t.Session.SetAttr(attrRole, string(p.Role))
	t.Session.SetAttr(conv.AttrLocale, p.Locale)
	t.Session.SetAttr(attrName, p.Name)
	if p.ClassroomID != nil {
		t.Session.SetAttr(attrClassroom, *p.ClassroomID)
	}
}

// menuFor routes a profile to the menu matching its role.
func (f *Flows) menuFor(t *conv.Turn, role models.Role) (conv.State, error) {
	switch role {
	case models.RoleAdmin:
		return f.showAdminMenu(t)
	case models.RoleTranslator:
		return f.showTranslatorMenu(t)
	default:
		return f.showUserMenu(t)
	}
}

func (f *Flows) showTranslatorMenu(t *conv.Turn) (conv.State, error) {
	kb := conv.ReplyKeyboard(
		[]string{t.Text(keyMenuViewSentences), t.Text(keyMenuWriteSentence)},
		[]string{t.Text(keyMenuEditSentences), t.Text(keyMenuVote)},
		[]string{t.Text(keyMenuViewCode), t.Text(keyCancelButton)},
	)
	if err := t.Send(t.Text(keyTranslatorMenuTitle), kb); err != nil {
		return "", err
	}
	return conv.StateTranslatorMenu, nil
}

func (f *Flows) showUserMenu(t *conv.Turn) (conv.State, error) {
	rows := [][]string{
		{t.Text(keyMenuRequestVideo), t.Text(keyMenuMyVideos)},
		{t.Text(keyMenuMyRank), t.Text(keyMenuContact)},
	}
	if _, enrolled := t.Session.AttrString(attrClassroom); enrolled {
		rows = append(rows, []string{t.Text(keyMenuOpenClassroom), t.Text(keyCancelButton)})
	} else {
		rows = append(rows, []string{t.Text(keyMenuJoinClassroom), t.Text(keyCancelButton)})
	}
	if err := t.Send(t.Text(keyUserMenuTitle), conv.ReplyKeyboard(rows...)); err != nil {
		return "", err
	}
	return conv.StateUserMenu, nil
}

func (f *Flows) showClassroomMenu(t *conv.Turn) (conv.State, error) {
	kb := conv.ReplyKeyboard(
		[]string{t.Text(keyMenuClassRequest)},
		[]string{t.Text(keyMenuLeaveClassroom), t.Text(keyBackButton)},
	)
	if err := t.Send(t.Text(keyClassroomMenuTitle), kb); err != nil {
		return "", err
	}
	return conv.StateClassroomMenu, nil
}

func (f *Flows) showAdminMenu(t *conv.Turn) (conv.State, error) {
	kb := conv.ReplyKeyboard(
		[]string{t.Text(keyMenuManageUsers)},
		[]string{t.Text(keyCancelButton)},
	)
	if err := t.Send(t.Text(keyAdminMenuTitle), kb); err != nil {
		return "", err
	}
	return conv.StateAdminMenu, nil
}

// endConversation sends the goodbye notice and terminates.
func endConversation(t *conv.Turn) (conv.State, error) {
	if err := t.Send(t.Text(keyGoodbye), &conv.Keyboard{Remove: true}); err != nil {
		return "", err
	}
	return t.End(), nil
}
