package flows

import (
	"github.com/vesilelab/vesilebot/bot/conv"
)

func (f *Flows) registerClassroom(e *conv.Engine) {
	e.Handle(conv.StateClassroomMenu, conv.Label(keyMenuClassRequest), func(t *conv.Turn) (conv.State, error) {
		t.Session.SetAttr(attrScoped, true)
		return f.serveRequest(t)
	})
	e.Handle(conv.StateClassroomMenu, conv.Label(keyMenuLeaveClassroom), func(t *conv.Turn) (conv.State, error) {
		id, err := profileID(t)
		if err != nil {
			return "", err
		}
		if err := f.gw.SetProfileClassroom(t.Ctx, id, nil); err != nil {
			return "", err
		}
		t.Session.ClearAttr(attrClassroom)
		if err := t.Send(t.Text(keyClassroomLeft), nil); err != nil {
			return "", err
		}
		return f.showUserMenu(t)
	})
	e.Handle(conv.StateClassroomMenu, conv.Label(keyBackButton), f.showUserMenu)
	e.Prompt(conv.StateClassroomMenu, f.showClassroomMenu)
}
