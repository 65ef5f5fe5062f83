package conv

// Button is an inline keyboard button with a stable callback key and payload.
type Button struct {
	Text string
	Key  string
	Data string
}

// Keyboard describes the reply markup attached to an outbound message.
// Reply and Inline are mutually exclusive; Remove hides any reply keyboard.
type Keyboard struct {
	Reply   [][]string
	Inline  [][]Button
	OneTime bool
	Remove  bool
}

// ReplyKeyboard builds a one-time reply keyboard from rows of labels.
func ReplyKeyboard(rows ...[]string) *Keyboard {
	return &Keyboard{Reply: rows, OneTime: true}
}

// Outbox delivers messages to the session's channel. Implementations are
// transport-specific; tests substitute an in-memory recorder.
type Outbox interface {
	SendText(text string, kb *Keyboard) error
	SendVideo(url, caption string, kb *Keyboard) error
}

// disarmOutbox wraps the transport outbox so that the first successful send
// of a turn cancels the session's fallback timer. Handlers carry no manual
// disarm obligation; a turn that sends nothing leaves the timer armed.
type disarmOutbox struct {
	out    Outbox
	timers *Timers
	userID int64
}

func (d *disarmOutbox) SendText(text string, kb *Keyboard) error {
	err := d.out.SendText(text, kb)
	if err == nil {
		d.timers.Disarm(d.userID)
	}
	return err
}

func (d *disarmOutbox) SendVideo(url, caption string, kb *Keyboard) error {
	err := d.out.SendVideo(url, caption, kb)
	if err == nil {
		d.timers.Disarm(d.userID)
	}
	return err
}
