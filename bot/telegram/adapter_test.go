package telegram

import "testing"

func TestRelayMessageEscapesUserText(t *testing.T) {
	got, err := relayMessage(7, "a_b", "won 1-0! see [x](y)")
	if err != nil {
		t.Fatal(err)
	}
	want := "\\#7 *a\\_b*:\nwon 1\\-0\\! see \\[x\\]\\(y\\)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRelayMessagePlainTextUnchanged(t *testing.T) {
	got, err := relayMessage(12, "ada", "salam")
	if err != nil {
		t.Fatal(err)
	}
	if got != "\\#12 *ada*:\nsalam" {
		t.Fatalf("got %q", got)
	}
}
