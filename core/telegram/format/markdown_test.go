package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("a_b *c* [d] `e`", MarkdownV1)
	if err != nil {
		t.Fatal(err)
	}
	want := `a\_b \*c\* \[d] \` + "`" + `e\` + "`"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain text", "plain text"},
		{"a_b", `a\_b`},
		{"1-0!", `1\-0\!`},
		{"[x](y)", `\[x\]\(y\)`},
		{"v2.1 #tag", `v2\.1 \#tag`},
		{"a+b=c|d", `a\+b\=c\|d`},
		{"{~}>", `\{\~\}\>`},
	}
	for _, c := range cases {
		got, err := EscapeMarkdown(c.in, MarkdownV2)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("EscapeMarkdown(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEscapeMarkdownLeavesDigitsAlone(t *testing.T) {
	got, err := EscapeMarkdown("score 0123456789, ok?", MarkdownV2)
	if err != nil {
		t.Fatal(err)
	}
	if got != "score 0123456789, ok?" {
		t.Fatalf("got %q", got)
	}
}

func TestEscapeMarkdownUnknownVersion(t *testing.T) {
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unknown version")
	}
}
