package parser

import (
	"strings"
	"testing"
)

func TestSplitSenderAndText(t *testing.T) {
	sender, text, isSystem := SplitSenderAndText("Alice: hello there")
	if isSystem {
		t.Fatal("expected a user message")
	}
	if sender != "Alice" {
		t.Errorf("sender = %q, want %q", sender, "Alice")
	}
	if text != "hello there" {
		t.Errorf("text = %q, want %q", text, "hello there")
	}
}

func TestSplitSenderAndText_NoSeparator(t *testing.T) {
	body := "Messages and calls are end-to-end encrypted."
	sender, text, isSystem := SplitSenderAndText(body)
	if !isSystem {
		t.Fatal("expected a system message")
	}
	if sender != "" {
		t.Errorf("sender = %q, want empty", sender)
	}
	if text != body {
		t.Errorf("text = %q, want the full body", text)
	}
}

func TestSplitSenderAndText_OversizedSender(t *testing.T) {
	body := strings.Repeat("x", 81) + ": hi"
	sender, text, isSystem := SplitSenderAndText(body)
	if !isSystem {
		t.Fatal("expected a system message for an oversized sender")
	}
	if sender != "" {
		t.Errorf("sender = %q, want empty", sender)
	}
	if text != body {
		t.Errorf("text = %q, want the full body", text)
	}
}

func TestSplitSenderAndText_SenderAtBound(t *testing.T) {
	name := strings.Repeat("x", 80)
	sender, _, isSystem := SplitSenderAndText(name + ": hi")
	if isSystem {
		t.Fatal("an 80-rune sender should still be a user message")
	}
	if sender != name {
		t.Errorf("sender = %q, want the 80-rune name", sender)
	}
}

func TestSplitSenderAndText_SplitsAtFirstSeparator(t *testing.T) {
	sender, text, isSystem := SplitSenderAndText("Alice: note: remember")
	if isSystem {
		t.Fatal("expected a user message")
	}
	if sender != "Alice" {
		t.Errorf("sender = %q, want %q", sender, "Alice")
	}
	if text != "note: remember" {
		t.Errorf("text = %q, want %q", text, "note: remember")
	}
}

func TestSplitSenderAndText_CleansInvisibleMarks(t *testing.T) {
	sender, _, isSystem := SplitSenderAndText("‎Alice‏: hi")
	if isSystem {
		t.Fatal("expected a user message")
	}
	if sender != "Alice" {
		t.Errorf("sender = %q, want %q", sender, "Alice")
	}
}
