package services

import (
	"strings"
	"testing"
	"time"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

func TestApplyReadReceiptsUsesCounterpartMarker(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lastRead := base.Add(5 * time.Minute)
	messages := []models.ChatMessage{
		{ID: 1, SenderID: 42, CreatedAt: base},
		{ID: 2, SenderID: 7, CreatedAt: base.Add(2 * time.Minute)},
		{ID: 3, SenderID: 42, CreatedAt: base.Add(10 * time.Minute)},
	}

	applyReadReceipts(messages, 42, &lastRead)

	if !messages[0].Read {
		t.Fatal("expected own message before marker to be read")
	}
	if !messages[1].Read {
		t.Fatal("expected counterpart message to count as read")
	}
	if messages[2].Read {
		t.Fatal("expected own message after marker to stay unread")
	}
}

func TestApplyReadReceiptsWithoutMarker(t *testing.T) {
	messages := []models.ChatMessage{
		{ID: 1, SenderID: 42, CreatedAt: time.Now().UTC()},
	}

	applyReadReceipts(messages, 42, nil)

	if messages[0].Read {
		t.Fatal("expected own message to stay unread without a counterpart marker")
	}
}

func TestReverseMessagesFlipsOrder(t *testing.T) {
	messages := []models.ChatMessage{{ID: 3}, {ID: 2}, {ID: 1}}

	reverseMessages(messages)

	for i, want := range []int64{1, 2, 3} {
		if messages[i].ID != want {
			t.Fatalf("expected id %d at position %d, got %d", want, i, messages[i].ID)
		}
	}
}

func TestReplySnippetTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("é", replySnippetRunes+20)

	snippet := replySnippet(long)

	runes := []rune(snippet)
	if len(runes) != replySnippetRunes+1 {
		t.Fatalf("expected %d runes, got %d", replySnippetRunes+1, len(runes))
	}
	if runes[len(runes)-1] != '…' {
		t.Fatalf("expected ellipsis suffix, got %q", string(runes[len(runes)-1]))
	}
}

func TestReplySnippetKeepsShortContent(t *testing.T) {
	if got := replySnippet("  Does Thursday work?  "); got != "Does Thursday work?" {
		t.Fatalf("expected trimmed content, got %q", got)
	}
}
