package hooks

import (
	"errors"
	"testing"
)

func TestStageHandlersFireInOrderAndAbortOnError(t *testing.T) {
	b := New()
	var order []string

	b.OnBeforeJob(func(ctx *StageContext) error {
		order = append(order, "first")
		return nil
	})
	b.OnBeforeJob(func(ctx *StageContext) error {
		order = append(order, "second")
		return errors.New("boom")
	})
	b.OnBeforeJob(func(ctx *StageContext) error {
		order = append(order, "third")
		return nil
	})

	err := b.FireBeforeJob(&StageContext{Namespace: "ns", JobID: "job"})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected the second handler's error, got %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected the chain to stop after the failing handler, got %v", order)
	}
}

func TestCanExtractCombineAnd(t *testing.T) {
	b := New()
	b.OnCanExtract(func(s *ExtractedString) bool { return true })
	b.OnCanExtract(func(s *ExtractedString) bool { return s.Text != "skip-me" })

	if !b.FireCanExtract(&ExtractedString{Text: "hello"}) {
		t.Fatalf("expected true when every handler allows")
	}
	if b.FireCanExtract(&ExtractedString{Text: "skip-me"}) {
		t.Fatalf("expected false when any handler vetoes")
	}
}

func TestIsFileOrphanedCombineOr(t *testing.T) {
	b := New()
	b.OnIsFileOrphaned(func(relPath string) bool { return false })
	b.OnIsFileOrphaned(func(relPath string) bool { return relPath == "dead.go" })

	if b.FireIsFileOrphaned("alive.go") {
		t.Fatalf("expected false when no handler claims orphaned")
	}
	if !b.FireIsFileOrphaned("dead.go") {
		t.Fatalf("expected true when any handler claims orphaned")
	}
}

func TestGetTranslationPreFirstNonEmptyWins(t *testing.T) {
	b := New()
	b.OnGetTranslationPre(func(itemID, lang string) (string, bool) { return "", false })
	b.OnGetTranslationPre(func(itemID, lang string) (string, bool) { return "Bonjour", true })
	b.OnGetTranslationPre(func(itemID, lang string) (string, bool) { return "should not see this", true })

	got, ok := b.FireGetTranslationPre("item1", "fr")
	if !ok || got != "Bonjour" {
		t.Fatalf("expected first non-empty handler result, got %q ok=%v", got, ok)
	}
}

func TestCanTranslateMutatesInPlace(t *testing.T) {
	b := New()
	b.OnCanTranslate(func(itemID, lang string, translation *string) bool {
		*translation = *translation + "!"
		return true
	})
	b.OnCanTranslate(func(itemID, lang string, translation *string) bool {
		return *translation != "veto!"
	})

	keep := "veto"
	if b.FireCanTranslate("item1", "fr", &keep) {
		t.Fatalf("expected the second handler to veto after the rewrite")
	}
	if keep != "veto!" {
		t.Fatalf("expected the rewrite to have applied before the veto check, got %q", keep)
	}
}

func TestRewriteTranslationReportsChange(t *testing.T) {
	b := New()
	changed := b.FireRewriteTranslation(new(string))
	if changed {
		t.Fatalf("expected no change with no handlers registered")
	}

	b.OnRewriteTranslation(func(s *string) { *s = *s + "-rewritten" })
	val := "original"
	changed = b.FireRewriteTranslation(&val)
	if !changed {
		t.Fatalf("expected a change once a handler rewrites the value")
	}
	if val != "original-rewritten" {
		t.Fatalf("unexpected rewritten value %q", val)
	}
}

func TestAddDevCommentCollectsAllHandlers(t *testing.T) {
	b := New()
	b.OnAddDevComment(func(itemID string) []string { return []string{"from-a"} })
	b.OnAddDevComment(func(itemID string) []string { return []string{"from-b", "from-b2"} })

	got := b.FireAddDevComment("item1")
	want := []string{"from-a", "from-b", "from-b2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestAfterLoadSourceFileVetoAndRewrite(t *testing.T) {
	b := New()
	b.OnAfterLoadSourceFile(func(path string, text *string) bool {
		*text = *text + "-modified"
		return true
	})

	text, ok := b.FireAfterLoadSourceFile("a.go", "original")
	if !ok {
		t.Fatalf("expected no veto")
	}
	if text != "original-modified" {
		t.Fatalf("expected rewritten text, got %q", text)
	}

	b.OnAfterLoadSourceFile(func(path string, text *string) bool { return false })
	_, ok = b.FireAfterLoadSourceFile("a.go", "original")
	if ok {
		t.Fatalf("expected veto once a handler returns false")
	}
}
