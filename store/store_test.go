package store

import "testing"

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStringIdentity(t *testing.T) {
	s := open(t)

	id1, err := s.GetStringID("Hello", "", false)
	if err != nil {
		t.Fatalf("GetStringID: %v", err)
	}
	id2, err := s.GetStringID("Hello", "", false)
	if err != nil {
		t.Fatalf("GetStringID (again): %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same string identity, got %s and %s", id1, id2)
	}

	id3, err := s.GetStringID("Hello", "menu", false)
	if err != nil {
		t.Fatalf("GetStringID (context): %v", err)
	}
	if id3 == id1 {
		t.Fatalf("distinct (text, context) pairs must not share an identity")
	}
}

func TestItemUSNMonotonic(t *testing.T) {
	s := open(t)

	fileID, err := s.GetFileID("ns", "job", "a.go", false)
	if err != nil {
		t.Fatalf("GetFileID: %v", err)
	}
	stringID, err := s.GetStringID("Hello", "", false)
	if err != nil {
		t.Fatalf("GetStringID: %v", err)
	}
	itemID, err := s.GetItemID(fileID, stringID, false)
	if err != nil {
		t.Fatalf("GetItemID: %v", err)
	}

	item, err := s.GetItem(itemID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	usn1 := item.USN

	tr, err := s.UpsertTranslation(itemID, "fr", "Bonjour", false, "")
	if err != nil {
		t.Fatalf("UpsertTranslation: %v", err)
	}
	if tr.USN <= usn1 {
		t.Fatalf("expected translation usn > item usn, got %d <= %d", tr.USN, usn1)
	}
	usnFirst := tr.USN

	tr2, err := s.UpsertTranslation(itemID, "fr", "Bonjour le monde", false, "")
	if err != nil {
		t.Fatalf("UpsertTranslation (update): %v", err)
	}
	if tr2.USN <= usnFirst {
		t.Fatalf("expected usn to strictly increase on update, got %d <= %d", tr2.USN, usnFirst)
	}
}

func TestRenameFilePreservesIdentity(t *testing.T) {
	s := open(t)

	fileID, err := s.GetFileID("ns", "job", "old/path.go", false)
	if err != nil {
		t.Fatalf("GetFileID: %v", err)
	}
	stringID, _ := s.GetStringID("Hello", "", false)
	itemID, err := s.GetItemID(fileID, stringID, false)
	if err != nil {
		t.Fatalf("GetItemID: %v", err)
	}

	if err := s.RenameFile(fileID, "new/path.go"); err != nil {
		t.Fatalf("RenameFile: %v", err)
	}

	f, err := s.GetFile(fileID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if f.RelPath != "new/path.go" {
		t.Fatalf("expected renamed path, got %s", f.RelPath)
	}

	// identity under the new path resolves to the same item
	itemID2, err := s.GetItemID(fileID, stringID, false)
	if err != nil {
		t.Fatalf("GetItemID (after rename): %v", err)
	}
	if itemID2 != itemID {
		t.Fatalf("rename must preserve item identity: got %s, want %s", itemID2, itemID)
	}
}

func TestBestTranslationExcludesOwnFileAndFlagsMultipleVariants(t *testing.T) {
	s := open(t)

	fileA, _ := s.GetFileID("ns", "job", "a.go", false)
	fileB, _ := s.GetFileID("ns", "job", "b.go", false)
	fileC, _ := s.GetFileID("ns", "job", "c.go", false)

	stringID, _ := s.GetStringID("Open", "", false)

	itemA, _ := s.GetItemID(fileA, stringID, false)
	itemB, _ := s.GetItemID(fileB, stringID, false)
	itemC, _ := s.GetItemID(fileC, stringID, false)

	if _, err := s.UpsertTranslation(itemA, "fr", "Ouvrir", false, ""); err != nil {
		t.Fatalf("UpsertTranslation A: %v", err)
	}
	if _, err := s.UpsertTranslation(itemB, "fr", "Déplier", false, ""); err != nil {
		t.Fatalf("UpsertTranslation B: %v", err)
	}
	_ = itemC

	translation, _, _, multiple, err := s.BestTranslation("ns", "c.go", "Open", "", "fr", false)
	if err != nil {
		t.Fatalf("BestTranslation: %v", err)
	}
	if translation == "" {
		t.Fatalf("expected a candidate translation")
	}
	if !multiple {
		t.Fatalf("expected multipleVariants=true with two distinct translations")
	}

	translation2, _, _, multiple2, err := s.BestTranslation("ns", "a.go", "Open", "", "fr", false)
	if err != nil {
		t.Fatalf("BestTranslation (exclude a): %v", err)
	}
	if translation2 != "Déplier" {
		t.Fatalf("expected only b.go's translation when excluding a.go, got %q", translation2)
	}
	if multiple2 {
		t.Fatalf("expected a single candidate once a.go is excluded")
	}
}

func TestPropertyRoundTrip(t *testing.T) {
	s := open(t)

	if _, ok := s.Property("job-hash:ns:job"); ok {
		t.Fatalf("expected unset property")
	}
	if err := s.SetProperty("job-hash:ns:job", "abc123"); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	v, ok := s.Property("job-hash:ns:job")
	if !ok || v != "abc123" {
		t.Fatalf("expected abc123, got %q (ok=%v)", v, ok)
	}
	if err := s.SetProperty("job-hash:ns:job", "def456"); err != nil {
		t.Fatalf("SetProperty (update): %v", err)
	}
	v, _ = s.Property("job-hash:ns:job")
	if v != "def456" {
		t.Fatalf("expected updated value, got %q", v)
	}
}

func TestOrphanedFileExcludedByDefault(t *testing.T) {
	s := open(t)

	fileA, _ := s.GetFileID("ns", "job", "a.go", false)
	stringID, _ := s.GetStringID("Open", "", false)
	itemA, _ := s.GetItemID(fileA, stringID, false)
	if _, err := s.UpsertTranslation(itemA, "fr", "Ouvrir", false, ""); err != nil {
		t.Fatalf("UpsertTranslation: %v", err)
	}
	if err := s.SetFileOrphaned(fileA, true); err != nil {
		t.Fatalf("SetFileOrphaned: %v", err)
	}

	translation, _, _, _, err := s.BestTranslation("ns", "other.go", "Open", "", "fr", false)
	if err != nil {
		t.Fatalf("BestTranslation: %v", err)
	}
	if translation != "" {
		t.Fatalf("expected orphaned file excluded by default, got %q", translation)
	}

	translation, _, _, _, err = s.BestTranslation("ns", "other.go", "Open", "", "fr", true)
	if err != nil {
		t.Fatalf("BestTranslation (allow orphaned): %v", err)
	}
	if translation != "Ouvrir" {
		t.Fatalf("expected orphaned file included when allowed, got %q", translation)
	}
}
