package fat

import "testing"

func TestEntrySetLongNameUpdatesUnderlyingTable(t *testing.T) {
	table := NewEmptyDirectoryTable(16, false, true)
	anchor, err := table.Insert("original.txt", AttrArchived)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	entries := table.Entries()
	entry := newEntry(entries[0], table, false, nil, nil)
	if entry.DisplayName() != "original.txt" {
		t.Fatalf("DisplayName() = %q, want original.txt", entry.DisplayName())
	}

	if err := entry.SetLongName("a whole new long name.txt"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	name, ok := entry.LongName()
	if !ok || name != "a whole new long name.txt" {
		t.Errorf("LongName() = (%q, %v), want (%q, true)", name, ok, "a whole new long name.txt")
	}
	_ = anchor
}

func TestEntryIterIfDirectoryRejectsFile(t *testing.T) {
	table := NewEmptyDirectoryTable(16, false, true)
	_, err := table.Insert("readme.txt", AttrArchived)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	entry := newEntry(table.Entries()[0], table, false, nil, nil)
	if _, err := entry.IterIfDirectory(); err == nil {
		t.Error("expected an error calling IterIfDirectory on a plain file")
	}
}

func TestEntryIterIfDirectoryWalksSubdirectory(t *testing.T) {
	table := NewEmptyDirectoryTable(16, false, true)
	_, err := table.Insert("subdir", AttrDirectory)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	child := NewEmptyDirectoryTable(4, false, true)
	if _, err := child.Insert("child.txt", AttrArchived); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	childBytes := make([]byte, child.TotalSlots()*DirentSize)
	if err := child.Serialize(childBytes); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	reader := func(*ShortEntry, bool) (*DirectoryTable, error) {
		return ParseDirectoryTable(childBytes, false, true)
	}

	entry := newEntry(table.Entries()[0], table, false, reader, nil)
	children, err := entry.IterIfDirectory()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(children) != 1 || children[0].DisplayName() != "child.txt" {
		t.Errorf("unexpected children: %#v", children)
	}
}
