package fat

import (
	disko "github.com/nallik/vfat"
)

// DirectoryReader reads and parses the subdirectory named by a directory
// entry. An Entry uses it to lazily walk into a subdirectory without needing
// to know how clusters map to the underlying device;
// FATDriver.ReadDirectoryTable is the production implementation, wired in by
// Mount.
type DirectoryReader func(entry *ShortEntry, isFAT32 bool) (*DirectoryTable, error)

// ByteRangeReader reads len(buf) bytes of a file's data, starting at byte
// offset within the file whose data begins at startCluster. An Entry uses it
// for random-access reads of file content; FATDriver.ReadClusterRangeAt is
// the production implementation, wired in by Mount.
type ByteRangeReader func(startCluster ClusterID, buf []byte, offset int64) (int, error)

// Entry is the file-system-facing view of one directory record: a ShortEntry
// anchor plus the long name (if any) recovered from its LFN chain. It's what
// callers walking a directory actually see; DirectoryTable and RawEntry stay
// internal to the fat package.
type Entry struct {
	*ShortEntry

	table       *DirectoryTable
	longName    string
	hasLongName bool
	isFAT32     bool
	readDir     DirectoryReader
	readRange   ByteRangeReader
}

// newEntry wraps one LogicalEntry produced by DirectoryTable.Entries into an
// Entry, carrying along enough context to support renaming and, for
// directories, recursive listing and file content reads.
func newEntry(
	le *LogicalEntry,
	table *DirectoryTable,
	isFAT32 bool,
	readDir DirectoryReader,
	readRange ByteRangeReader,
) *Entry {
	return &Entry{
		ShortEntry:  le.Anchor,
		table:       table,
		longName:    le.LongName,
		hasLongName: le.HasLongName,
		isFAT32:     isFAT32,
		readDir:     readDir,
		readRange:   readRange,
	}
}

// LongName returns the entry's long name and true, or ("", false) if it has
// none (a plain short name with no LFN chain, or a broken chain).
func (e *Entry) LongName() (string, bool) {
	return e.longName, e.hasLongName
}

// DisplayName returns the long name if present, else the short name.
func (e *Entry) DisplayName() string {
	if e.hasLongName {
		return e.longName
	}
	return e.ShortEntry.ShortName()
}

// SetLongName renames the entry in its containing directory table, replacing
// its LFN chain (or adding one) and regenerating its short name if needed.
// The entry's start cluster, size, and timestamps are preserved.
func (e *Entry) SetLongName(name string) error {
	newAnchor, err := e.table.Rename(e.ShortEntry, name)
	if err != nil {
		return err
	}
	e.ShortEntry = newAnchor
	e.longName = name
	e.hasLongName = true
	return nil
}

// IterIfDirectory returns the entries of the subdirectory this entry names.
// It fails with ErrNotADirectory on a file, and with ErrNotImplemented if no
// DirectoryReader was wired in for this entry (e.g. it was constructed
// outside a mounted file system).
func (e *Entry) IterIfDirectory() ([]*Entry, error) {
	if !e.IsDirectory() {
		return nil, disko.ErrNotADirectory
	}
	if e.readDir == nil {
		return nil, disko.ErrNotImplemented.WithMessage("entry has no directory reader attached")
	}

	subTable, err := e.readDir(e.ShortEntry, e.isFAT32)
	if err != nil {
		return nil, err
	}

	var out []*Entry
	for _, le := range subTable.Entries() {
		if le.Kind != KindShort || le.Anchor.IsVolumeLabel() {
			continue
		}
		out = append(out, newEntry(le, subTable, e.isFAT32, e.readDir, e.readRange))
	}
	return out, nil
}

// ReadAt reads len(buf) bytes of this entry's file content starting at byte
// offset. It fails with ErrIsADirectory on a directory, and with
// ErrNotImplemented if no ByteRangeReader was wired in for this entry (e.g.
// it was constructed outside a mounted file system).
func (e *Entry) ReadAt(buf []byte, offset int64) (int, error) {
	if e.IsDirectory() {
		return 0, disko.ErrIsADirectory
	}
	if e.readRange == nil {
		return 0, disko.ErrNotImplemented.WithMessage("entry has no byte-range reader attached")
	}
	return e.readRange(ClusterID(e.StartCluster()), buf, offset)
}
