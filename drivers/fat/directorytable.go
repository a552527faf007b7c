package fat

import (
	"fmt"
	"strings"
	"time"

	disko "github.com/nallik/vfat"
	"github.com/nallik/vfat/drivers/common"
)

// LogicalEntry is one interpreted record produced by walking a DirectoryTable:
// a free/deleted slot, or a ShortEntry anchor optionally preceded by an LFN
// chain giving it a long name.
type LogicalEntry struct {
	Kind        EntryKind
	Anchor      *ShortEntry
	LongName    string
	HasLongName bool

	chainStart  int
	anchorIndex int
}

// DirectoryTable is the in-memory ordered sequence of logical entries backing
// one directory. It owns the raw 32-byte slots, assembles/disassembles LFN
// chains around them, and tracks a directory-level dirty bit independent of
// any individual entry's own dirty bit.
type DirectoryTable struct {
	slots      []*RawEntry
	isFAT32    bool
	resizable  bool
	dirty      bool
	onDirty    func()
	Warnings   []string
}

// NewEmptyDirectoryTable creates a DirectoryTable with capacity slots, all
// free. isFAT32 controls whether anchors may use a nonzero high cluster word;
// resizable controls whether Insert may grow the table when full (true for
// every directory except the fixed-size FAT12/16 root).
func NewEmptyDirectoryTable(capacity int, isFAT32, resizable bool) *DirectoryTable {
	table := &DirectoryTable{
		slots:     make([]*RawEntry, capacity),
		isFAT32:   isFAT32,
		resizable: resizable,
	}
	for i := range table.slots {
		table.slots[i] = NewRawEntry(table)
	}
	return table
}

// ParseDirectoryTable interprets a byte buffer, whose length must be a
// multiple of 32, as a directory table. Deleted records are retained in
// place. A 0x00-first-byte record ends the live scan; if trailing bytes past
// it are non-zero (a violation of I1), a diagnostic is recorded in Warnings
// but the trailing data is not otherwise interpreted (still Corrupt-tolerant,
// not fatal).
func ParseDirectoryTable(data []byte, isFAT32, resizable bool) (*DirectoryTable, error) {
	if len(data)%DirentSize != 0 {
		return nil, disko.ErrCorrupt.WithMessage(
			fmt.Sprintf("directory buffer length %d is not a multiple of %d", len(data), DirentSize))
	}

	table := &DirectoryTable{
		slots:     make([]*RawEntry, len(data)/DirentSize),
		isFAT32:   isFAT32,
		resizable: resizable,
	}

	terminated := false
	for i := range table.slots {
		raw := NewRawEntry(table)
		var buf [DirentSize]byte
		copy(buf[:], data[i*DirentSize:(i+1)*DirentSize])

		if terminated {
			for _, b := range buf {
				if b != 0 {
					table.Warnings = append(table.Warnings, fmt.Sprintf(
						"invariant I1 violated: non-zero byte found in slot %d after terminator", i))
					break
				}
			}
		} else if buf[0] == nameFirstByteFree {
			terminated = true
		}

		raw.Load(buf)
		table.slots[i] = raw
	}

	return table, nil
}

// TotalSlots returns the table's capacity in 32-byte slots.
func (t *DirectoryTable) TotalSlots() int {
	return len(t.slots)
}

// IsDirty reports whether the table has been mutated since the last
// Serialize.
func (t *DirectoryTable) IsDirty() bool {
	return t.dirty
}

// SetFlushListener registers a callback invoked whenever MarkDirty runs. The
// enclosing file system uses this to know when a directory needs flushing;
// the core itself never schedules the write.
func (t *DirectoryTable) SetFlushListener(fn func()) {
	t.onDirty = fn
}

// MarkDirty sets the table's own dirty bit and notifies any registered flush
// listener. It's exported so ShortEntry (and LFN slot mutation) can propagate
// upward without the table exposing its raw slots.
func (t *DirectoryTable) MarkDirty() {
	t.dirty = true
	if t.onDirty != nil {
		t.onDirty()
	}
}

// Serialize writes every slot in order into out, which must be exactly
// TotalSlots()*DirentSize bytes long, and clears the dirty bit on the table
// and every entry.
func (t *DirectoryTable) Serialize(out []byte) error {
	want := len(t.slots) * DirentSize
	if len(out) != want {
		return disko.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("output buffer must be %d bytes, got %d", want, len(out)))
	}

	for i, raw := range t.slots {
		buf := raw.Bytes()
		copy(out[i*DirentSize:(i+1)*DirentSize], buf[:])
		raw.ClearDirty()
	}
	t.dirty = false
	return nil
}

// Entries walks the table's slots and returns the logical entries they form:
// free/deleted slots, and ShortEntry anchors with their LFN chain (if any)
// assembled into a long name. Enumeration stops at the first free-terminal
// slot, per I1.
func (t *DirectoryTable) Entries() []*LogicalEntry {
	var out []*LogicalEntry
	var pendingChain []*RawEntry
	chainStart := -1

	flushBrokenChain := func() {
		if len(pendingChain) > 0 {
			t.Warnings = append(t.Warnings, "discarded broken LFN chain")
		}
		pendingChain = nil
		chainStart = -1
	}

	for i, raw := range t.slots {
		switch raw.Classify() {
		case KindFree:
			flushBrokenChain()
			return out
		case KindDeleted:
			flushBrokenChain()
			out = append(out, &LogicalEntry{Kind: KindDeleted, anchorIndex: i})
		case KindLfn:
			if chainStart == -1 {
				chainStart = i
			}
			pendingChain = append(pendingChain, raw)
		case KindShort:
			anchor := NewShortEntry(raw, t.isFAT32)
			var name11 [11]byte
			copy(name11[:], raw.buf[0:11])

			longName, ok := "", false
			if len(pendingChain) > 0 {
				longName, ok = AssembleLongName(pendingChain, name11)
			}
			entry := &LogicalEntry{
				Kind:        KindShort,
				Anchor:      anchor,
				LongName:    longName,
				HasLongName: ok,
				anchorIndex: i,
			}
			if ok {
				entry.chainStart = chainStart
			} else {
				entry.chainStart = i
			}
			out = append(out, entry)
			pendingChain = nil
			chainStart = -1
		}
	}
	flushBrokenChain()
	return out
}

// LiveShortNames returns the uppercase short names of every live (non-free,
// non-deleted) entry, for use as the `used` set passed to
// ShortNameGenerator.
func (t *DirectoryTable) LiveShortNames() map[string]struct{} {
	used := make(map[string]struct{})
	for _, entry := range t.Entries() {
		if entry.Kind == KindShort {
			used[strings.ToUpper(entry.Anchor.ShortName())] = struct{}{}
		}
	}
	return used
}

// occupancyBitmap builds an allocator whose bits are true for every slot
// occupied by a live entry (short or LFN) and false for every free or
// deleted slot, i.e. every slot Insert is allowed to reuse.
func (t *DirectoryTable) occupancyBitmap() common.Allocator {
	alloc := common.NewAllocator(uint(len(t.slots)))
	for _, entry := range t.Entries() {
		if entry.Kind != KindShort {
			continue
		}
		for i := entry.chainStart; i <= entry.anchorIndex; i++ {
			alloc.AllocationBitmap.Set(i, true)
		}
	}
	return alloc
}

func (t *DirectoryTable) grow(extraSlots int) {
	for i := 0; i < extraSlots; i++ {
		t.slots = append(t.slots, NewRawEntry(t))
	}
}

// Insert generates a unique short name for longName via ShortNameGenerator,
// builds its LFN chain, allocates (k+1) contiguous free/deleted slots
// (growing the table if it's resizable and no run is available), and writes
// the new anchor with attrs as its attribute byte. It returns the anchor.
func (t *DirectoryTable) Insert(longName string, attrs uint8) (*ShortEntry, error) {
	used := t.LiveShortNames()
	generator := NewShortNameGenerator()
	shortName, err := generator.Generate(longName, used)
	if err != nil {
		return nil, err
	}

	shortName11 := PackShortName11(shortName)
	chain, err := BuildLfnChain(longName, shortName11)
	if err != nil {
		return nil, err
	}

	needed := uint(len(chain) + 1)
	alloc := t.occupancyBitmap()
	runStart, err := alloc.FindContiguousValues(false, needed)
	if err != nil {
		if !t.resizable {
			return nil, disko.ErrDirectoryFull.WithMessage(
				fmt.Sprintf("no room for %d more slots in a fixed-size directory", needed))
		}
		start := len(t.slots)
		t.grow(int(needed))
		runStart = common.UnitID(start)
	}

	start := int(runStart)
	for i, raw := range chain {
		raw.parent = t
		t.slots[start+i] = raw
	}

	anchorRaw := NewRawEntry(t)
	anchorRaw.WriteFlagByte(attrs)
	anchor := NewShortEntry(anchorRaw, t.isFAT32)
	if err := anchor.SetShortName(shortName); err != nil {
		return nil, err
	}

	now := time.Now()
	_ = anchor.SetCreatedAt(now)
	_ = anchor.SetLastModifiedAt(now)
	_ = anchor.SetLastAccessedAt(now)

	t.slots[start+len(chain)] = anchorRaw
	t.MarkDirty()
	return anchor, nil
}

// findAnchorIndex locates an entry's index range [chainStart, anchorIndex]
// among the table's slots by identity of the RawEntry.
func (t *DirectoryTable) findAnchorIndex(entry *ShortEntry) (chainStart, anchorIndex int, err error) {
	for _, le := range t.Entries() {
		if le.Kind == KindShort && le.Anchor.raw == entry.raw {
			return le.chainStart, le.anchorIndex, nil
		}
	}
	return 0, 0, disko.ErrNotFound.WithMessage("entry does not belong to this directory table")
}

// Remove marks entry's anchor and every slot of its LFN chain (if any) as
// deleted.
func (t *DirectoryTable) Remove(entry *ShortEntry) error {
	chainStart, anchorIndex, err := t.findAnchorIndex(entry)
	if err != nil {
		return err
	}

	for i := chainStart; i <= anchorIndex; i++ {
		t.slots[i].buf[0] = nameFirstByteDeleted
		t.slots[i].touch()
	}
	t.MarkDirty()
	return nil
}

// Rename removes entry and reinserts it under newLongName, preserving its
// start cluster, size, and timestamps.
func (t *DirectoryTable) Rename(entry *ShortEntry, newLongName string) (*ShortEntry, error) {
	cluster := entry.StartCluster()
	size := entry.Size()
	created := entry.CreatedAt()
	modified := entry.LastModifiedAt()
	accessed := entry.LastAccessedAt()
	attrs := entry.attr()

	if err := t.Remove(entry); err != nil {
		return nil, err
	}

	newEntry, err := t.Insert(newLongName, attrs)
	if err != nil {
		return nil, err
	}

	if err := newEntry.SetStartCluster(cluster); err != nil {
		return nil, err
	}
	newEntry.SetSize(size)
	_ = newEntry.SetCreatedAt(created)
	_ = newEntry.SetLastModifiedAt(modified)
	_ = newEntry.SetLastAccessedAt(accessed)
	return newEntry, nil
}
