package fat

import "testing"

func TestRawEntryClassify(t *testing.T) {
	tests := []struct {
		Name   string
		Byte0  byte
		Attr   byte
		Expect EntryKind
	}{
		{"free terminator", 0x00, 0x00, KindFree},
		{"deleted short entry", 0xE5, AttrArchived, KindDeleted},
		{"deleted lfn slot", 0xE5, lfnAttrMask, KindDeleted},
		{"lfn slot", 0x41, lfnAttrMask, KindLfn},
		{"ordinary file", 'A', AttrArchived, KindShort},
		{"directory", 'A', AttrDirectory, KindShort},
		{"escaped 0xE5 name", nameFirstByteEscapedE5, AttrArchived, KindShort},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			raw := NewRawEntry(nil)
			raw.buf[0] = test.Byte0
			raw.buf[attrOffset] = test.Attr

			if got := raw.Classify(); got != test.Expect {
				t.Errorf("Classify() = %s, want %s", got, test.Expect)
			}
		})
	}
}

type stubParent struct {
	marked bool
}

func (s *stubParent) MarkDirty() {
	s.marked = true
}

func TestRawEntryDirtyPropagation(t *testing.T) {
	parent := &stubParent{}
	raw := NewRawEntry(parent)

	if raw.IsDirty() {
		t.Fatal("freshly constructed entry should not be dirty")
	}

	raw.WriteFlagByte(AttrReadOnly)

	if !raw.IsDirty() {
		t.Error("entry should be dirty after WriteFlagByte")
	}
	if !parent.marked {
		t.Error("parent should have been notified of the mutation")
	}
}

func TestRawEntryLoadDoesNotDirty(t *testing.T) {
	parent := &stubParent{}
	raw := NewRawEntry(parent)

	var buf [DirentSize]byte
	buf[0] = 'X'
	raw.Load(buf)

	if raw.IsDirty() {
		t.Error("Load should not mark the entry dirty")
	}
	if parent.marked {
		t.Error("Load should not propagate to the parent")
	}
}

func TestRawEntryClearDirty(t *testing.T) {
	raw := NewRawEntry(nil)
	raw.WriteFlagByte(AttrHidden)
	if !raw.IsDirty() {
		t.Fatal("expected entry to be dirty")
	}
	raw.ClearDirty()
	if raw.IsDirty() {
		t.Error("ClearDirty should reset the dirty bit")
	}
}
