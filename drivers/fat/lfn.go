package fat

import (
	"encoding/binary"
	"unicode/utf16"

	disko "github.com/nallik/vfat"
)

const (
	lfnSeqLastFlag  = 0x40
	lfnSeqMask      = 0x1F
	lfnCharsPerSlot = 13
	lfnMaxSlots     = 20
	lfnTerminator   = 0x0000
	lfnPadding      = 0xFFFF
)

// lfnEntry is a thin view over a RawEntry known to be an LFN slot.
type lfnEntry struct {
	raw *RawEntry
}

func newLfnEntry(raw *RawEntry) lfnEntry {
	return lfnEntry{raw: raw}
}

// sequenceByte returns the raw byte at offset 0x00.
func (l lfnEntry) sequenceByte() byte {
	return l.raw.buf[0]
}

// ordinal returns the slot's 1-based position in the chain (1 = closest to
// the anchor).
func (l lfnEntry) ordinal() int {
	return int(l.sequenceByte() & lfnSeqMask)
}

// isLast reports whether this is the first slot stored on disk (the one
// carrying the 0x40 bit), which is logically the *last* 13-char segment of
// the name.
func (l lfnEntry) isLast() bool {
	return l.sequenceByte()&lfnSeqLastFlag != 0
}

// isDeleted reports whether this slot has been marked deleted.
func (l lfnEntry) isDeleted() bool {
	return l.raw.buf[0] == nameFirstByteDeleted
}

// checksum returns the short-name checksum this slot claims to bind to.
func (l lfnEntry) checksum() byte {
	return l.raw.buf[0x0D]
}

// chars returns the 13 UCS-2 code units this slot carries, in order.
func (l lfnEntry) chars() [lfnCharsPerSlot]uint16 {
	var out [lfnCharsPerSlot]uint16
	for i := 0; i < 5; i++ {
		out[i] = binary.LittleEndian.Uint16(l.raw.buf[0x01+2*i : 0x03+2*i])
	}
	for i := 0; i < 6; i++ {
		out[5+i] = binary.LittleEndian.Uint16(l.raw.buf[0x0E+2*i : 0x10+2*i])
	}
	for i := 0; i < 2; i++ {
		out[11+i] = binary.LittleEndian.Uint16(l.raw.buf[0x1C+2*i : 0x1E+2*i])
	}
	return out
}

// buildLfnSlot writes one LFN slot's worth of raw bytes: sequence byte,
// checksum, and 13 UCS-2 code units.
func buildLfnSlot(raw *RawEntry, ordinal int, last bool, checksum byte, chars [lfnCharsPerSlot]uint16) {
	seq := byte(ordinal)
	if last {
		seq |= lfnSeqLastFlag
	}
	raw.buf[0x00] = seq
	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint16(raw.buf[0x01+2*i:0x03+2*i], chars[i])
	}
	raw.buf[0x0B] = lfnAttrMask
	raw.buf[0x0C] = 0
	raw.buf[0x0D] = checksum
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint16(raw.buf[0x0E+2*i:0x10+2*i], chars[5+i])
	}
	binary.LittleEndian.PutUint16(raw.buf[0x1A:0x1C], 0)
	for i := 0; i < 2; i++ {
		binary.LittleEndian.PutUint16(raw.buf[0x1C+2*i:0x1E+2*i], chars[11+i])
	}
}

// ShortNameChecksum computes the LFN checksum for an 11-byte space-padded
// short name (8 name bytes + 3 extension bytes).
func ShortNameChecksum(shortName11 [11]byte) byte {
	var sum byte
	for _, b := range shortName11 {
		sum = ((sum >> 1) | (sum << 7)) + b
	}
	return sum
}

// lfnSlotCount returns the number of 13-char LFN slots needed to encode a
// UCS-2 name of the given length, per the disassembly rule in §4.C: names
// whose length is an exact multiple of 13 need no terminator or padding slot.
func lfnSlotCount(numChars int) int {
	if numChars%lfnCharsPerSlot == 0 {
		return numChars / lfnCharsPerSlot
	}
	return (numChars + 1 + lfnCharsPerSlot - 1) / lfnCharsPerSlot
}

// BuildLfnChain encodes longName as a run of LFN slots in disk order (the
// slot carrying the 0x40 last-slot bit first, descending to sequence 1 last),
// bound to shortName11 via the checksum. Returns ErrUnsupportedName if
// longName contains a code point outside the UCS-2 basic multilingual plane.
func BuildLfnChain(longName string, shortName11 [11]byte) ([]*RawEntry, error) {
	units := utf16.Encode([]rune(longName))
	for _, r := range longName {
		if r > 0xFFFF {
			return nil, disko.ErrUnsupportedName.WithMessage(
				"long name contains a code point outside the UCS-2 BMP")
		}
	}

	total := lfnSlotCount(len(units)) * lfnCharsPerSlot
	padded := make([]uint16, total)
	copy(padded, units)

	if len(units)%lfnCharsPerSlot != 0 {
		padded[len(units)] = lfnTerminator
		for i := len(units) + 1; i < total; i++ {
			padded[i] = lfnPadding
		}
	}

	slotCount := total / lfnCharsPerSlot
	if slotCount > lfnMaxSlots {
		return nil, disko.ErrUnsupportedName.WithMessage("long name requires more than 20 LFN slots")
	}

	checksum := ShortNameChecksum(shortName11)
	entries := make([]*RawEntry, slotCount)

	for i := 0; i < slotCount; i++ {
		ordinal := slotCount - i
		var chars [lfnCharsPerSlot]uint16
		copy(chars[:], padded[(ordinal-1)*lfnCharsPerSlot:ordinal*lfnCharsPerSlot])

		raw := NewRawEntry(nil)
		buildLfnSlot(raw, ordinal, i == 0, checksum, chars)
		entries[i] = raw
	}

	return entries, nil
}

// AssembleLongName reconstructs a long name from a run of LFN RawEntries
// given in disk order (the way BuildLfnChain emits them) and the short-name
// bytes of the anchor entry that follows them. It returns the recovered name
// and true on success; on any structural mismatch (bad sequence run, deleted
// slot, checksum mismatch) it returns "", false and the caller should fall
// back to the anchor's short name alone.
func AssembleLongName(chain []*RawEntry, anchorShortName11 [11]byte) (string, bool) {
	if len(chain) == 0 || len(chain) > lfnMaxSlots {
		return "", false
	}

	first := newLfnEntry(chain[0])
	if !first.isLast() || first.isDeleted() {
		return "", false
	}

	k := first.ordinal()
	if k != len(chain) {
		return "", false
	}
	checksum := first.checksum()

	units := make([]uint16, k*lfnCharsPerSlot)
	expectedOrdinal := k
	for _, raw := range chain {
		slot := newLfnEntry(raw)
		if slot.isDeleted() {
			return "", false
		}
		if slot.ordinal() != expectedOrdinal || slot.checksum() != checksum {
			return "", false
		}
		chars := slot.chars()
		copy(units[(expectedOrdinal-1)*lfnCharsPerSlot:], chars[:])
		expectedOrdinal--
	}
	if expectedOrdinal != 0 {
		return "", false
	}

	if ShortNameChecksum(anchorShortName11) != checksum {
		return "", false
	}

	for i, u := range units {
		if u == lfnTerminator {
			units = units[:i]
			break
		}
	}

	runes := utf16.Decode(units)
	return string(runes), true
}
