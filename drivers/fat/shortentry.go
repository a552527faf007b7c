package fat

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	disko "github.com/nallik/vfat"
)

// StrictTimestamps controls what happens when a caller tries to store a time
// that can't be represented exactly in the DOS packed format. When false (the
// default, matching legacy behavior when round-tripping foreign volumes), the
// value is silently clamped into range. When true, out-of-range timestamps are
// rejected with an error instead.
var StrictTimestamps = false

// ShortEntry interprets a RawEntry as a standard 8.3 directory record: name,
// attributes, timestamps, start cluster, and length. It never allocates or
// frees clusters itself; that's the FatTable's job.
type ShortEntry struct {
	raw     *RawEntry
	isFAT32 bool
}

// NewShortEntry wraps a RawEntry as a ShortEntry. isFAT32 controls whether a
// nonzero high 16 bits of the start cluster is legal.
func NewShortEntry(raw *RawEntry, isFAT32 bool) *ShortEntry {
	return &ShortEntry{raw: raw, isFAT32: isFAT32}
}

// Raw returns the underlying RawEntry, e.g. for classification or checksum
// computation by the LFN machinery.
func (e *ShortEntry) Raw() *RawEntry {
	return e.raw
}

// IsDirty reports whether the entry has been mutated since the last flush.
func (e *ShortEntry) IsDirty() bool {
	return e.raw.IsDirty()
}

// --- Name -------------------------------------------------------------------

// ShortName returns the entry's 8.3 name as "BASE" or "BASE.EXT", with the
// 0x05/0xE5 escape reversed and trailing padding trimmed.
func (e *ShortEntry) ShortName() string {
	base := string(e.raw.buf[0:8])
	ext := string(e.raw.buf[8:11])

	if e.raw.buf[0] == nameFirstByteEscapedE5 {
		base = "\xe5" + base[1:]
	}

	base = strings.TrimRight(base, " ")
	ext = strings.TrimRight(ext, " ")

	if ext == "" {
		return base
	}
	return base + "." + ext
}

// SetShortName stores an already-legal 8.3 name (as produced by
// ShortNameGenerator) into the entry's name and extension fields.
func (e *ShortEntry) SetShortName(name string) error {
	base := name
	ext := ""
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		base = name[:idx]
		ext = name[idx+1:]
	}

	if len(base) > 8 || len(ext) > 3 {
		return disko.ErrUnsupportedName.WithMessage(
			fmt.Sprintf("short name %q does not fit the 8.3 layout", name))
	}

	var nameBuf [8]byte
	var extBuf [3]byte
	for i := range nameBuf {
		nameBuf[i] = ' '
	}
	for i := range extBuf {
		extBuf[i] = ' '
	}
	copy(nameBuf[:], base)
	copy(extBuf[:], ext)

	// A genuine leading 0xE5 in the name must be escaped to 0x05, since 0xE5
	// in byte 0 means "deleted".
	if len(base) > 0 && base[0] == '\xe5' {
		nameBuf[0] = nameFirstByteEscapedE5
	}

	copy(e.raw.buf[0:8], nameBuf[:])
	copy(e.raw.buf[8:11], extBuf[:])
	e.raw.touch()
	return nil
}

// --- Attributes ---------------------------------------------------------------

func (e *ShortEntry) attr() uint8 {
	return e.raw.ReadFlagByte()
}

func (e *ShortEntry) setAttrBit(bit uint8, on bool) {
	current := e.attr()
	if on {
		current |= bit
	} else {
		current &^= bit
	}
	e.raw.WriteFlagByte(current)
}

func (e *ShortEntry) IsReadOnly() bool    { return e.attr()&AttrReadOnly != 0 }
func (e *ShortEntry) IsHidden() bool      { return e.attr()&AttrHidden != 0 }
func (e *ShortEntry) IsSystem() bool      { return e.attr()&AttrSystem != 0 }
func (e *ShortEntry) IsArchived() bool    { return e.attr()&AttrArchived != 0 }
func (e *ShortEntry) IsVolumeLabel() bool { return e.attr()&AttrVolumeLabel != 0 }

// IsDirectory reports whether the entry names a subdirectory. Per invariant
// I5, the DIRECTORY bit only counts when VOLUME_LABEL is clear.
func (e *ShortEntry) IsDirectory() bool {
	a := e.attr()
	return a&AttrDirectory != 0 && a&AttrVolumeLabel == 0
}

// IsFile reports whether the entry names a regular file: neither DIRECTORY
// nor VOLUME_LABEL is set.
func (e *ShortEntry) IsFile() bool {
	a := e.attr()
	return a&AttrDirectory == 0 && a&AttrVolumeLabel == 0
}

// SetReadOnly, SetHidden, SetSystem, and SetArchived set (v true) or clear
// (v false) their bit in the existing attribute byte, leaving every other
// flag untouched.
func (e *ShortEntry) SetReadOnly(v bool) { e.setAttrBit(AttrReadOnly, v) }
func (e *ShortEntry) SetHidden(v bool)   { e.setAttrBit(AttrHidden, v) }
func (e *ShortEntry) SetSystem(v bool)   { e.setAttrBit(AttrSystem, v) }
func (e *ShortEntry) SetArchived(v bool) { e.setAttrBit(AttrArchived, v) }

// SetDirectory replaces the entire attribute byte with just DIRECTORY,
// matching the source behavior of creating a fresh directory with every
// other flag cleared.
func (e *ShortEntry) SetDirectory() {
	e.raw.WriteFlagByte(AttrDirectory)
}

// SetLabel replaces the entire attribute byte with just VOLUME_LABEL.
func (e *ShortEntry) SetLabel() {
	e.raw.WriteFlagByte(AttrVolumeLabel)
}

// --- Timestamps ---------------------------------------------------------------

func encodeDosDate(t time.Time) uint16 {
	year := t.Year() - 1980
	if year < 0 {
		year = 0
	} else if year > 127 {
		year = 127
	}
	return uint16(year)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

func encodeDosTime(t time.Time) uint16 {
	seconds := t.Second() / 2
	return uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(seconds)
}

func decodeDosDate(value uint16) (year, month, day int) {
	day = int(value & 0x1F)
	month = int((value >> 5) & 0x0F)
	year = 1980 + int(value>>9)
	return
}

func decodeDosTime(value uint16) (hour, minute, second int) {
	second = int(value&0x1F) * 2
	minute = int((value >> 5) & 0x3F)
	hour = int(value >> 11)
	return
}

// timeInDosRange reports whether t can be encoded without clamping.
func timeInDosRange(t time.Time) bool {
	return t.Year() >= 1980 && t.Year() <= 2107
}

func (e *ShortEntry) encodeTimestamp(t time.Time, dateOff, timeOff int) error {
	if StrictTimestamps && !timeInDosRange(t) {
		return disko.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf("%s cannot be represented as a DOS timestamp", t))
	}

	binary.LittleEndian.PutUint16(e.raw.buf[dateOff:dateOff+2], encodeDosDate(t))
	if timeOff >= 0 {
		binary.LittleEndian.PutUint16(e.raw.buf[timeOff:timeOff+2], encodeDosTime(t))
	}
	e.raw.touch()
	return nil
}

func (e *ShortEntry) decodeTimestamp(dateOff, timeOff int) time.Time {
	year, month, day := decodeDosDate(binary.LittleEndian.Uint16(e.raw.buf[dateOff : dateOff+2]))
	hour, minute, second := 0, 0, 0
	if timeOff >= 0 {
		hour, minute, second = decodeDosTime(binary.LittleEndian.Uint16(e.raw.buf[timeOff : timeOff+2]))
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
}

// CreatedAt returns the entry's creation timestamp.
func (e *ShortEntry) CreatedAt() time.Time {
	return e.decodeTimestamp(0x10, 0x0E)
}

// SetCreatedAt sets the entry's creation timestamp.
func (e *ShortEntry) SetCreatedAt(t time.Time) error {
	return e.encodeTimestamp(t, 0x10, 0x0E)
}

// LastAccessedAt returns the entry's last-access date. FAT only stores a date
// for last access, never a time.
func (e *ShortEntry) LastAccessedAt() time.Time {
	return e.decodeTimestamp(0x12, -1)
}

// SetLastAccessedAt sets the entry's last-access date.
func (e *ShortEntry) SetLastAccessedAt(t time.Time) error {
	return e.encodeTimestamp(t, 0x12, -1)
}

// LastModifiedAt returns the entry's last-modification timestamp.
func (e *ShortEntry) LastModifiedAt() time.Time {
	return e.decodeTimestamp(0x18, 0x16)
}

// SetLastModifiedAt sets the entry's last-modification timestamp.
func (e *ShortEntry) SetLastModifiedAt(t time.Time) error {
	return e.encodeTimestamp(t, 0x18, 0x16)
}

// --- Start cluster and size ----------------------------------------------------

// StartCluster returns the entry's first cluster, assembled from the low and
// high 16-bit fields.
func (e *ShortEntry) StartCluster() uint32 {
	low := binary.LittleEndian.Uint16(e.raw.buf[0x1A:0x1C])
	high := binary.LittleEndian.Uint16(e.raw.buf[0x14:0x16])
	return uint32(high)<<16 | uint32(low)
}

// SetStartCluster sets the entry's first cluster. On FAT12/16 directories, a
// value requiring more than 16 bits is rejected with ErrInvalidCluster and
// the entry is left unchanged.
func (e *ShortEntry) SetStartCluster(cluster uint32) error {
	if !e.isFAT32 && cluster > 0xFFFF {
		return disko.ErrInvalidCluster.WithMessage(
			fmt.Sprintf("cluster 0x%X does not fit in 16 bits on a FAT12/16 volume", cluster))
	}

	binary.LittleEndian.PutUint16(e.raw.buf[0x1A:0x1C], uint16(cluster))
	if e.isFAT32 {
		binary.LittleEndian.PutUint16(e.raw.buf[0x14:0x16], uint16(cluster>>16))
	} else {
		binary.LittleEndian.PutUint16(e.raw.buf[0x14:0x16], 0)
	}
	e.raw.touch()
	return nil
}

// Size returns the file length in bytes. Directories always report 0.
func (e *ShortEntry) Size() uint32 {
	return binary.LittleEndian.Uint32(e.raw.buf[0x1C:0x20])
}

// SetSize sets the file length in bytes.
func (e *ShortEntry) SetSize(size uint32) {
	binary.LittleEndian.PutUint32(e.raw.buf[0x1C:0x20], size)
	e.raw.touch()
}
