package fat

import (
	"encoding/binary"

	disko "github.com/nallik/vfat"
)

// eocThresholdForVersion returns the smallest cluster value each FAT width
// uses to mean "end of chain". Taken from Microsoft's FAT documentation,
// v1.03, page 15.
func eocThresholdForVersion(version int) ClusterID {
	switch version {
	case 12:
		return 0x0FF8
	case 16:
		return 0xFFF8
	default:
		return 0x0FFFFFF8
	}
}

// decodeFatEntries unpacks the raw on-disk File Allocation Table into a flat
// chain-next array, one entry per cluster including the two reserved entries
// at index 0 and 1. version must be 12, 16, or 32; anything else is a bug in
// the caller, since NewFATBootSectorFromStream never returns anything else.
func decodeFatEntries(raw []byte, version int, totalEntries uint) ([]ClusterID, error) {
	entries := make([]ClusterID, totalEntries)

	switch version {
	case 16:
		for i := uint(0); i < totalEntries; i++ {
			offset := i * 2
			if offset+2 > uint(len(raw)) {
				break
			}
			entries[i] = ClusterID(binary.LittleEndian.Uint16(raw[offset : offset+2]))
		}

	case 32:
		for i := uint(0); i < totalEntries; i++ {
			offset := i * 4
			if offset+4 > uint(len(raw)) {
				break
			}
			entries[i] = ClusterID(binary.LittleEndian.Uint32(raw[offset:offset+4]) & 0x0FFFFFFF)
		}

	case 12:
		for i := uint(0); i < totalEntries; i++ {
			byteOffset := (i * 3) / 2
			if byteOffset+2 > uint(len(raw)) {
				break
			}
			packed := binary.LittleEndian.Uint16(raw[byteOffset : byteOffset+2])
			if i%2 == 0 {
				entries[i] = ClusterID(packed & 0x0FFF)
			} else {
				entries[i] = ClusterID(packed >> 4)
			}
		}

	default:
		return nil, disko.ErrInvalidFileSystem.WithMessage("unsupported FAT version for decoding")
	}

	return entries, nil
}
