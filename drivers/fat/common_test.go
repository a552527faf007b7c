package fat_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/nallik/vfat/drivers/fat"
)

func TestNewFATBootSectorFromStreamParsesFAT32RootCluster(t *testing.T) {
	buf := &bytes.Buffer{}
	write := func(v any) {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("failed packing boot sector field: %s", err)
		}
	}

	write([3]byte{0xEB, 0x3C, 0x90})
	write([8]byte{'M', 'S', 'D', 'O', 'S', '5', '.', '0'})
	write(uint16(512))  // BytesPerSector
	write(uint8(8))     // SectorsPerCluster
	write(uint16(32))   // ReservedSectors
	write(uint8(2))     // NumFATs
	write(uint16(0))    // RootEntryCount -- always 0 on FAT32
	write(uint16(0))    // totalSectors16 -- 0 forces totalSectors32
	write(uint8(0xF8))  // Media
	write(uint16(0))    // sectorsPerFAT16 -- 0 forces sectorsPerFAT32
	write(uint16(0))    // SectorsPerTrack
	write(uint16(0))    // NumHeads
	write(uint32(0))    // HiddenSectors
	write(uint32(562032)) // totalSectors32: reserved(32) + FATs(2*1000) + 70000 clusters*8

	write(uint32(1000)) // sectorsPerFAT32

	// FAT32ExtendedBPB
	write(uint16(0))                  // ExtFlags
	write(uint8(0))                   // FSVersionMinor
	write(uint8(0))                   // FSVersionMajor
	write(uint32(2))                  // RootCluster
	write(uint32(6))                  // BackupBootSector
	write([12]byte{})                 // reserved
	write(uint8(0x80))                // DriveNumber
	write(uint8(0))                   // NTReserved
	write(uint8(0x29))                // ExBootSignature
	write(uint32(0x12345678))         // VolumeID
	write([11]byte{'N', 'O', ' ', 'N', 'A', 'M', 'E', ' ', ' ', ' ', ' '})
	write([8]byte{'F', 'A', 'T', '3', '2', ' ', ' ', ' '})

	boot, err := fat.NewFATBootSectorFromStream(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewFATBootSectorFromStream failed: %s", err)
	}

	if boot.FATVersion != 32 {
		t.Fatalf("FATVersion = %d, want 32", boot.FATVersion)
	}
	if boot.FAT32 == nil {
		t.Fatalf("FAT32 extension fields were not populated")
	}
	if boot.FAT32.RootCluster != 2 {
		t.Errorf("RootCluster = %d, want 2", boot.FAT32.RootCluster)
	}
	if boot.RootDirSectors != 0 {
		t.Errorf("RootDirSectors = %d, want 0 on FAT32", boot.RootDirSectors)
	}
	if boot.FirstDataSector != fat.SectorID(32+2*1000) {
		t.Errorf("FirstDataSector = %d, want %d", boot.FirstDataSector, 32+2*1000)
	}
}

func TestDetermineFATVersion(t *testing.T) {
	cases := map[uint]int{
		1:     12,
		4084:  12,
		4085:  16,
		65524: 16,
		65525: 32,
		200000: 32,
	}
	for clusters, want := range cases {
		if got := fat.DetermineFATVersion(clusters); got != want {
			t.Errorf("DetermineFATVersion(%d) = %d, want %d", clusters, got, want)
		}
	}
}
