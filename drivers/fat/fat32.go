package fat

// FAT32ExtendedBPB is the block of fields that follows the 32-bit FAT size
// in a FAT32 boot sector's extended BPB. It's read as a unit by
// NewFATBootSectorFromStream once the on-disk cluster count identifies the
// volume as FAT32, since unlike FAT12/16 the FAT32 root directory has no
// fixed sector range and can only be located via RootCluster.
type FAT32ExtendedBPB struct {
	ExtFlags         uint16
	FSVersionMinor   uint8
	FSVersionMajor   uint8
	RootCluster      uint32
	BackupBootSector uint32
	Reserved         [12]byte
	DriveNumber      uint8
	NTReserved       uint8
	ExBootSignature  uint8
	VolumeID         uint32
	VolumeLabel      [11]byte
	FileSystemType   [8]byte
}

// RawFAT32BootSector is the full on-disk FAT32 boot sector: the shared BPB,
// its 32-bit FAT size, and the FAT32-specific extension.
type RawFAT32BootSector struct {
	RawFATBootSectorWithBPB
	fatSize32 uint32
	FAT32ExtendedBPB
}
