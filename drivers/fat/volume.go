package fat

import (
	"io"

	disko "github.com/nallik/vfat"
)

// fatDriverAdapter satisfies FATDriverCommon on top of a decoded FatTable and
// boot sector, letting FATDriver's generic cluster/sector helpers operate
// against a real mounted volume instead of a test stub.
type fatDriverAdapter struct {
	boot  *FATBootSector
	table *FatTable
}

func (a *fatDriverAdapter) GetBootSector() *FATBootSector {
	return a.boot
}

func (a *fatDriverAdapter) GetClusterAtIndex(index uint) (ClusterID, error) {
	entries := a.table.Entries()
	if index >= uint(len(entries)) {
		return 0, disko.ErrInvalidCluster.WithMessage("cluster index out of range")
	}
	return entries[index], nil
}

func (a *fatDriverAdapter) SetClusterAtIndex(index uint, cluster ClusterID) error {
	entries := a.table.Entries()
	if index >= uint(len(entries)) {
		return disko.ErrInvalidCluster.WithMessage("cluster index out of range")
	}
	entries[index] = cluster
	return nil
}

func (a *fatDriverAdapter) GetNextClusterInChain(cluster ClusterID) (ClusterID, error) {
	return a.GetClusterAtIndex(uint(cluster))
}

func (a *fatDriverAdapter) IsValidCluster(cluster ClusterID) bool {
	entries := a.table.Entries()
	return cluster >= 2 && uint(cluster) < uint(len(entries))
}

func (a *fatDriverAdapter) IsEndOfChain(cluster ClusterID) bool {
	return a.table.IsEndOfChain(cluster)
}

// Volume is a mounted FAT file system: a decoded boot sector and FAT table,
// plus the FATDriver that turns them into cluster and sector reads. It's the
// entry point for walking a real disk image's directory tree.
type Volume struct {
	driver *FATDriver
	boot   *FATBootSector
	table  *FatTable
}

// Mount reads the boot sector and File Allocation Table from disk and
// returns a Volume ready to serve directory and file reads. disk must
// support ReadAt; sizeBytes is the total addressable size of the image.
func Mount(disk io.ReaderAt, sizeBytes int64) (*Volume, error) {
	boot, err := NewFATBootSectorFromStream(io.NewSectionReader(disk, 0, sizeBytes))
	if err != nil {
		return nil, err
	}

	fatOffset := int64(boot.ReservedSectors) * int64(boot.BytesPerSector)
	fatBytes := make([]byte, int64(boot.SectorsPerFAT)*int64(boot.BytesPerSector))
	if _, err := disk.ReadAt(fatBytes, fatOffset); err != nil {
		return nil, disko.ErrIOFailed.WithMessage(err.Error())
	}

	entries, err := decodeFatEntries(fatBytes, boot.FATVersion, boot.TotalClusters+2)
	if err != nil {
		return nil, err
	}

	table := NewFatTable(entries, eocThresholdForVersion(boot.FATVersion), boot.BytesPerCluster)
	adapter := &fatDriverAdapter{boot: boot, table: table}
	driver := &FATDriver{fs: adapter, diskFile: disk}

	return &Volume{driver: driver, boot: boot, table: table}, nil
}

// isFAT32 reports whether this volume uses the FAT32 on-disk format, which
// changes how the root directory is located and how directory entries
// encode their start cluster.
func (v *Volume) isFAT32() bool {
	return v.boot.FATVersion == 32
}

// RootDirectory reads and parses the volume's root directory: a fixed-size
// area right after the FAT copies on FAT12/16, or an ordinary cluster chain
// rooted at BootSector.FAT32.RootCluster on FAT32.
func (v *Volume) RootDirectory() (*DirectoryTable, error) {
	if v.isFAT32() {
		if v.boot.FAT32 == nil {
			return nil, disko.ErrCorrupt.WithMessage("FAT32 volume is missing its extended boot sector fields")
		}
		data, err := v.driver.readClusterChain(ClusterID(v.boot.FAT32.RootCluster))
		if err != nil {
			return nil, err
		}
		return ParseDirectoryTable(data, true, true)
	}

	rootSector := SectorID(uint(v.boot.ReservedSectors) + v.boot.TotalFATSectors)
	data, err := v.driver.readAbsoluteSectors(rootSector, v.boot.RootDirSectors)
	if err != nil {
		return nil, err
	}
	return ParseDirectoryTable(data, false, false)
}

// RootEntries returns the top-level entries of the volume's root directory,
// each carrying this volume's cluster and byte-range readers so
// subdirectories can be walked and files read via Entry.IterIfDirectory and
// Entry.ReadAt.
func (v *Volume) RootEntries() ([]*Entry, error) {
	root, err := v.RootDirectory()
	if err != nil {
		return nil, err
	}

	var out []*Entry
	for _, le := range root.Entries() {
		if le.Kind != KindShort || le.Anchor.IsVolumeLabel() {
			continue
		}
		out = append(out, newEntry(le, root, v.isFAT32(), v.driver.ReadDirectoryTable, v.driver.ReadClusterRangeAt))
	}
	return out, nil
}
