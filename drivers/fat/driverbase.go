package fat

import (
	"fmt"
	"io"

	disko "github.com/nallik/vfat"
)

// This file defines the driver interface and delegates to the underlying version-specific
// drivers.

type ClusterID uint32
type SectorID uint32

type FATDriverCommon interface {
	GetBootSector() *FATBootSector
	GetClusterAtIndex(index uint) (ClusterID, error)
	SetClusterAtIndex(index uint, cluster ClusterID) error
	GetNextClusterInChain(cluster ClusterID) (ClusterID, error)
	IsValidCluster(cluster ClusterID) bool
	IsEndOfChain(cluster ClusterID) bool
}

type FATDriver struct {
	fs       FATDriverCommon
	diskFile interface{}
}

// getFirstSectorOfCluster maps a cluster number to its absolute sector on
// disk. Clusters 0 and 1 are reserved by the FAT format and have no data
// sector of their own; real data starts at cluster 2.
func (drv *FATDriver) getFirstSectorOfCluster(cluster ClusterID) (SectorID, error) {
	if cluster < 2 {
		return 0, disko.ErrInvalidCluster.WithMessage(
			fmt.Sprintf("cluster %d is reserved and has no data sector", cluster))
	}

	bootSector := drv.fs.GetBootSector()
	return bootSector.FirstDataSector + SectorID(
		uint32(bootSector.SectorsPerCluster)*uint32(cluster-2)), nil
}

func (drv *FATDriver) readAbsoluteSectors(sector SectorID, numSectors uint) ([]byte, error) {
	bootSector := drv.fs.GetBootSector()

	buffer := make([]byte, uint(bootSector.BytesPerSector)*numSectors)
	diskFile := drv.diskFile.(io.ReaderAt)

	nRead, err := diskFile.ReadAt(buffer, int64(bootSector.BytesPerSector)*int64(sector))

	if err != nil {
		return buffer, err
	} else if nRead < len(buffer) {
		return nil, fmt.Errorf(
			"Unexpected short read. Wanted %d bytes, got %d.", len(buffer), nRead)
	}

	return buffer, nil
}

// readCluster returns the bytes of the given cluster on the file system. The
// `index` argument is not used.
func (drv *FATDriver) readCluster(cluster ClusterID, index uint) ([]byte, error) {
	sectorID, err := drv.getFirstSectorOfCluster(cluster)
	if err != nil {
		return nil, err
	}

	bootSector := drv.fs.GetBootSector()
	return drv.readAbsoluteSectors(sectorID, uint(bootSector.SectorsPerCluster))
}

// readSectorsInCluster returns the bytes of `numSectors` sectors of the given cluster,
// starting at its `index`th sector.
// `index` starts from 0. On error, the byte slice will be nil and the second return value
// is an error object detailing what went wrong.
func (drv *FATDriver) readSectorsInCluster(cluster ClusterID, index uint, numSectors uint) ([]byte, error) {
	firstSector, err := drv.getFirstSectorOfCluster(cluster)
	if err != nil {
		return nil, err
	}

	bootSector := drv.fs.GetBootSector()
	if (index + numSectors) > uint(bootSector.SectorsPerCluster) {
		return nil, disko.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf(
				"cannot read %d sectors from index %d: read would exceed cluster size",
				numSectors,
				index))
	}

	absoluteSector := uint(firstSector) + index
	return drv.readAbsoluteSectors(SectorID(absoluteSector), numSectors)
}

// listClusters returns a list of every cluster in the chain beginning at chainStart.
//
// The returned list will always have chainStart as its first member, unless chainStart
// is an EOF marker (e.g. 0xFFF on FAT12 systems). In this case, the list is empty.
func (drv *FATDriver) listClusters(chainStart ClusterID) ([]ClusterID, error) {
	if drv.fs.IsEndOfChain(chainStart) {
		return []ClusterID{}, nil
	}
	if !drv.fs.IsValidCluster(chainStart) {
		return nil, disko.ErrInvalidCluster.WithMessage(
			fmt.Sprintf("invalid cluster 0x%x cannot start a cluster chain", chainStart))
	}

	chain := []ClusterID{}
	currentCluster := chainStart
	i := 0

	for {
		chain = append(chain, currentCluster)

		nextCluster, err := drv.fs.GetClusterAtIndex(uint(currentCluster))
		if err != nil {
			return nil, err
		}

		if drv.fs.IsEndOfChain(nextCluster) {
			break
		}

		if !drv.fs.IsValidCluster(nextCluster) {
			// Hit an invalid cluster. This is not the same as EOF, and usually indicates
			// corruption of some sort.
			return chain, disko.ErrInvalidCluster.WithMessage(
				fmt.Sprintf(
					"cluster %d followed by invalid cluster 0x%x at index %d in chain from %d",
					currentCluster,
					nextCluster,
					i,
					chainStart))
		}

		currentCluster = nextCluster
		i++
	}

	return chain, nil
}

// getClusterInChain returns the ID of the `index`th cluster in the chain starting at
// `firstCluster`. Indexing begins at 0. A cluster ID of 0 indicates an error occurred,
// and the Error object in the second return value will indicate what went wrong.
func (drv *FATDriver) getClusterInChain(firstCluster ClusterID, index uint) (ClusterID, error) {
	currentCluster := firstCluster

	for i := uint(0); i < index; i++ {
		nextCluster, err := drv.fs.GetClusterAtIndex(uint(currentCluster))
		if err != nil {
			return 0, err
		}

		if drv.fs.IsEndOfChain(nextCluster) {
			// Hit EOF
			return 0, disko.ErrInvalidCluster.WithMessage(
				fmt.Sprintf(
					"cluster index %d out of bounds -- chain from 0x%x has %d clusters",
					index,
					firstCluster,
					i+1))
		} else if !drv.fs.IsValidCluster(nextCluster) {
			// Hit an invalid cluster. This is not the same as EOF, and usually indicates
			// corruption of some sort.
			return 0, disko.ErrInvalidCluster.WithMessage(
				fmt.Sprintf(
					"cluster %d followed by invalid cluster 0x%x at index %d in chain from %d",
					currentCluster,
					nextCluster,
					i,
					firstCluster))
		}
		currentCluster = nextCluster
	}

	return currentCluster, nil
}

// readClusterChain concatenates the bytes of every cluster in the chain
// starting at chainStart, in order. Volume.RootDirectory uses it directly for
// FAT32 root directories, which are ordinary cluster chains.
func (drv *FATDriver) readClusterChain(chainStart ClusterID) ([]byte, error) {
	chain, err := drv.listClusters(chainStart)
	if err != nil {
		return nil, err
	}

	bootSector := drv.fs.GetBootSector()
	out := make([]byte, 0, len(chain)*int(bootSector.SectorsPerCluster)*int(bootSector.BytesPerSector))
	for _, cluster := range chain {
		data, err := drv.readCluster(cluster, 1)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

// readClusterChainOfEntry is readClusterChain keyed off a directory entry's
// StartCluster field rather than a bare ClusterID.
func (drv *FATDriver) readClusterChainOfEntry(entry *ShortEntry) ([]byte, error) {
	return drv.readClusterChain(ClusterID(entry.StartCluster()))
}

// ReadClusterRangeAt reads len(buf) bytes of a file's data starting at byte
// offset within the file, walking the chain from chainStart one cluster at a
// time rather than materializing the whole chain like readClusterChain does.
// Its signature matches ByteRangeReader, so it can be bound directly into an
// Entry for random-access reads.
func (drv *FATDriver) ReadClusterRangeAt(chainStart ClusterID, buf []byte, offset int64) (int, error) {
	bootSector := drv.fs.GetBootSector()
	bytesPerCluster := int64(bootSector.BytesPerCluster)
	bytesPerSector := int64(bootSector.BytesPerSector)
	if bytesPerCluster == 0 || bytesPerSector == 0 {
		return 0, disko.ErrInvalidArgument.WithMessage("boot sector reports zero bytes per sector or cluster")
	}

	total := 0
	for total < len(buf) {
		absoluteOffset := offset + int64(total)
		clusterIndex := uint(absoluteOffset / bytesPerCluster)
		offsetInCluster := absoluteOffset % bytesPerCluster

		cluster, err := drv.getClusterInChain(chainStart, clusterIndex)
		if err != nil {
			return total, err
		}

		sectorIndexInCluster := uint(offsetInCluster / bytesPerSector)
		offsetInSector := offsetInCluster % bytesPerSector

		sectorData, err := drv.readSectorsInCluster(cluster, sectorIndexInCluster, 1)
		if err != nil {
			return total, err
		}
		if int(offsetInSector) >= len(sectorData) {
			break
		}

		total += copy(buf[total:], sectorData[offsetInSector:])
	}

	return total, nil
}

////////////////////////////////////////////////////////////////////////////////////////
// Parts of the Driver interface that can be implemented with little knowledge of the
// underlying file system.

// ReadDirectoryTable reads and parses every cluster in directoryEntry's chain
// into a DirectoryTable. directoryEntry must be a directory, not a file.
func (drv *FATDriver) ReadDirectoryTable(directoryEntry *ShortEntry, isFAT32 bool) (*DirectoryTable, error) {
	if !directoryEntry.IsDirectory() {
		return nil, disko.ErrNotADirectory
	}

	data, err := drv.readClusterChainOfEntry(directoryEntry)
	if err != nil {
		return nil, err
	}

	return ParseDirectoryTable(data, isFAT32, true)
}
