package fat

import (
	disko "github.com/nallik/vfat"
	"github.com/nallik/vfat/drivers/common"
)

// FatTable is the in-memory File Allocation Table: a flat array mapping each
// cluster to the next cluster in its chain, plus the free-cluster bitmap
// derived from it. Index 0 and 1 are reserved by the FAT12/16/32 formats and
// are never handed out by AllocateChain.
type FatTable struct {
	entries         []ClusterID
	free            common.Allocator
	eocThreshold    ClusterID
	bytesPerCluster uint
}

// NewFatTable builds a FatTable from an already-decoded chain array (entries[i]
// is the cluster following cluster i, or a sentinel >= eocThreshold at the end
// of a chain, or 0 if free). eocThreshold is the smallest value the format
// uses to mean "end of chain" (e.g. 0xFFF8 for FAT16).
func NewFatTable(entries []ClusterID, eocThreshold ClusterID, bytesPerCluster uint) *FatTable {
	free := common.NewAllocator(uint(len(entries)))
	for i, next := range entries {
		if next != 0 {
			free.AllocationBitmap.Set(i, true)
		}
	}
	// Clusters 0 and 1 are reserved and never allocatable, regardless of what
	// the on-disk table happens to say about them.
	if len(entries) > 0 {
		free.AllocationBitmap.Set(0, true)
	}
	if len(entries) > 1 {
		free.AllocationBitmap.Set(1, true)
	}

	return &FatTable{
		entries:         entries,
		free:            free,
		eocThreshold:    eocThreshold,
		bytesPerCluster: bytesPerCluster,
	}
}

// IsEndOfChain reports whether cluster is an end-of-chain marker rather than
// a real cluster index.
func (f *FatTable) IsEndOfChain(cluster ClusterID) bool {
	return cluster == 0 || cluster >= f.eocThreshold
}

// FirstClusterOf returns the first cluster of entry's data, straight from its
// ShortEntry fields.
func (f *FatTable) FirstClusterOf(entry *ShortEntry) ClusterID {
	return ClusterID(entry.StartCluster())
}

// ChainLength returns the number of clusters in the chain starting at first.
func (f *FatTable) ChainLength(first ClusterID) (uint64, error) {
	var count uint64
	cur := first
	for !f.IsEndOfChain(cur) {
		if int(cur) >= len(f.entries) {
			return 0, disko.ErrInvalidCluster.WithMessage("cluster index out of range while walking chain")
		}
		count++
		cur = f.entries[cur]
	}
	return count, nil
}

// ChainBytesFor returns the storage capacity, in bytes, of the whole chain
// starting at first.
func (f *FatTable) ChainBytesFor(first ClusterID) (uint64, error) {
	count, err := f.ChainLength(first)
	if err != nil {
		return 0, err
	}
	return count * uint64(f.bytesPerCluster), nil
}

// AllocateChain reserves enough clusters to hold nBytes, links them into a
// chain terminated by the format's end-of-chain marker, and returns the first
// cluster. On failure, any clusters already reserved for this call are
// released before returning.
func (f *FatTable) AllocateChain(nBytes uint64) (ClusterID, error) {
	needed := (nBytes + uint64(f.bytesPerCluster) - 1) / uint64(f.bytesPerCluster)
	if needed == 0 {
		needed = 1
	}

	clusters := make([]common.UnitID, 0, needed)
	for uint64(len(clusters)) < needed {
		id, err := f.free.AllocateSingle()
		if err != nil {
			for _, c := range clusters {
				f.free.FreeSingle(c)
			}
			return 0, err
		}
		clusters = append(clusters, id)
	}

	for i, c := range clusters {
		if i == len(clusters)-1 {
			f.entries[c] = f.eocThreshold
		} else {
			f.entries[c] = ClusterID(clusters[i+1])
		}
	}
	return ClusterID(clusters[0]), nil
}

// FreeChain walks the chain starting at first, zeroing every entry and
// returning each cluster to the free pool.
func (f *FatTable) FreeChain(first ClusterID) error {
	cur := first
	for !f.IsEndOfChain(cur) {
		if int(cur) >= len(f.entries) {
			return disko.ErrInvalidCluster.WithMessage("cluster index out of range while freeing chain")
		}
		next := f.entries[cur]
		f.entries[cur] = 0
		if err := f.free.FreeSingle(common.UnitID(cur)); err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// Entries returns the raw chain-next array, for serialization back to disk.
func (f *FatTable) Entries() []ClusterID {
	return f.entries
}
