package fat_test

import (
	"testing"

	"github.com/nallik/vfat/drivers/fat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFatTable(numClusters int) *fat.FatTable {
	entries := make([]fat.ClusterID, numClusters)
	return fat.NewFatTable(entries, 0xFFF8, 512)
}

func TestFatTableAllocateChainLinksClusters(t *testing.T) {
	table := newTestFatTable(16)

	first, err := table.AllocateChain(512 * 3)
	require.NoError(t, err)

	length, err := table.ChainLength(first)
	require.NoError(t, err)
	assert.EqualValues(t, 3, length)
}

func TestFatTableChainBytesForMatchesAllocation(t *testing.T) {
	table := newTestFatTable(16)

	first, err := table.AllocateChain(1500)
	require.NoError(t, err)

	bytes, err := table.ChainBytesFor(first)
	require.NoError(t, err)
	// 1500 bytes needs 3 clusters of 512 bytes each.
	assert.EqualValues(t, 3*512, bytes)
}

func TestFatTableFreeChainReleasesClusters(t *testing.T) {
	table := newTestFatTable(4)

	first, err := table.AllocateChain(512 * 2)
	require.NoError(t, err)

	require.NoError(t, table.FreeChain(first))

	// Both clusters used by the freed chain should now be reusable:
	// allocating the same size again must succeed.
	_, err = table.AllocateChain(512 * 2)
	assert.NoError(t, err)
}

func TestFatTableAllocateChainFailsWhenFull(t *testing.T) {
	table := newTestFatTable(3)

	// Clusters 0 and 1 are reserved, leaving exactly one allocatable cluster.
	_, err := table.AllocateChain(512)
	require.NoError(t, err)

	_, err = table.AllocateChain(512)
	assert.Error(t, err)
}

func TestFatTableIsEndOfChain(t *testing.T) {
	table := newTestFatTable(4)
	assert.True(t, table.IsEndOfChain(0))
	assert.True(t, table.IsEndOfChain(0xFFF8))
	assert.True(t, table.IsEndOfChain(0xFFFF))
	assert.False(t, table.IsEndOfChain(2))
}
