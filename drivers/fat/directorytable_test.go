package fat_test

import (
	"testing"

	disko "github.com/nallik/vfat"
	"github.com/nallik/vfat/drivers/fat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryTableInsertAndLookup(t *testing.T) {
	table := fat.NewEmptyDirectoryTable(16, false, true)

	anchor, err := table.Insert("This Is A Long Filename.docx", fat.AttrArchived)
	require.NoError(t, err)
	assert.Equal(t, "THISIS~1.DOC", anchor.ShortName())

	entries := table.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, fat.KindShort, entries[0].Kind)
	assert.True(t, entries[0].HasLongName)
	assert.Equal(t, "This Is A Long Filename.docx", entries[0].LongName)
}

func TestDirectoryTableInsertShortNameStillGetsLfnChain(t *testing.T) {
	table := fat.NewEmptyDirectoryTable(16, false, true)

	_, err := table.Insert("README.TXT", fat.AttrArchived)
	require.NoError(t, err)

	entries := table.Entries()
	require.Len(t, entries, 1)
	// A name that's already legal 8.3 still gets an LFN chain generated
	// around it; AssembleLongName should recover the exact original name.
	assert.True(t, entries[0].HasLongName)
	assert.Equal(t, "README.TXT", entries[0].LongName)
}

func TestDirectoryTableSecondInsertGetsUniqueShortName(t *testing.T) {
	table := fat.NewEmptyDirectoryTable(16, false, true)

	first, err := table.Insert("This Is A Long Filename.docx", fat.AttrArchived)
	require.NoError(t, err)
	second, err := table.Insert("This Is Another Long Filename.docx", fat.AttrArchived)
	require.NoError(t, err)

	assert.NotEqual(t, first.ShortName(), second.ShortName())
	assert.Equal(t, "THISIS~1.DOC", first.ShortName())
	assert.Equal(t, "THISIS~2.DOC", second.ShortName())
}

func TestDirectoryTableRemoveMarksSlotsDeleted(t *testing.T) {
	table := fat.NewEmptyDirectoryTable(16, false, true)
	anchor, err := table.Insert("This Is A Long Filename.docx", fat.AttrArchived)
	require.NoError(t, err)

	require.NoError(t, table.Remove(anchor))

	entries := table.Entries()
	for _, entry := range entries {
		assert.NotEqual(t, fat.KindShort, entry.Kind, "removed entry should not appear as live")
	}
}

func TestDirectoryTableRenamePreservesClusterAndSize(t *testing.T) {
	table := fat.NewEmptyDirectoryTable(16, false, true)
	anchor, err := table.Insert("original.txt", fat.AttrArchived)
	require.NoError(t, err)

	require.NoError(t, anchor.SetStartCluster(42))
	anchor.SetSize(1024)

	renamed, err := table.Rename(anchor, "renamed with a long name.txt")
	require.NoError(t, err)

	assert.EqualValues(t, 42, renamed.StartCluster())
	assert.EqualValues(t, 1024, renamed.Size())

	entries := table.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "renamed with a long name.txt", entries[0].LongName)
}

func TestDirectoryTableFixedSizeReturnsDirectoryFull(t *testing.T) {
	// One 32-byte slot is only enough for a bare anchor -- any name needing
	// an LFN chain won't fit, and a non-resizable table must fail rather
	// than grow.
	table := fat.NewEmptyDirectoryTable(1, false, false)

	_, err := table.Insert("this needs more than one slot.txt", fat.AttrArchived)
	assert.ErrorIs(t, err, disko.ErrDirectoryFull)
}

func TestDirectoryTableResizableGrowsPastCapacity(t *testing.T) {
	table := fat.NewEmptyDirectoryTable(1, false, true)

	_, err := table.Insert("this needs more than one slot.txt", fat.AttrArchived)
	require.NoError(t, err)
	assert.Greater(t, table.TotalSlots(), 1)
}

func TestDirectoryTableSerializeRoundTrip(t *testing.T) {
	table := fat.NewEmptyDirectoryTable(4, false, true)
	_, err := table.Insert("readme.txt", fat.AttrArchived)
	require.NoError(t, err)

	buf := make([]byte, table.TotalSlots()*fat.DirentSize)
	require.NoError(t, table.Serialize(buf))
	assert.False(t, table.IsDirty())

	reloaded, err := fat.ParseDirectoryTable(buf, false, true)
	require.NoError(t, err)

	entries := reloaded.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "readme.txt", entries[0].LongName)
}
