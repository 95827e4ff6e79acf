package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadList(t *testing.T) {
	input := "Milch\n# Butter\n\n  Käse  \nmilch\n   \n#\nEier"
	assert.Equal(t, []string{"milch", "käse", "eier"}, ReadList(input))
}

func TestReadListEmpty(t *testing.T) {
	assert.Empty(t, ReadList("# nothing today\n\n"))
}

func TestLoadListFileCreatesMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopping_list.txt")

	content, err := LoadListFile(path)
	require.NoError(t, err)
	assert.Empty(t, content)

	_, err = os.Stat(path)
	assert.NoError(t, err, "file should have been created")
}

func TestLoadListFileReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "item_blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("gouda\n"), 0o644))

	content, err := LoadListFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gouda\n", content)
}

func TestRandomSuffix(t *testing.T) {
	s := RandomSuffix(5)
	require.Len(t, s, 5)
	for _, r := range s {
		assert.Contains(t, suffixLetters, string(r))
	}
	assert.Empty(t, RandomSuffix(0))
}
