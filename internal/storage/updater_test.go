package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rahdeg/alt-commmerce/internal/storage"
	"github.com/Rahdeg/alt-commmerce/internal/storage/storagetest"
)

func TestMemoryUpdate(t *testing.T) {
	storagetest.RunUpdater(t, storage.NewMemory(), "cart:v1")
}

func TestFileUpdate(t *testing.T) {
	f, err := storage.NewFile(t.TempDir())
	require.NoError(t, err)
	storagetest.RunUpdater(t, f, "cart:v1")
}
