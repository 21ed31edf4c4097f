package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-io/switchyard/pkg/adapters/file"
	"github.com/switchyard-io/switchyard/pkg/domain"
	contract "github.com/switchyard-io/switchyard/pkg/ports/tests"
)

func TestFileStore_Contract(t *testing.T) {
	contract.RunSnapshotStoreContract(t, file.NewStore(t.TempDir()))
}

func TestFileStore_EmptyID(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", &domain.Snapshot{}))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ""))
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "m1", &domain.Snapshot{ID: "m1", CurrentState: "a"}))
	require.NoError(t, store.Save(ctx, "m2", &domain.Snapshot{ID: "m2", CurrentState: "b"}))

	// A stray non-JSON file must not show up as a machine.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "never-created"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
