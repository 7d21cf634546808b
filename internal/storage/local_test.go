package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveAndOpen(t *testing.T) {
	store, err := NewLocal(t.TempDir(), 64)
	require.NoError(t, err)

	key, n, err := store.Save(context.Background(), "AB12CD34", "../../etc/informe.pdf", strings.NewReader("contenido"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.True(t, strings.HasPrefix(key, "AB12CD34/"))
	assert.True(t, strings.HasSuffix(key, "_informe.pdf"))

	rc, err := store.Open(key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "contenido", string(data))
}

func TestLocalRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, 4)
	require.NoError(t, err)

	_, _, err = store.Save(context.Background(), "X", "a.txt", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(dir, "X"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalRemove(t *testing.T) {
	store, err := NewLocal(t.TempDir(), 64)
	require.NoError(t, err)

	key, _, err := store.Save(context.Background(), "AB12CD34", "acta.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, store.Remove(key))

	_, err = store.Open(key)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoError(t, store.Remove(key))
	assert.Error(t, store.Remove("../secret"))
}

func TestLocalOpenRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir(), 4)
	require.NoError(t, err)
	_, err = store.Open("../secret")
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "archivo", safeName(".."))
	assert.Equal(t, "a_b.txt", safeName("a:b.txt"))
	assert.Equal(t, "c.txt", safeName(`C:\docs\c.txt`))
}
