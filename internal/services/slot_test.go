package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slidedeck/internal/config"
	"slidedeck/internal/db"
	"slidedeck/internal/models"
)

func exerciseSlot(t *testing.T, slot Slot) {
	t.Helper()

	_, ok, err := slot.Get("deck")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, slot.Set("deck", []byte(`[1]`)))
	require.NoError(t, slot.Set("deck", []byte(`[1,2]`)))
	got, ok, err := slot.Get("deck")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[1,2]`, string(got))

	require.NoError(t, slot.Remove("deck"))
	require.NoError(t, slot.Remove("deck"))
	_, ok, err = slot.Get("deck")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, slot.Set(" ", nil), ErrEmptyKey)
}

func TestMemorySlot(t *testing.T) {
	slot := NewMemorySlot()
	exerciseSlot(t, slot)
	assert.Equal(t, 2, slot.Writes())
}

func TestFileSlot(t *testing.T) {
	dir := t.TempDir()
	slot, err := NewFileSlot(filepath.Join(dir, "slots"))
	require.NoError(t, err)
	exerciseSlot(t, slot)

	assert.Error(t, slot.Set("../escape", []byte(`x`)))

	require.NoError(t, slot.Set("deck", []byte(`[]`)))
	_, err = os.Stat(filepath.Join(dir, "slots", "deck.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "slots", "deck.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteSlot(t *testing.T) {
	database, err := db.InitDatabase(filepath.Join(t.TempDir(), "nested", "slides.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	slot := NewSQLiteSlot(database)
	exerciseSlot(t, slot)

	require.NoError(t, slot.Set("b", []byte(`[]`)))
	require.NoError(t, slot.Set("a", []byte(`[]`)))
	keys, err := slot.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestStorePersistsAcrossSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slides.db")

	database, err := db.InitDatabase(path)
	require.NoError(t, err)
	store, err := NewSlideStore(NewSQLiteSlot(database))
	require.NoError(t, err)
	added, err := store.AddSlide(models.SlideKindFeedback)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	database, err = db.InitDatabase(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	reopened, err := NewSlideStore(NewSQLiteSlot(database))
	require.NoError(t, err)

	ids := models.SlideIDs(reopened.Slides())
	assert.Equal(t, added.SlideID(), ids[len(ids)-1])
}

func TestOpenSlot(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop()

	slot, closeFn, err := OpenSlot(config.StorageConfig{Driver: config.DriverMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemorySlot{}, slot)
	require.NoError(t, closeFn())

	slot, closeFn, err = OpenSlot(config.StorageConfig{Driver: config.DriverFile, Path: filepath.Join(dir, "files")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileSlot{}, slot)
	require.NoError(t, closeFn())

	slot, closeFn, err = OpenSlot(config.StorageConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "slides.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteSlot{}, slot)
	require.NoError(t, closeFn())

	_, _, err = OpenSlot(config.StorageConfig{Driver: config.DriverS3}, logger)
	assert.Error(t, err)

	_, _, err = OpenSlot(config.StorageConfig{Driver: "etcd"}, logger)
	assert.Error(t, err)
}

func TestNewObjectSlotValidatesConfig(t *testing.T) {
	_, err := NewObjectSlot(config.S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.Error(t, err)

	_, err = NewObjectSlot(config.S3Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s"})
	assert.Error(t, err)

	slot, err := NewObjectSlot(config.S3Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "b", Prefix: "/decks/"})
	require.NoError(t, err)
	key, err := slot.objectKey("presentation-slides")
	require.NoError(t, err)
	assert.Equal(t, "decks/presentation-slides.json", key)
}
