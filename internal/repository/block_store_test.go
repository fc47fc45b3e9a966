package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/pkg/storage"
)

func newTestEventStore(t *testing.T, dir string) *EventStore {
	t.Helper()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	store, err := OpenBlockStore[models.Event](StoreOptions{Kind: models.KindEvent, Files: files, Filename: "events.json"})
	require.NoError(t, err)
	return store
}

func sampleEvent(name string, day int) models.Event {
	date := models.NewLocalDate(2025, time.March, day)
	return models.Event{
		Block: models.Block{ColorHex: "#336699", Location: "A-1"},
		Name:  name,
		Start: date.At(models.NewClock(9, 0)),
		End:   date.At(models.NewClock(10, 0)),
	}
}

type failingFiles struct {
	*storage.LocalStorage
	fail bool
}

func (f *failingFiles) WriteAtomic(filename string, data []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.LocalStorage.WriteAtomic(filename, data)
}

type persistRecorder struct {
	calls  int
	errors int
}

func (p *persistRecorder) ObservePersist(kind string, duration time.Duration, err error) {
	p.calls++
	if err != nil {
		p.errors++
	}
}

func TestBlockStoreMissingFileInitialisesEmptyObject(t *testing.T) {
	dir := t.TempDir()
	store := newTestEventStore(t, dir)

	raw, err := os.ReadFile(filepath.Join(dir, "events.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	items, err := store.FindByOwner(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestBlockStoreSaveAssignsIncreasingIDs(t *testing.T) {
	store := newTestEventStore(t, t.TempDir())
	ctx := context.Background()

	first, err := store.Save(ctx, 1, sampleEvent("Parcial", 10))
	require.NoError(t, err)
	second, err := store.Save(ctx, 2, sampleEvent("Taller", 11))
	require.NoError(t, err)
	third, err := store.Save(ctx, 1, sampleEvent("Charla", 12))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, int64(3), third.ID)
	assert.Equal(t, int64(2), second.OwnerID)

	owned, err := store.FindByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "Parcial", owned[0].Name)
	assert.Equal(t, 3, store.Len())
}

func TestBlockStoreRoundTripRestoresCounter(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store := newTestEventStore(t, dir)

	for i := 0; i < 3; i++ {
		_, err := store.Save(ctx, 7, sampleEvent("e", 10+i))
		require.NoError(t, err)
	}
	require.NoError(t, store.Delete(ctx, 7, 3))

	reloaded := newTestEventStore(t, dir)
	items, err := reloaded.FindByOwner(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(7), items[1].OwnerID)
	assert.True(t, items[1].Start.Equal(sampleEvent("e", 11).Start))

	next, err := reloaded.Save(ctx, 7, sampleEvent("after reload", 20))
	require.NoError(t, err)
	assert.Equal(t, int64(4), next.ID, "id 3 was deleted but must not be reused")
}

func TestBlockStoreCounterFromMaxIDWithoutSequence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store := newTestEventStore(t, dir)
	for i := 0; i < 2; i++ {
		_, err := store.Save(ctx, 1, sampleEvent("e", 10+i))
		require.NoError(t, err)
	}
	require.NoError(t, os.Remove(filepath.Join(dir, "events.json.seq")))

	reloaded := newTestEventStore(t, dir)
	next, err := reloaded.Save(ctx, 1, sampleEvent("e", 20))
	require.NoError(t, err)
	assert.Equal(t, int64(3), next.ID)
}

func TestBlockStoreLoadsOwnerKeyedFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "5": [
    {"id": 9, "owner_id": 5, "name": "Expo", "start": "2025-03-10T09:00", "end": "2025-03-10T10:30:00"}
  ]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte(content), 0o644))

	store := newTestEventStore(t, dir)
	event, err := store.FindByID(context.Background(), 5, 9)
	require.NoError(t, err)
	assert.Equal(t, "Expo", event.Name)
	assert.Equal(t, models.NewClock(10, 30), event.End.Clock())

	saved, err := store.Save(context.Background(), 5, sampleEvent("next", 11))
	require.NoError(t, err)
	assert.Equal(t, int64(10), saved.ID)
}

func TestBlockStoreCorruptFileFailsByDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte("{not json"), 0o644))
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = OpenBlockStore[models.Event](StoreOptions{Kind: models.KindEvent, Files: files, Filename: "events.json"})
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "decode", perr.Op)
}

func TestBlockStoreCorruptFileRecoveredWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte("{not json"), 0o644))
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	store, err := OpenBlockStore[models.Event](StoreOptions{Kind: models.KindEvent, Files: files, Filename: "events.json", RecoverCorrupt: true})
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "events.json.corrupt-") {
			backups++
		}
	}
	assert.Equal(t, 1, backups, "corrupt file is kept aside")
}

func TestBlockStoreUpdatePreservesIdentity(t *testing.T) {
	store := newTestEventStore(t, t.TempDir())
	ctx := context.Background()
	saved, err := store.Save(ctx, 1, sampleEvent("Parcial", 10))
	require.NoError(t, err)

	replacement := sampleEvent("Parcial II", 12)
	replacement.ID = 99
	replacement.OwnerID = 42
	updated, err := store.Update(ctx, 1, saved.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, int64(1), updated.OwnerID)

	stored, err := store.FindByID(ctx, 1, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Parcial II", stored.Name)
}

func TestBlockStoreNotFound(t *testing.T) {
	store := newTestEventStore(t, t.TempDir())
	ctx := context.Background()
	_, err := store.Save(ctx, 1, sampleEvent("Parcial", 10))
	require.NoError(t, err)

	require.ErrorIs(t, store.Delete(ctx, 1, 99), ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, 2, 1), ErrNotFound, "owner without entries")
	_, err = store.Update(ctx, 2, 1, sampleEvent("x", 10))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.FindByID(ctx, 1, 5)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBlockStoreIDsNeverReusedAfterDelete(t *testing.T) {
	store := newTestEventStore(t, t.TempDir())
	ctx := context.Background()

	first, err := store.Save(ctx, 1, sampleEvent("a", 10))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, 1, first.ID))
	second, err := store.Save(ctx, 1, sampleEvent("b", 10))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestBlockStorePersistFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	files := &failingFiles{LocalStorage: local}
	recorder := &persistRecorder{}
	store, err := OpenBlockStore[models.Event](StoreOptions{Kind: models.KindEvent, Files: files, Filename: "events.json", Metrics: recorder})
	require.NoError(t, err)
	ctx := context.Background()

	saved, err := store.Save(ctx, 1, sampleEvent("kept", 10))
	require.NoError(t, err)

	files.fail = true
	_, err = store.Save(ctx, 1, sampleEvent("lost", 11))
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "persist", perr.Op)

	_, err = store.Update(ctx, 1, saved.ID, sampleEvent("renamed", 10))
	require.Error(t, err)
	require.Error(t, store.Delete(ctx, 1, saved.ID))

	items, err := store.FindByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "kept", items[0].Name)
	assert.Equal(t, 3, recorder.errors)

	files.fail = false
	next, err := store.Save(ctx, 1, sampleEvent("again", 12))
	require.NoError(t, err)
	assert.Equal(t, int64(3), next.ID, "ids consumed by failed writes are not reused")
}

func TestBlockStoreUpdateManyIsAllOrNothing(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store, err := OpenBlockStore[models.Horario](StoreOptions{Kind: models.KindHorario, Files: files})
	require.NoError(t, err)
	ctx := context.Background()

	a, err := store.Save(ctx, 1, models.Horario{Subject: "Calculo", Weekday: models.Lunes, StartTime: models.NewClock(8, 0), EndTime: models.NewClock(9, 0)})
	require.NoError(t, err)
	b, err := store.Save(ctx, 1, models.Horario{Subject: "Calculo", Weekday: models.Martes, StartTime: models.NewClock(8, 0), EndTime: models.NewClock(9, 0)})
	require.NoError(t, err)

	a.Professor = "Rivas"
	ghost := b
	ghost.ID = 77
	_, err = store.UpdateMany(ctx, 1, []models.Horario{a, ghost})
	require.ErrorIs(t, err, ErrNotFound)

	stored, err := store.FindByID(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Professor)

	b.Professor = "Rivas"
	updated, err := store.UpdateMany(ctx, 1, []models.Horario{a, b})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	all, err := store.FindByOwner(ctx, 1)
	require.NoError(t, err)
	for _, h := range all {
		assert.Equal(t, "Rivas", h.Professor)
	}
}

func TestBlockStoreReturnsIsolatedCopies(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store, err := OpenBlockStore[models.Evaluacion](StoreOptions{Kind: models.KindEvaluacion, Files: files})
	require.NoError(t, err)
	ctx := context.Background()

	saved, err := store.Save(ctx, 1, models.Evaluacion{Title: "Parcial", Subjects: []models.SubjectAllocation{{Name: "Calculo", Weight: 30}}})
	require.NoError(t, err)
	saved.Subjects[0].Weight = 99

	items, err := store.FindByOwner(ctx, 1)
	require.NoError(t, err)
	items[0].Subjects[0].Weight = 77

	stored, err := store.FindByID(ctx, 1, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, stored.Subjects[0].Weight)
}

func TestBlockStoreOwnersSkipsEmptied(t *testing.T) {
	store := newTestEventStore(t, t.TempDir())
	ctx := context.Background()

	_, err := store.Save(ctx, 9, sampleEvent("late", 3))
	require.NoError(t, err)
	first, err := store.Save(ctx, 2, sampleEvent("early", 4))
	require.NoError(t, err)
	_, err = store.Save(ctx, 4, sampleEvent("mid", 5))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 9}, store.Owners())

	require.NoError(t, store.Delete(ctx, 2, first.ID))
	assert.Equal(t, []int64{4, 9}, store.Owners())
}
