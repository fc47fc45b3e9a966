package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/planucab-api/internal/models"
)

// ErrNotFound is returned when an owner has no block with the requested id.
var ErrNotFound = errors.New("block not found")

// PersistenceError reports a failure to load or write a store file.
type PersistenceError struct {
	Kind models.BlockKind
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s store: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying I/O or decode error.
func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FileStore is the file access a BlockStore needs. *storage.LocalStorage satisfies it.
type FileStore interface {
	Read(filename string) ([]byte, error)
	WriteAtomic(filename string, data []byte) error
	Rename(from, to string) error
}

// PersistObserver receives timing for every store write.
type PersistObserver interface {
	ObservePersist(kind string, duration time.Duration, err error)
}

// StoreOptions configures OpenBlockStore.
type StoreOptions struct {
	Kind     models.BlockKind
	Files    FileStore
	Filename string
	// RecoverCorrupt moves an unparseable file aside and starts empty instead of failing.
	RecoverCorrupt bool
	Logger         *zap.Logger
	Metrics        PersistObserver
}

type entityPtr[T any] interface {
	*T
	models.Entity
}

// BlockStore keeps one kind of block grouped by owner and mirrors the whole collection
// to a JSON file after every mutation.
type BlockStore[T any, P entityPtr[T]] struct {
	kind           models.BlockKind
	files          FileStore
	filename       string
	recoverCorrupt bool
	logger         *zap.Logger
	metrics        PersistObserver

	mu     sync.RWMutex
	owners map[int64][]T
	nextID int64
}

// Store aliases for the three block kinds.
type (
	EventStore      = BlockStore[models.Event, *models.Event]
	HorarioStore    = BlockStore[models.Horario, *models.Horario]
	EvaluacionStore = BlockStore[models.Evaluacion, *models.Evaluacion]
)

// OpenBlockStore loads the store file, creating an empty one when missing.
func OpenBlockStore[T any, P entityPtr[T]](opts StoreOptions) (*BlockStore[T, P], error) {
	if opts.Files == nil {
		return nil, fmt.Errorf("%s store: file storage is required", opts.Kind)
	}
	if opts.Filename == "" {
		opts.Filename = string(opts.Kind) + "s.json"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &BlockStore[T, P]{
		kind:           opts.Kind,
		files:          opts.Files,
		filename:       opts.Filename,
		recoverCorrupt: opts.RecoverCorrupt,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		owners:         make(map[int64][]T),
		nextID:         1,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BlockStore[T, P]) load() error {
	raw, err := s.files.Read(s.filename)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("initialising empty block store", zap.String("kind", string(s.kind)), zap.String("file", s.filename))
		return s.persistLocked()
	}
	if err != nil {
		return &PersistenceError{Kind: s.kind, Op: "load", Path: s.filename, Err: err}
	}

	decoded := make(map[int64][]T)
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return s.handleCorrupt(err)
		}
	}

	var maxID int64
	for ownerID, items := range decoded {
		for i := range items {
			P(&items[i]).SetOwnerID(ownerID)
			if id := P(&items[i]).GetID(); id > maxID {
				maxID = id
			}
		}
		if len(items) > 0 {
			s.owners[ownerID] = items
		}
	}
	s.nextID = maxID + 1
	if seq, ok := s.readSequence(); ok && seq > s.nextID {
		s.nextID = seq
	}
	s.logger.Info("block store loaded",
		zap.String("kind", string(s.kind)),
		zap.Int("owners", len(s.owners)),
		zap.Int64("next_id", s.nextID),
	)
	return nil
}

// readSequence returns the persisted high-water mark so ids of deleted blocks are not handed out again.
func (s *BlockStore[T, P]) readSequence() (int64, bool) {
	raw, err := s.files.Read(s.sequenceFile())
	if err != nil {
		return 0, false
	}
	seq, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		s.logger.Warn("ignoring unreadable id sequence", zap.String("file", s.sequenceFile()), zap.Error(err))
		return 0, false
	}
	return seq, true
}

func (s *BlockStore[T, P]) sequenceFile() string {
	return s.filename + ".seq"
}

func (s *BlockStore[T, P]) handleCorrupt(decodeErr error) error {
	perr := &PersistenceError{Kind: s.kind, Op: "decode", Path: s.filename, Err: decodeErr}
	if !s.recoverCorrupt {
		return perr
	}
	backup := fmt.Sprintf("%s.corrupt-%d", s.filename, time.Now().Unix())
	if err := s.files.Rename(s.filename, backup); err != nil {
		return &PersistenceError{Kind: s.kind, Op: "backup", Path: backup, Err: err}
	}
	s.logger.Warn("block store file is corrupt, starting empty",
		zap.String("kind", string(s.kind)),
		zap.String("file", s.filename),
		zap.String("backup", backup),
		zap.Error(decodeErr),
	)
	if seq, ok := s.readSequence(); ok && seq > s.nextID {
		s.nextID = seq
	}
	return s.persistLocked()
}

// Save assigns the next id, sets the owner, appends the block and persists.
func (s *BlockStore[T, P]) Save(ctx context.Context, ownerID int64, entity T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	entity = cloneEntity(entity)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	P(&entity).SetID(id)
	P(&entity).SetOwnerID(ownerID)

	previous := s.owners[ownerID]
	next := make([]T, len(previous), len(previous)+1)
	copy(next, previous)
	s.owners[ownerID] = append(next, entity)

	if err := s.persistLocked(); err != nil {
		s.restore(ownerID, previous)
		return zero, err
	}
	return cloneEntity(entity), nil
}

// FindByOwner returns a copy of the owner's blocks; empty when the owner has none.
func (s *BlockStore[T, P]) FindByOwner(ctx context.Context, ownerID int64) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.owners[ownerID]
	out := make([]T, len(items))
	for i := range items {
		out[i] = cloneEntity(items[i])
	}
	return out, nil
}

// FindByID returns one block of the owner or ErrNotFound.
func (s *BlockStore[T, P]) FindByID(ctx context.Context, ownerID, id int64) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(ownerID, id)
	if idx < 0 {
		return zero, ErrNotFound
	}
	return cloneEntity(s.owners[ownerID][idx]), nil
}

// Update replaces the block at id, keeping its id and owner.
func (s *BlockStore[T, P]) Update(ctx context.Context, ownerID, id int64, value T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	value = cloneEntity(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(ownerID, id)
	if idx < 0 {
		return zero, ErrNotFound
	}
	P(&value).SetID(id)
	P(&value).SetOwnerID(ownerID)

	previous := s.owners[ownerID]
	next := append([]T(nil), previous...)
	next[idx] = value
	s.owners[ownerID] = next

	if err := s.persistLocked(); err != nil {
		s.restore(ownerID, previous)
		return zero, err
	}
	return cloneEntity(value), nil
}

// UpdateMany replaces several blocks of one owner with a single write. Every value must
// carry the id of an existing block; otherwise nothing changes and ErrNotFound is returned.
func (s *BlockStore[T, P]) UpdateMany(ctx context.Context, ownerID int64, values []T) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []T{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.owners[ownerID]
	next := append([]T(nil), previous...)
	out := make([]T, len(values))
	for i, v := range values {
		v = cloneEntity(v)
		id := P(&v).GetID()
		idx := s.indexLocked(ownerID, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		P(&v).SetOwnerID(ownerID)
		next[idx] = v
		out[i] = cloneEntity(v)
	}
	s.owners[ownerID] = next

	if err := s.persistLocked(); err != nil {
		s.restore(ownerID, previous)
		return nil, err
	}
	return out, nil
}

// Delete removes the block at id or returns ErrNotFound.
func (s *BlockStore[T, P]) Delete(ctx context.Context, ownerID, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(ownerID, id)
	if idx < 0 {
		return ErrNotFound
	}

	previous := s.owners[ownerID]
	next := make([]T, 0, len(previous)-1)
	next = append(next, previous[:idx]...)
	next = append(next, previous[idx+1:]...)
	if len(next) == 0 {
		delete(s.owners, ownerID)
	} else {
		s.owners[ownerID] = next
	}

	if err := s.persistLocked(); err != nil {
		s.restore(ownerID, previous)
		return err
	}
	return nil
}

// Len returns the number of stored blocks across owners.
func (s *BlockStore[T, P]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, items := range s.owners {
		total += len(items)
	}
	return total
}

// Owners lists the ids of owners holding at least one block, ascending.
func (s *BlockStore[T, P]) Owners() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owners := make([]int64, 0, len(s.owners))
	for ownerID, items := range s.owners {
		if len(items) > 0 {
			owners = append(owners, ownerID)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

// Kind returns the block kind held by the store.
func (s *BlockStore[T, P]) Kind() models.BlockKind {
	return s.kind
}

func (s *BlockStore[T, P]) indexLocked(ownerID, id int64) int {
	for i := range s.owners[ownerID] {
		if P(&s.owners[ownerID][i]).GetID() == id {
			return i
		}
	}
	return -1
}

func (s *BlockStore[T, P]) restore(ownerID int64, previous []T) {
	if len(previous) == 0 {
		delete(s.owners, ownerID)
		return
	}
	s.owners[ownerID] = previous
}

func (s *BlockStore[T, P]) persistLocked() error {
	start := time.Now()
	payload, err := json.MarshalIndent(s.owners, "", "  ")
	if err == nil {
		// The sequence goes first: a sequence ahead of the data only leaves gaps.
		err = s.files.WriteAtomic(s.sequenceFile(), []byte(strconv.FormatInt(s.nextID, 10)))
	}
	if err == nil {
		err = s.files.WriteAtomic(s.filename, payload)
	}
	if s.metrics != nil {
		s.metrics.ObservePersist(string(s.kind), time.Since(start), err)
	}
	if err != nil {
		s.logger.Error("block store persist failed",
			zap.String("kind", string(s.kind)),
			zap.String("file", s.filename),
			zap.Error(err),
		)
		return &PersistenceError{Kind: s.kind, Op: "persist", Path: s.filename, Err: err}
	}
	return nil
}

// cloneEntity copies slices held by entities that know how to clone themselves.
func cloneEntity[T any](v T) T {
	if c, ok := any(v).(interface{ Clone() T }); ok {
		return c.Clone()
	}
	return v
}
