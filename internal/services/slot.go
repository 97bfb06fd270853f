package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"slidedeck/internal/config"
	"slidedeck/internal/db"
)

var ErrEmptyKey = errors.New("slot key is required")

// Slot is a named durable key-value location. The slide store is its only
// writer; concurrent processes sharing a slot are not coordinated.
type Slot interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// MemorySlot keeps values in process memory.
type MemorySlot struct {
	mu     sync.RWMutex
	data   map[string][]byte
	writes int
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

func (m *MemorySlot) Get(key string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (m *MemorySlot) Set(key string, value []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

func (m *MemorySlot) Remove(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Writes counts successful Set calls.
func (m *MemorySlot) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// OpenSlot builds the slot selected by the storage config. The returned
// close function releases any underlying resources.
func OpenSlot(cfg config.StorageConfig, logger *zap.Logger) (Slot, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemorySlot(), noop, nil
	case config.DriverFile:
		slot, err := NewFileSlot(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file slot", zap.String("dir", cfg.Path))
		return slot, noop, nil
	case config.DriverSQLite:
		database, err := db.InitDatabase(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite slot", zap.String("path", cfg.Path))
		return NewSQLiteSlot(database), database.Close, nil
	case config.DriverS3:
		slot, err := NewObjectSlot(cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using object slot",
			zap.String("endpoint", cfg.S3.Endpoint),
			zap.String("bucket", cfg.S3.Bucket))
		return slot, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
