package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/pribylovaa/session-auth/internal/models"
)

const defaultShards = 32

type shard struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// Memory — кэш сессий в памяти процесса.
// Ключи распределяются по шардам через xxhash, у каждого шарда свой RWMutex.
// Значения хранятся сериализованными (JSON), как в Redis.
type Memory struct {
	shards []*shard

	mu     sync.RWMutex
	closed bool
}

// NewMemory создаёт кэш с заданным числом шардов (<=0 — значение по умолчанию).
func NewMemory(shards int) *Memory {
	if shards <= 0 {
		shards = defaultShards
	}

	m := &Memory{shards: make([]*shard, shards)}
	for i := range m.shards {
		m.shards[i] = &shard{items: make(map[string][]byte)}
	}

	return m
}

func (m *Memory) shardFor(key string) *shard {
	return m.shards[xxhash.Sum64String(key)%uint64(len(m.shards))]
}

func (m *Memory) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.closed
}

// Put сериализует запись и кладёт её в шард.
func (m *Memory) Put(ctx context.Context, id uuid.UUID, user models.SessionUser) error {
	const op = "cache.memory.Put"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if m.isClosed() {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := Key(id)
	sh := m.shardFor(key)

	sh.mu.Lock()
	sh.items[key] = raw
	sh.mu.Unlock()

	return nil
}

// Get читает запись; промах — (zero, false, nil).
func (m *Memory) Get(ctx context.Context, id uuid.UUID) (models.SessionUser, bool, error) {
	const op = "cache.memory.Get"

	if err := ctx.Err(); err != nil {
		return models.SessionUser{}, false, fmt.Errorf("%s: %w", op, err)
	}

	if m.isClosed() {
		return models.SessionUser{}, false, fmt.Errorf("%s: %w", op, ErrClosed)
	}

	key := Key(id)
	sh := m.shardFor(key)

	sh.mu.RLock()
	raw, ok := sh.items[key]
	sh.mu.RUnlock()

	if !ok {
		return models.SessionUser{}, false, nil
	}

	var user models.SessionUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return models.SessionUser{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return user, true, nil
}

// Delete удаляет запись. Повторное удаление безопасно.
func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "cache.memory.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if m.isClosed() {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}

	key := Key(id)
	sh := m.shardFor(key)

	sh.mu.Lock()
	delete(sh.items, key)
	sh.mu.Unlock()

	return nil
}

// Len возвращает число записей во всех шардах.
func (m *Memory) Len() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}

	return n
}

// Close очищает кэш; последующие операции возвращают ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	for _, sh := range m.shards {
		sh.mu.Lock()
		sh.items = make(map[string][]byte)
		sh.mu.Unlock()
	}

	return nil
}

var _ SessionCache = (*Memory)(nil)
