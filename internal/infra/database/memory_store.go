package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
)

var ErrStoreClosed = errors.New("store is closed")

type memCollection struct {
	order []string
	docs  map[string][]byte
}

func (c *memCollection) clone() *memCollection {
	cp := &memCollection{
		order: append([]string(nil), c.order...),
		docs:  make(map[string][]byte, len(c.docs)),
	}
	for k, v := range c.docs {
		cp.docs[k] = v
	}
	return cp
}

func (c *memCollection) put(id string, doc []byte) {
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
}

func (c *memCollection) remove(id string) {
	if _, ok := c.docs[id]; !ok {
		return
	}
	delete(c.docs, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// MemoryStore keeps json encoded documents in process. Reads and writes copy,
// so callers never share memory with the store. Lists come back in insertion order.
type MemoryStore struct {
	mu          sync.RWMutex
	database    string
	collections map[string]*memCollection
	closed      bool
}

func NewMemoryStore(database string) *MemoryStore {
	return &MemoryStore{database: database, collections: make(map[string]*memCollection)}
}

func (s *MemoryStore) Database() string { return s.database }

func (s *MemoryStore) FindByID(_ context.Context, collection, id string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	c, ok := s.collections[collection]
	if !ok {
		return outbound.ErrNoDocument
	}
	raw, ok := c.docs[id]
	if !ok {
		return outbound.ErrNoDocument
	}
	return json.Unmarshal(raw, out)
}

func (s *MemoryStore) FindAll(_ context.Context, collection string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	var docs [][]byte
	if c, ok := s.collections[collection]; ok {
		docs = make([][]byte, 0, len(c.order))
		for _, id := range c.order {
			docs = append(docs, c.docs[id])
		}
	}
	return decodeList(docs, out)
}

// FindAllProjected decodes straight into the projection type; json drops the fields it lacks.
func (s *MemoryStore) FindAllProjected(ctx context.Context, collection string, out any) error {
	return s.FindAll(ctx, collection, out)
}

func (s *MemoryStore) Begin(_ context.Context) (outbound.StoreTx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return &memoryTx{store: s}, nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) EnsureCollections(_ context.Context, collections ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range collections {
		if _, ok := s.collections[c]; !ok {
			s.collections[c] = &memCollection{docs: make(map[string][]byte)}
		}
	}
	return nil
}

type memoryOp func(view func(collection string) *memCollection) error

// memoryTx buffers writes and applies them to copies of the touched collections
// on commit, swapping the copies in only when every write succeeded.
type memoryTx struct {
	store *MemoryStore
	ops   []memoryOp
	done  bool
}

func (t *memoryTx) add(op memoryOp) error {
	if t.done {
		return outbound.ErrTxDone
	}
	t.ops = append(t.ops, op)
	return nil
}

func (t *memoryTx) Insert(_ context.Context, collection string, docs []entity.Entity) error {
	raw, ids, err := encodeDocs(docs)
	if err != nil {
		return err
	}
	return t.add(func(view func(string) *memCollection) error {
		c := view(collection)
		for _, id := range ids {
			if _, exists := c.docs[id]; exists {
				return fmt.Errorf("%w: %s", outbound.ErrDuplicateID, id)
			}
			c.put(id, raw[id])
		}
		return nil
	})
}

func (t *memoryTx) Replace(_ context.Context, collection string, docs []entity.Entity) error {
	raw, ids, err := encodeDocs(docs)
	if err != nil {
		return err
	}
	return t.add(func(view func(string) *memCollection) error {
		c := view(collection)
		for _, id := range ids {
			c.put(id, raw[id])
		}
		return nil
	})
}

func (t *memoryTx) Delete(_ context.Context, collection string, ids []string) error {
	return t.add(func(view func(string) *memCollection) error {
		c := view(collection)
		for _, id := range ids {
			c.remove(id)
		}
		return nil
	})
}

func (t *memoryTx) Disable(_ context.Context, collection string, ids []string, audit outbound.Audit) error {
	return t.add(func(view func(string) *memCollection) error {
		c := view(collection)
		for _, id := range ids {
			raw, ok := c.docs[id]
			if !ok {
				continue
			}
			patched, err := disablePatch(raw, audit)
			if err != nil {
				return fmt.Errorf("disable %s: %w", id, err)
			}
			c.docs[id] = patched
		}
		return nil
	})
}

func (t *memoryTx) Commit(_ context.Context) error {
	if t.done {
		return outbound.ErrTxDone
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	working := make(map[string]*memCollection)
	view := func(name string) *memCollection {
		if c, ok := working[name]; ok {
			return c
		}
		c, ok := s.collections[name]
		if ok {
			c = c.clone()
		} else {
			c = &memCollection{docs: make(map[string][]byte)}
		}
		working[name] = c
		return c
	}
	for _, op := range t.ops {
		if err := op(view); err != nil {
			return err
		}
	}
	for name, c := range working {
		s.collections[name] = c
	}
	return nil
}

func (t *memoryTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.ops = nil
	return nil
}
