package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps documents as json strings under <db>:<collection>:<id> and
// tracks the ids of a collection in the set <db>:<collection>.
type RedisStore struct {
	client   redis.UniversalClient
	database string
	release  func(ctx context.Context) error
}

func NewRedisStore(client redis.UniversalClient, database string) *RedisStore {
	return &RedisStore{
		client:   client,
		database: database,
		release:  func(context.Context) error { return client.Close() },
	}
}

func (s *RedisStore) Database() string { return s.database }

func (s *RedisStore) indexKey(collection string) string {
	return s.database + ":" + collection
}

func (s *RedisStore) docKey(collection, id string) string {
	return s.database + ":" + collection + ":" + id
}

func (s *RedisStore) FindByID(ctx context.Context, collection, id string, out any) error {
	raw, err := s.client.Get(ctx, s.docKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return outbound.ErrNoDocument
	}
	if err != nil {
		return err
	}
	return jsonUnmarshal(raw, out)
}

func (s *RedisStore) FindAll(ctx context.Context, collection string, out any) error {
	ids, err := s.client.SMembers(ctx, s.indexKey(collection)).Result()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return decodeList(nil, out)
	}
	sort.Strings(ids)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(collection, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	docs := make([][]byte, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok {
			docs = append(docs, []byte(str))
		}
	}
	return decodeList(docs, out)
}

// FindAllProjected decodes straight into the projection type; redis has no server side projection.
func (s *RedisStore) FindAllProjected(ctx context.Context, collection string, out any) error {
	return s.FindAll(ctx, collection, out)
}

func (s *RedisStore) Begin(_ context.Context) (outbound.StoreTx, error) {
	return &redisTx{store: s}, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close(ctx context.Context) error {
	return s.release(ctx)
}

type redisWrite struct {
	kind       outbound.OpKind
	collection string
	raw        map[string][]byte
	ids        []string
	audit      outbound.Audit
}

// redisTx buffers writes. Commit watches every key it touches, replays the
// writes against a local overlay and flushes the result in one MULTI/EXEC.
type redisTx struct {
	store  *RedisStore
	writes []redisWrite
	done   bool
}

func (t *redisTx) add(w redisWrite) error {
	if t.done {
		return outbound.ErrTxDone
	}
	t.writes = append(t.writes, w)
	return nil
}

func (t *redisTx) Insert(_ context.Context, collection string, docs []entity.Entity) error {
	raw, ids, err := encodeDocs(docs)
	if err != nil {
		return err
	}
	return t.add(redisWrite{kind: outbound.OpInsert, collection: collection, raw: raw, ids: ids})
}

func (t *redisTx) Replace(_ context.Context, collection string, docs []entity.Entity) error {
	raw, ids, err := encodeDocs(docs)
	if err != nil {
		return err
	}
	return t.add(redisWrite{kind: outbound.OpReplace, collection: collection, raw: raw, ids: ids})
}

func (t *redisTx) Delete(_ context.Context, collection string, ids []string) error {
	return t.add(redisWrite{kind: outbound.OpDelete, collection: collection, ids: ids})
}

func (t *redisTx) Disable(_ context.Context, collection string, ids []string, audit outbound.Audit) error {
	return t.add(redisWrite{kind: outbound.OpDisable, collection: collection, ids: ids, audit: audit})
}

type overlayEntry struct {
	collection string
	id         string
	doc        []byte // nil means deleted
}

func (t *redisTx) Commit(ctx context.Context) error {
	if t.done {
		return outbound.ErrTxDone
	}
	t.done = true
	if len(t.writes) == 0 {
		return nil
	}

	s := t.store
	var keys []string
	for _, w := range t.writes {
		for _, id := range w.ids {
			keys = append(keys, s.docKey(w.collection, id))
		}
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		overlay := make(map[string]*overlayEntry)
		var touched []string
		lookup := func(collection, id string) ([]byte, error) {
			key := s.docKey(collection, id)
			if e, ok := overlay[key]; ok {
				return e.doc, nil
			}
			raw, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			return raw, err
		}
		set := func(collection, id string, doc []byte) {
			key := s.docKey(collection, id)
			if _, ok := overlay[key]; !ok {
				touched = append(touched, key)
			}
			overlay[key] = &overlayEntry{collection: collection, id: id, doc: doc}
		}

		for _, w := range t.writes {
			for _, id := range w.ids {
				current, err := lookup(w.collection, id)
				if err != nil {
					return err
				}
				switch w.kind {
				case outbound.OpInsert:
					if current != nil {
						return fmt.Errorf("%w: %s", outbound.ErrDuplicateID, id)
					}
					set(w.collection, id, w.raw[id])
				case outbound.OpReplace:
					set(w.collection, id, w.raw[id])
				case outbound.OpDelete:
					if current != nil {
						set(w.collection, id, nil)
					}
				case outbound.OpDisable:
					if current == nil {
						continue
					}
					patched, err := disablePatch(current, w.audit)
					if err != nil {
						return fmt.Errorf("disable %s: %w", id, err)
					}
					set(w.collection, id, patched)
				}
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range touched {
				e := overlay[key]
				if e.doc == nil {
					pipe.Del(ctx, key)
					pipe.SRem(ctx, s.indexKey(e.collection), e.id)
					continue
				}
				pipe.Set(ctx, key, e.doc, 0)
				pipe.SAdd(ctx, s.indexKey(e.collection), e.id)
			}
			return nil
		})
		return err
	}, keys...)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("concurrent modification: %w", err)
	}
	return err
}

func (t *redisTx) Rollback(_ context.Context) error {
	t.done = true
	t.writes = nil
	return nil
}
