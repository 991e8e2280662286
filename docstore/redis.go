package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each document as a JSON blob under
// "<prefix>:<collection>:<id>" and maintains a per-collection set index of
// document IDs under "<prefix>:idx:<collection>". Filtering, ordering, and
// limiting happen client-side after an MGET, which is adequate for the
// modest collection sizes of a single guidance office.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed document store. prefix namespaces
// all keys; it defaults to "gd" when empty.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gd"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(collection, id string) string {
	return s.prefix + ":" + collection + ":" + id
}

func (s *RedisStore) indexKey(collection string) string {
	return s.prefix + ":idx:" + collection
}

// Create stores a new document under a generated UUID and registers it in
// the collection index.
func (s *RedisStore) Create(ctx context.Context, collection string, fields Fields) (Document, error) {
	id := uuid.NewString()
	data, err := json.Marshal(fields)
	if err != nil {
		return Document{}, err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(collection, id), data, 0)
		pipe.SAdd(ctx, s.indexKey(collection), id)
		return nil
	})
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

// Get fetches one document by ID.
func (s *RedisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	data, err := s.redis.Get(ctx, s.key(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return decodeDocument(id, data)
}

// List returns the documents of a collection matching q.
func (s *RedisStore) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	ids, err := s.redis.SMembers(ctx, s.indexKey(collection)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Document{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return []Document{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.key(collection, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	docs := make([]Document, 0, len(ids))
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				// Index entry without a document: repair lazily.
				s.redis.SRem(ctx, s.indexKey(collection), ids[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, cmdErr)
		}

		doc, decErr := decodeDocument(ids[i], data)
		if decErr != nil {
			return nil, decErr
		}
		if matches(doc, q) {
			docs = append(docs, doc)
		}
	}

	return sortAndLimit(docs, q), nil
}

// Update merges fields into an existing document. The read-modify-write is
// not guarded: concurrent updates to the same document last-write-win,
// matching the collaborator contract.
func (s *RedisStore) Update(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return Document{}, err
	}

	for k, v := range fields {
		doc.Fields[k] = v
	}

	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return Document{}, err
	}
	if err := s.redis.Set(ctx, s.key(collection, id), data, 0).Err(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return doc, nil
}

// Delete removes a document and its index entry. Deleting an absent
// document is a no-op.
func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(collection, id))
		pipe.SRem(ctx, s.indexKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func decodeDocument(id string, data []byte) (Document, error) {
	var fields Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return Document{}, fmt.Errorf("%w: corrupt document %s: %v", ErrUnavailable, id, err)
	}
	return Document{ID: id, Fields: fields}, nil
}
