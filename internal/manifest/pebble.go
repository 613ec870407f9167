package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pebble "github.com/cockroachdb/pebble"
)

type pebbleStore struct {
	db *pebble.DB
}

func openPebble(path string) (*pebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble manifest: %w", err)
	}
	return &pebbleStore{db: db}, nil
}

func (s *pebbleStore) Get(_ context.Context, rel string) (*Record, error) {
	data, closer, err := s.db.Get([]byte(Key(rel)))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manifest record: %w", err)
	}
	defer closer.Close()

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode manifest record %s: %w", rel, err)
	}
	return &rec, nil
}

func (s *pebbleStore) Put(_ context.Context, rec Record) error {
	rec.RelPath = Key(rec.RelPath)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode manifest record: %w", err)
	}
	return s.db.Set([]byte(rec.RelPath), data, pebble.Sync)
}

// List iterates in key order, which is the relative path order.
func (s *pebbleStore) List(_ context.Context) ([]Record, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var records []Record
	for iter.First(); iter.Valid(); iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("decode manifest record %s: %w", iter.Key(), err)
		}
		records = append(records, rec)
	}
	return records, iter.Error()
}

func (s *pebbleStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
