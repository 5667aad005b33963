package aspace

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, raw string) Record {
	t.Helper()
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

// recordStore builds a cache from json documents keyed by their uri
func recordStore(t *testing.T, docs ...string) *Cache {
	t.Helper()
	seed := make(map[string]Record)
	for _, d := range docs {
		rec := mustRecord(t, d)
		seed[rec.URI()] = rec
	}
	return NewCache(seed)
}

// countingFetcher counts requests per uri
type countingFetcher struct {
	store *Cache
	calls map[string]int
}

func newCountingFetcher(store *Cache) *countingFetcher {
	return &countingFetcher{store: store, calls: make(map[string]int)}
}

func (cf *countingFetcher) Fetch(uri string) (Record, error) {
	cf.calls[uri]++
	rec, ok := cf.store.Get(uri)
	if !ok {
		return nil, errors.New("404 not found")
	}
	return rec, nil
}
