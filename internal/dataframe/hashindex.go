package dataframe

import (
	xxhash "github.com/cespare/xxhash/v2"
)

// hashIndex maps composite row keys to row indices. Keys are pre-hashed with
// xxhash so that long composite keys are compared at most once per bucket
// entry; entries keep the full key to resolve hash collisions.
type hashIndex struct {
	buckets map[uint64][]hashEntry
	size    int
}

type hashEntry struct {
	key  string
	rows []int
}

func newHashIndex(estimatedSize int) *hashIndex {
	return &hashIndex{buckets: make(map[uint64][]hashEntry, estimatedSize)}
}

// add appends a row index under the given key.
func (ix *hashIndex) add(key string, row int) {
	hash := xxhash.Sum64String(key)
	bucket := ix.buckets[hash]
	for i := range bucket {
		if bucket[i].key == key {
			bucket[i].rows = append(bucket[i].rows, row)
			return
		}
	}
	ix.buckets[hash] = append(bucket, hashEntry{key: key, rows: []int{row}})
	ix.size++
}

// lookup returns the row indices stored under key.
func (ix *hashIndex) lookup(key string) ([]int, bool) {
	hash := xxhash.Sum64String(key)
	for _, entry := range ix.buckets[hash] {
		if entry.key == key {
			return entry.rows, true
		}
	}
	return nil, false
}
