// Package bufhash is the lookup table of the buffer pool: it maps a
// (file, page) pair to the frame caching that page.
package bufhash

import (
	"errors"
	"fmt"

	"github.com/OneOfOne/xxhash"
	"github.com/google/uuid"

	"github.com/tuannm99/novabuf/internal/alias/bx"
)

var (
	ErrNotFound     = errors.New("bufhash: key not found")
	ErrDuplicateKey = errors.New("bufhash: key already present")
)

// Key identifies a cached page: the file handle id and the page number in it.
type Key struct {
	File   uuid.UUID
	PageID uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.File, k.PageID)
}

type bucket struct {
	key   Key
	frame int
	next  *bucket
}

// Table is a fixed-width chained hash table. Keys are unique.
type Table struct {
	buckets []*bucket
	n       int
}

// SizeFor returns the bucket count used for a pool of poolSize frames:
// roughly 1.2 buckets per frame, plus one.
func SizeFor(poolSize int) int {
	return int(float64(poolSize)*1.2) + 1
}

func New(size int) *Table {
	if size <= 0 {
		size = 1
	}
	return &Table{buckets: make([]*bucket, size)}
}

func (t *Table) hash(k Key) int {
	var buf [20]byte
	copy(buf[:16], k.File[:])
	bx.PutU32At(buf[:], 16, k.PageID)
	return int(xxhash.Checksum64(buf[:]) % uint64(len(t.buckets)))
}

// Insert adds k -> frame. It fails with ErrDuplicateKey if k is present.
func (t *Table) Insert(k Key, frame int) error {
	i := t.hash(k)
	for b := t.buckets[i]; b != nil; b = b.next {
		if b.key == k {
			return fmt.Errorf("insert %s: %w", k, ErrDuplicateKey)
		}
	}
	t.buckets[i] = &bucket{key: k, frame: frame, next: t.buckets[i]}
	t.n++
	return nil
}

// Lookup returns the frame mapped to k, if any.
func (t *Table) Lookup(k Key) (int, bool) {
	for b := t.buckets[t.hash(k)]; b != nil; b = b.next {
		if b.key == k {
			return b.frame, true
		}
	}
	return -1, false
}

// Remove deletes k. It fails with ErrNotFound if k is absent.
func (t *Table) Remove(k Key) error {
	i := t.hash(k)
	var prev *bucket
	for b := t.buckets[i]; b != nil; b = b.next {
		if b.key == k {
			if prev == nil {
				t.buckets[i] = b.next
			} else {
				prev.next = b.next
			}
			t.n--
			return nil
		}
		prev = b
	}
	return fmt.Errorf("remove %s: %w", k, ErrNotFound)
}

func (t *Table) Len() int { return t.n }

// Buckets returns the fixed bucket count.
func (t *Table) Buckets() int { return len(t.buckets) }

// Range calls fn for every entry until fn returns false. Order is unspecified.
func (t *Table) Range(fn func(k Key, frame int) bool) {
	for _, b := range t.buckets {
		for ; b != nil; b = b.next {
			if !fn(b.key, b.frame) {
				return
			}
		}
	}
}

// Reset drops every entry.
func (t *Table) Reset() {
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.n = 0
}
