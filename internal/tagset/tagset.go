// Package tagset deduplicates tag values. Values are interned to dense
// uint32 ids and membership lives in a roaring bitmap, so sets stay cheap
// to merge and to count even for large libraries.
package tagset

import "github.com/RoaringBitmap/roaring"

// Set is a deduplicating collection of strings. The zero value is not
// usable; call New.
type Set struct {
	ids    map[string]uint32
	values []string
	bits   *roaring.Bitmap
}

func New() *Set {
	return &Set{
		ids:  make(map[string]uint32),
		bits: roaring.New(),
	}
}

// Add inserts a value, reporting whether it was new. Empty values are
// ignored.
func (s *Set) Add(v string) bool {
	if v == "" {
		return false
	}
	id, ok := s.ids[v]
	if !ok {
		id = uint32(len(s.values))
		s.ids[v] = id
		s.values = append(s.values, v)
	}
	return s.bits.CheckedAdd(id)
}

// Contains reports membership.
func (s *Set) Contains(v string) bool {
	id, ok := s.ids[v]
	return ok && s.bits.Contains(id)
}

// Len returns the number of distinct values.
func (s *Set) Len() uint64 {
	return s.bits.GetCardinality()
}

// Values returns the distinct values in first-seen order.
func (s *Set) Values() []string {
	out := make([]string, 0, len(s.values))
	it := s.bits.Iterator()
	for it.HasNext() {
		out = append(out, s.values[it.Next()])
	}
	return out
}

// Union merges other into s (interning other's values as needed).
func (s *Set) Union(other *Set) {
	for _, v := range other.Values() {
		s.Add(v)
	}
}
