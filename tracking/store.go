// Package tracking records which columns of an object have been
// mutated since it was last loaded or saved, and caches the snapshot
// condition expressing the object's last-known persisted state. The
// store is an explicit service: construct one per runtime session and
// hand it to everything that mutates or reads object state.
package tracking

import (
	"cmp"
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"sync"
	"weak"

	"dynamap/conditions"
	"dynamap/schema"
)

type entry struct {
	marked   map[*schema.Column]struct{}
	snapshot *conditions.Condition
}

// Store tracks object state by identity. Entries are evicted
// automatically when the tracked object is garbage collected; the
// store never keeps an object alive. Concurrent use on different
// objects is safe; concurrent mutation of one object is the owning
// collaborator's problem, as it is for the object itself.
type Store struct {
	mu      sync.Mutex
	objects map[weak.Pointer[byte]]*entry
}

func NewStore() *Store {
	return &Store{objects: make(map[weak.Pointer[byte]]*entry)}
}

var _ conditions.ObjectState = (*Store)(nil)

// identify returns the identity key for a tracked object. Objects must
// be pointers so identity is well defined and a cleanup can be
// attached to the allocation. The key is a weak pointer rather than
// the raw address: a weak pointer to a dead object never compares
// equal to one minted for a new object, even when the allocator has
// reused the address, so a collected object's state can never be
// attributed to its successor.
func identify(obj schema.Object) (weak.Pointer[byte], *byte) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		panic(fmt.Sprintf("tracking: object must be a non-nil pointer, got %T", obj))
	}
	ptr := (*byte)(rv.UnsafePointer())
	return weak.Make(ptr), ptr
}

// entryFor lazily creates the tracking entry for an object. The
// cleanup only reclaims map capacity; correctness does not depend on
// when it runs, because the dead key cannot match any live object.
func (s *Store) entryFor(obj schema.Object) *entry {
	id, ptr := identify(obj)
	e, ok := s.objects[id]
	if !ok {
		e = &entry{marked: make(map[*schema.Column]struct{})}
		s.objects[id] = e
		runtime.AddCleanup(ptr, func(id weak.Pointer[byte]) {
			s.mu.Lock()
			delete(s.objects, id)
			s.mu.Unlock()
		}, id)
	}
	return e
}

// Mark records that a column was explicitly set or deleted on the
// object. Marked columns are pushed, possibly as removals, by future
// update renders that include the object. Idempotent.
func (s *Store) Mark(obj schema.Object, col *schema.Column) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryFor(obj).marked[col] = struct{}{}
}

// Sync marks the object as having been persisted at least once,
// replacing the cached snapshot with a fresh one over exactly the
// marked columns. Values are dumped immediately, not at render time,
// in case they are mutable.
func (s *Store) Sync(obj schema.Object, dump schema.DumpFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryFor(obj)
	snapshot := conditions.Empty()
	for _, col := range sortedColumns(e.marked) {
		av, err := dump(col.Type, obj.Get(col))
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", col, err)
		}
		snapshot = snapshot.AndInPlace(conditions.DumpedEqual(conditions.Attr(col), av))
	}
	e.snapshot = snapshot
	return nil
}

// Snapshot returns the cached snapshot condition. For an object that
// has never been synced it synthesizes, and caches, the conservative
// default: every declared column has no value.
func (s *Store) Snapshot(obj schema.Object) *conditions.Condition {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryFor(obj)
	if e.snapshot != nil {
		return e.snapshot
	}
	snapshot := conditions.Empty()
	columns := slices.Clone(obj.Columns())
	slices.SortFunc(columns, func(a, b *schema.Column) int {
		return cmp.Compare(a.Name, b.Name)
	})
	for _, col := range columns {
		snapshot = snapshot.AndInPlace(conditions.Attr(col).IsNull())
	}
	e.snapshot = snapshot
	return snapshot
}

// Marked returns a copy of the object's marked column set, sorted by
// wire name.
func (s *Store) Marked(obj schema.Object) []*schema.Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedColumns(s.entryFor(obj).marked)
}

// Deleted drops the cached snapshot after the object is deleted. The
// marked set is kept: a deleted-then-recreated local object still
// remembers which columns were explicitly touched.
func (s *Store) Deleted(obj schema.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryFor(obj).snapshot = nil
}

func sortedColumns(set map[*schema.Column]struct{}) []*schema.Column {
	out := make([]*schema.Column, 0, len(set))
	for col := range set {
		out = append(out, col)
	}
	slices.SortFunc(out, func(a, b *schema.Column) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
