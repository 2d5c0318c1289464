package templatesync

import "sync"

// ModificationStore owns the property overrides applied on top of a template's
// defaults. One store is shared by every preview target of a session, which is
// what keeps the targets visually in sync: each write pushes the same full
// snapshot everywhere.
//
// An absent selector means "use the template default". Overlapping writers are
// serialized by the store; the last completed push to a given target wins that
// target's display.
type ModificationStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewModificationStore creates an empty store.
func NewModificationStore() *ModificationStore {
	return &ModificationStore{values: make(map[string]string)}
}

// Set records an override for selector.
func (s *ModificationStore) Set(selector, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[selector] = value
}

// Unset removes the override for selector, reverting it to the template
// default. Removing an absent selector is a no-op.
func (s *ModificationStore) Unset(selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, selector)
}

// Apply sets the override, or removes it when value is empty. This is the
// write rule every edit path goes through: clearing a field hands the slot
// back to the template default rather than overriding it with "".
func (s *ModificationStore) Apply(selector, value string) {
	if value == "" {
		s.Unset(selector)
		return
	}
	s.Set(selector, value)
}

// Get returns the override for selector, if present.
func (s *ModificationStore) Get(selector string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[selector]
	return v, ok
}

// Snapshot returns a copy of the current overrides, safe to hand to a preview
// instance without further locking.
func (s *ModificationStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Len returns the number of overrides currently set.
func (s *ModificationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Reset drops every override. Element tree reloads do NOT reset the store;
// only an explicit caller decision does.
func (s *ModificationStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
}
