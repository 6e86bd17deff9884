package storage

import "sync"

// ramEntry is one stored item: its bytes and whether it has been
// enqueued for dequeue ordering yet.
type ramEntry struct {
	data     []byte
	isRecord bool
	enqueued bool
}

// RAMStore is the RAM reference backend spec.md section 6 names ("RAM
// (linked queue)"): storage ids map to byte slices kept entirely in
// memory, with a FIFO queue of enqueued ids for Dequeue. It is the
// reference Adapter implementation this module ships; file and flash
// backends are named in the spec but out of scope here.
type RAMStore struct {
	mu      sync.Mutex
	entries map[ID]*ramEntry
	queue   []ID
}

// NewRAMStore builds an empty RAM-backed Adapter.
func NewRAMStore() *RAMStore {
	return &RAMStore{entries: make(map[ID]*ramEntry)}
}

var _ Adapter = (*RAMStore)(nil)

// Create stores data under a freshly minted id. timeoutMS is accepted for
// interface conformance with a blocking backend but never blocks here: a
// RAM store has no notion of exhausted space to wait out.
func (s *RAMStore) Create(_ interface{}, isRecord bool, data []byte, _ int) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := NewID()
	stored := append([]byte(nil), data...)
	s.entries[id] = &ramEntry{data: stored, isRecord: isRecord}

	logCreate(id, isRecord, len(stored))
	return id, nil
}

// Enqueue marks id ready for FIFO dequeue.
func (s *RAMStore) Enqueue(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	if entry.enqueued {
		return nil
	}
	entry.enqueued = true
	s.queue = append(s.queue, id)
	return nil
}

// Dequeue pops the oldest enqueued id.
func (s *RAMStore) Dequeue() (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return ID{}, ErrEmpty
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	if entry, ok := s.entries[id]; ok {
		entry.enqueued = false
	}
	return id, nil
}

// Retrieve returns id's stored bytes.
func (s *RAMStore) Retrieve(id ID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), entry.data...), nil
}

// Release is a no-op for a RAM store: there is no separate checked-out
// state to return, Retrieve always hands back a fresh copy.
func (s *RAMStore) Release(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	return nil
}

// Relinquish permanently frees id.
func (s *RAMStore) Relinquish(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)

	for i, qid := range s.queue {
		if qid == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	return nil
}

// GetCount reports how many ids are currently stored.
func (s *RAMStore) GetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
