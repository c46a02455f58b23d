package ledger

import (
	"errors"
	"sync"
)

// memPersister is an in-memory Persister for tests. While failRemaining
// is positive, ReplaceAll on failCollection fails and decrements it; this
// exercises import failure with and without a working rollback. While
// failSets is positive, Set fails and decrements it.
type memPersister struct {
	mu             sync.Mutex
	data           map[string]map[string][]byte
	failCollection string
	failRemaining  int
	failSets       int
}

func newMemPersister() *memPersister {
	return &memPersister{data: make(map[string]map[string][]byte)}
}

func (m *memPersister) bucket(collection string) map[string][]byte {
	b, ok := m.data[collection]
	if !ok {
		b = make(map[string][]byte)
		m.data[collection] = b
	}
	return b
}

func (m *memPersister) Set(collection, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSets > 0 {
		m.failSets--
		return errors.New("simulated write failure")
	}
	m.bucket(collection)[id] = data
	return nil
}

func (m *memPersister) Remove(collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bucket(collection), id)
	return nil
}

func (m *memPersister) LoadAll(collection string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte)
	for id, data := range m.bucket(collection) {
		out[id] = data
	}
	return out, nil
}

func (m *memPersister) ReplaceAll(collection string, records map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if collection == m.failCollection && m.failRemaining > 0 {
		m.failRemaining--
		return errors.New("simulated write failure")
	}
	replaced := make(map[string][]byte, len(records))
	for id, data := range records {
		replaced[id] = data
	}
	m.data[collection] = replaced
	return nil
}
