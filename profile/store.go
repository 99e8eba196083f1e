package profile

import (
	"log/slog"
	"sync"
)

// Store owns the current persona and element snapshot.
// Reload is explicit and synchronous; readers always see a complete snapshot.
type Store struct {
	personaPath  string
	elementsPath string
	logger       *slog.Logger

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewStore creates a store backed by the given files and loads them once.
// Empty paths use the built-in tables.
func NewStore(personaPath, elementsPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		personaPath:  personaPath,
		elementsPath: elementsPath,
		logger:       logger,
	}
	s.Reload()
	return s
}

// NewStaticStore creates a store that always serves the given snapshot.
func NewStaticStore(snap *Snapshot) *Store {
	return &Store{logger: slog.Default(), snapshot: snap}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Reload re-reads both files and swaps in a fresh snapshot.
// A file that is missing, unreadable or empty falls back to the built-in table
// with a warning; reload never fails.
func (s *Store) Reload() *Snapshot {
	personas := DefaultPersonas()
	if s.personaPath != "" {
		loaded, err := LoadPersonas(s.personaPath)
		if err != nil {
			s.logger.Warn("Using built-in personas",
				"path", s.personaPath,
				"error", err)
		} else {
			personas = loaded
		}
	}

	elements := DefaultElements()
	if s.elementsPath != "" {
		loaded, err := LoadElements(s.elementsPath)
		if err != nil {
			s.logger.Warn("Using built-in elements",
				"path", s.elementsPath,
				"error", err)
		} else {
			elements = loaded
		}
	}

	snap := NewSnapshot(personas, elements)

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.Debug("Loaded profiles",
		"personas", len(personas),
		"elements", len(elements))

	return snap
}

// Paths returns the persona and elements file paths.
func (s *Store) Paths() (personaPath, elementsPath string) {
	return s.personaPath, s.elementsPath
}
