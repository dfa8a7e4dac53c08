package app

import (
	"fmt"
	"sync"
)

// Registry maps session codes to running match IDs. It is shared by every
// RPC and match on the server, so all access goes through the mutex.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]string)}
}

// GetOrCreate returns the match registered for rawCode, calling create to
// start one when the code is unused. created reports whether create ran.
func (r *Registry) GetOrCreate(rawCode string, create func(code string) (string, error)) (matchID string, created bool, err error) {
	code, err := NormalizeRoomCode(rawCode)
	if err != nil {
		return "", false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.rooms[code]; ok {
		return id, false, nil
	}
	id, err := create(code)
	if err != nil {
		return "", false, fmt.Errorf("create room %s: %w", code, err)
	}
	r.rooms[code] = id
	return id, true, nil
}

// Lookup returns the match registered for rawCode.
func (r *Registry) Lookup(rawCode string) (string, error) {
	code, err := NormalizeRoomCode(rawCode)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.rooms[code]
	if !ok {
		return "", ErrRoomNotRegistered
	}
	return id, nil
}

// Destroy drops code if it still points at matchID. A newer match that
// reused the code is left alone.
func (r *Registry) Destroy(code, matchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.rooms[code]; ok && id == matchID {
		delete(r.rooms, code)
		return true
	}
	return false
}

// Len returns the number of registered rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
