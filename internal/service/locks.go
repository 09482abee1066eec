package service

import "sync"

// ProfileLocks hands out one advisory mutex per publishing profile so that
// reconciliation and batch scheduling runs against the same profile never
// overlap. Correctness does not depend on wall-clock spacing between
// requests, unlike a cooldown timestamp.
type ProfileLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewProfileLocks() *ProfileLocks {
	return &ProfileLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *ProfileLocks) get(profileID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.locks[profileID]
	if !ok {
		m = &sync.Mutex{}
		p.locks[profileID] = m
	}
	return m
}

// Lock blocks until the profile is free.
func (p *ProfileLocks) Lock(profileID string) {
	p.get(profileID).Lock()
}

// TryLock reports whether the profile lock was acquired without waiting.
func (p *ProfileLocks) TryLock(profileID string) bool {
	return p.get(profileID).TryLock()
}

func (p *ProfileLocks) Unlock(profileID string) {
	p.get(profileID).Unlock()
}
