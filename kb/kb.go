// Package kb holds recorded tracks in memory.
package kb

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventTrackAdded EventType = iota
	EventSamplesAppended
)

// Event is emitted to subscribers when a track changes.
type Event struct {
	Type    EventType
	TrackID string
	// Appended is the number of samples added by an append.
	Appended int
	// Len is the track length after the change.
	Len int
}

// TrackStore is an in-memory, thread-safe store of sample tracks keyed by ID.
// Samples are copied on the way in and on the way out, so callers never
// share derived fields with the store or with each other.
type TrackStore struct {
	mu sync.RWMutex

	tracks map[string][]*model.Sample

	nextSub uint64
	subs    map[uint64]func(Event)
}

// NewTrackStore constructs an empty store.
func NewTrackStore() *TrackStore {
	return &TrackStore{
		tracks: make(map[string][]*model.Sample),
		subs:   make(map[uint64]func(Event)),
	}
}

// AddTrack registers an empty track. It returns an error if the ID already exists.
func (s *TrackStore) AddTrack(id string) error {
	s.mu.Lock()
	if _, exists := s.tracks[id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("track with ID %q already exists", id)
	}
	s.tracks[id] = nil
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.notify(subs, Event{Type: EventTrackAdded, TrackID: id})
	return nil
}

// Append adds samples to the end of a track. Samples must not be earlier
// than the current last sample.
func (s *TrackStore) Append(id string, samples ...*model.Sample) error {
	s.mu.Lock()
	track, ok := s.tracks[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("track with ID %q not found", id)
	}
	for _, smp := range samples {
		if n := len(track); n > 0 && smp.Time().Before(track[n-1].Time()) {
			s.mu.Unlock()
			return fmt.Errorf("track %q: sample at %s is earlier than last sample at %s",
				id, smp.Time(), track[n-1].Time())
		}
		track = append(track, smp.Clone())
	}
	s.tracks[id] = track
	event := Event{
		Type:     EventSamplesAppended,
		TrackID:  id,
		Appended: len(samples),
		Len:      len(track),
	}
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.notify(subs, event)
	return nil
}

// Track returns fresh copies of the samples of a track.
func (s *TrackStore) Track(id string) ([]*model.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	track, ok := s.tracks[id]
	if !ok {
		return nil, fmt.Errorf("track with ID %q not found", id)
	}
	out := make([]*model.Sample, len(track))
	for i, smp := range track {
		out[i] = smp.Clone()
	}
	return out, nil
}

// IDs returns the track IDs in sorted order.
func (s *TrackStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of tracks.
func (s *TrackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Subscribe registers a callback for store events. It returns an unsubscribe
// function; calling it more than once is a no-op.
func (s *TrackStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// subscribersLocked returns the callbacks in subscription order. The caller
// must hold s.mu.
func (s *TrackStore) subscribersLocked() []func(Event) {
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}

// notify runs subscribers outside the lock to avoid deadlocks.
func (s *TrackStore) notify(subs []func(Event), event Event) {
	for _, sub := range subs {
		sub(event)
	}
}
