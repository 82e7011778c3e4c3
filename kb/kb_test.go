package kb

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

var t0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestAddTrackDuplicate(t *testing.T) {
	store := NewTrackStore()
	if err := store.AddTrack("bus-1"); err != nil {
		t.Fatalf("AddTrack error: %v", err)
	}
	if err := store.AddTrack("bus-1"); err == nil {
		t.Fatalf("expected duplicate AddTrack to fail")
	}
}

func TestAppendUnknownTrack(t *testing.T) {
	store := NewTrackStore()
	if err := store.Append("missing", model.NewSample(0, 0, t0)); err == nil {
		t.Fatalf("expected Append to unknown track to fail")
	}
}

func TestAppendRejectsEarlierSample(t *testing.T) {
	store := NewTrackStore()
	if err := store.AddTrack("a"); err != nil {
		t.Fatalf("AddTrack error: %v", err)
	}
	if err := store.Append("a", model.NewSample(0, 0, t0.Add(time.Minute))); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := store.Append("a", model.NewSample(0, 0, t0)); err == nil {
		t.Fatalf("expected Append of an earlier sample to fail")
	}
	// Equal timestamps are allowed; receivers do report them.
	if err := store.Append("a", model.NewSample(1, 1, t0.Add(time.Minute))); err != nil {
		t.Fatalf("Append of equal timestamp: %v", err)
	}
}

func TestTrackReturnsCopies(t *testing.T) {
	store := NewTrackStore()
	if err := store.AddTrack("a"); err != nil {
		t.Fatalf("AddTrack error: %v", err)
	}
	if err := store.Append("a", model.NewSample(1, 2, t0), model.NewSample(1, 3, t0.Add(time.Second))); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	first, err := store.Track("a")
	if err != nil {
		t.Fatalf("Track error: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("len(Track) = %d, want 2", len(first))
	}
	w := 1.0
	if err := first[0].SetAngularVelocity(&w); err != nil {
		t.Fatalf("SetAngularVelocity: %v", err)
	}

	second, _ := store.Track("a")
	if second[0].Annotated() {
		t.Fatalf("derived fields leaked between Track calls")
	}
	if _, ok := second[0].AngularVelocity(); ok {
		t.Fatalf("angular velocity leaked between Track calls")
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store := NewTrackStore()
	var events []Event
	unsubscribe := store.Subscribe(func(e Event) { events = append(events, e) })

	if err := store.AddTrack("a"); err != nil {
		t.Fatalf("AddTrack error: %v", err)
	}
	if err := store.Append("a", model.NewSample(0, 0, t0), model.NewSample(0, 1, t0.Add(time.Second))); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if e := events[1]; e.Type != EventSamplesAppended || e.TrackID != "a" || e.Appended != 2 || e.Len != 2 {
		t.Fatalf("append event = %+v", e)
	}

	unsubscribe()
	if err := store.AddTrack("b"); err != nil {
		t.Fatalf("AddTrack error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("unsubscribed callback still invoked")
	}
}

func TestUnsubscribeOutOfOrder(t *testing.T) {
	store := NewTrackStore()
	var a, b, c int
	unA := store.Subscribe(func(Event) { a++ })
	unB := store.Subscribe(func(Event) { b++ })
	store.Subscribe(func(Event) { c++ })

	unA()
	unB()
	unA()
	if err := store.AddTrack("x"); err != nil {
		t.Fatalf("AddTrack error: %v", err)
	}
	if a != 0 || b != 0 || c != 1 {
		t.Fatalf("calls a=%d b=%d c=%d, want 0 0 1", a, b, c)
	}
}

func TestSubscribersRunInOrder(t *testing.T) {
	store := NewTrackStore()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		store.Subscribe(func(Event) { order = append(order, name) })
	}
	if err := store.AddTrack("x"); err != nil {
		t.Fatalf("AddTrack error: %v", err)
	}
	if got := fmt.Sprint(order); got != "[first second third]" {
		t.Fatalf("order = %s", got)
	}
}

func TestConcurrentAppends(t *testing.T) {
	store := NewTrackStore()
	const tracks = 8
	for i := range tracks {
		if err := store.AddTrack(fmt.Sprintf("t-%d", i)); err != nil {
			t.Fatalf("AddTrack error: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := range tracks {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := range 50 {
				_ = store.Append(id, model.NewSample(0, float64(j), t0.Add(time.Duration(j)*time.Second)))
			}
		}(fmt.Sprintf("t-%d", i))
	}
	wg.Wait()

	ids := store.IDs()
	if len(ids) != tracks || ids[0] != "t-0" {
		t.Fatalf("IDs() = %v", ids)
	}
	for _, id := range ids {
		track, _ := store.Track(id)
		if len(track) != 50 {
			t.Fatalf("track %s has %d samples, want 50", id, len(track))
		}
	}
}
