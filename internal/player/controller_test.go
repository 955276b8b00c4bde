package player

import (
	"testing"
)

// fakeEngine records commands and lets tests hand events to the controller
// directly, including deliberately stale ones.
type fakeEngine struct {
	gen      uint64
	loads    []string
	commands []string
	events   chan Event
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan Event, 16)}
}

func (f *fakeEngine) Load(url string) (uint64, error) {
	f.gen++
	f.loads = append(f.loads, url)
	f.commands = append(f.commands, "load")
	return f.gen, nil
}

func (f *fakeEngine) Play() error            { f.commands = append(f.commands, "play"); return nil }
func (f *fakeEngine) Pause() error           { f.commands = append(f.commands, "pause"); return nil }
func (f *fakeEngine) Seek(s float64) error   { f.commands = append(f.commands, "seek"); return nil }
func (f *fakeEngine) SetVolume(l int) error  { f.commands = append(f.commands, "volume"); return nil }
func (f *fakeEngine) Stop() error            { f.commands = append(f.commands, "stop"); return nil }
func (f *fakeEngine) Events() <-chan Event   { return f.events }
func (f *fakeEngine) Close() error           { return nil }

func countCommands(f *fakeEngine, name string) int {
	n := 0
	for _, c := range f.commands {
		if c == name {
			n++
		}
	}
	return n
}

func TestPlayIssuesExactlyOneLoad(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 80, nil)

	if err := c.Play("t1", "http://srv/stream?id=t1", 200); err != nil {
		t.Fatal(err)
	}
	if countCommands(eng, "load") != 1 {
		t.Errorf("load issued %d times, want 1", countCommands(eng, "load"))
	}
	st := c.Status()
	if st.State != Loading || st.TrackID != "t1" {
		t.Errorf("status = %+v, want Loading t1", st)
	}
}

func TestStaleLoadEventDiscarded(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 80, nil)

	c.Play("t1", "url1", 0)
	gen1 := eng.gen
	c.Play("t2", "url2", 0)
	gen2 := eng.gen

	// t1's load result arrives after t2 was requested: it must be dropped.
	if c.Apply(Event{Gen: gen1, Kind: EventLoadOK}) {
		t.Error("stale load_ok changed state")
	}
	if st := c.Status(); st.State != Loading || st.TrackID != "t2" {
		t.Fatalf("status = %+v, want still Loading t2", st)
	}

	if !c.Apply(Event{Gen: gen2, Kind: EventLoadOK}) {
		t.Fatal("fresh load_ok was discarded")
	}
	st := c.Status()
	if st.State != Playing || st.TrackID != "t2" || st.Position != 0 {
		t.Errorf("status = %+v, want Playing t2 at 0", st)
	}
}

func TestStaleInterleavings(t *testing.T) {
	tests := []struct {
		name   string
		stale  Event
		fresh  Event
		want   State
	}{
		{"stale ok then fresh ok", Event{Kind: EventLoadOK}, Event{Kind: EventLoadOK}, Playing},
		{"stale failure then fresh ok", Event{Kind: EventLoadFailed, Reason: "404"}, Event{Kind: EventLoadOK}, Playing},
		{"stale ok then fresh failure", Event{Kind: EventLoadOK}, Event{Kind: EventLoadFailed, Reason: "404"}, Errored},
		{"stale ended then fresh ok", Event{Kind: EventEnded}, Event{Kind: EventLoadOK}, Playing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			c := NewController(eng, 80, nil)
			c.Play("t1", "url1", 0)
			stale := tt.stale
			stale.Gen = eng.gen
			c.Play("t2", "url2", 0)
			fresh := tt.fresh
			fresh.Gen = eng.gen

			c.Apply(stale)
			c.Apply(fresh)

			st := c.Status()
			if st.State != tt.want || st.TrackID != "t2" {
				t.Errorf("status = %+v, want %v for t2", st, tt.want)
			}
		})
	}
}

func TestPauseResumeCycle(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 80, nil)
	c.Play("t1", "url1", 0)
	c.Apply(Event{Gen: eng.gen, Kind: EventLoadOK, Duration: 180})

	if err := c.TogglePause(); err != nil {
		t.Fatal(err)
	}
	if c.Status().State != Paused {
		t.Fatalf("state = %v, want Paused", c.Status().State)
	}
	if err := c.TogglePause(); err != nil {
		t.Fatal(err)
	}
	if c.Status().State != Playing {
		t.Fatalf("state = %v, want Playing", c.Status().State)
	}
	if countCommands(eng, "pause") != 1 || countCommands(eng, "play") != 1 {
		t.Errorf("pause=%d play=%d, want 1 each", countCommands(eng, "pause"), countCommands(eng, "play"))
	}
}

func TestPauseIgnoredWhileLoading(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 80, nil)
	c.Play("t1", "url1", 0)

	if err := c.TogglePause(); err != nil {
		t.Fatal(err)
	}
	if c.Status().State != Loading {
		t.Errorf("state = %v, want Loading untouched", c.Status().State)
	}
	if countCommands(eng, "pause")+countCommands(eng, "play") != 0 {
		t.Error("pause toggle reached the engine outside Playing/Paused")
	}
}

func TestSeekOnlyWhilePlayingOrPaused(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 80, nil)

	if err := c.Seek(5); err != nil {
		t.Fatal(err)
	}
	if countCommands(eng, "seek") != 0 {
		t.Fatal("seek reached the engine while Idle")
	}

	c.Play("t1", "url1", 0)
	c.Apply(Event{Gen: eng.gen, Kind: EventLoadOK, Duration: 100})
	c.Apply(Event{Gen: eng.gen, Kind: EventPosition, Position: 50, Duration: 100})

	c.Seek(5)
	if got := c.Status().Position; got != 55 {
		t.Errorf("position after seek = %v, want 55", got)
	}
	// Clamped at the ends.
	c.Seek(1000)
	if got := c.Status().Position; got != 100 {
		t.Errorf("position after over-seek = %v, want 100", got)
	}
	c.Seek(-1000)
	if got := c.Status().Position; got != 0 {
		t.Errorf("position after under-seek = %v, want 0", got)
	}
}

func TestTrackEndedReturnsToIdle(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 65, nil)
	c.Play("t1", "url1", 0)
	c.Apply(Event{Gen: eng.gen, Kind: EventLoadOK})
	c.Apply(Event{Gen: eng.gen, Kind: EventEnded})

	st := c.Status()
	if st.State != Idle || st.TrackID != "" {
		t.Errorf("status = %+v, want Idle with no track", st)
	}
	if st.Volume != 65 {
		t.Errorf("volume reset to %d across track end", st.Volume)
	}
	if countCommands(eng, "load") != 1 {
		t.Error("track end triggered another load (auto-advance is out of scope)")
	}
}

func TestErrorRequiresExplicitRetry(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 80, nil)
	c.Play("t1", "url1", 0)
	c.Apply(Event{Gen: eng.gen, Kind: EventLoadFailed, Reason: "connection refused"})

	st := c.Status()
	if st.State != Errored || st.Reason != "connection refused" {
		t.Fatalf("status = %+v, want Errored", st)
	}
	if countCommands(eng, "load") != 1 {
		t.Fatal("error state re-loaded without a retry intent")
	}

	if err := c.Retry(); err != nil {
		t.Fatal(err)
	}
	if c.Status().State != Loading {
		t.Errorf("state after retry = %v, want Loading", c.Status().State)
	}
	if countCommands(eng, "load") != 2 {
		t.Errorf("load issued %d times after retry, want 2", countCommands(eng, "load"))
	}
	if eng.loads[1] != "url1" {
		t.Errorf("retry loaded %q, want the original url", eng.loads[1])
	}
}

func TestRetryOutsideErrorIsNoop(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 80, nil)
	c.Play("t1", "url1", 0)
	c.Apply(Event{Gen: eng.gen, Kind: EventLoadOK})

	if err := c.Retry(); err != nil {
		t.Fatal(err)
	}
	if countCommands(eng, "load") != 1 {
		t.Error("retry while Playing issued a load")
	}
}

func TestVolumeClamping(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 95, nil)

	c.AdjustVolume(10)
	if got := c.Status().Volume; got != 100 {
		t.Errorf("volume = %d, want clamped to 100", got)
	}
	c.AdjustVolume(-250)
	if got := c.Status().Volume; got != 0 {
		t.Errorf("volume = %d, want clamped to 0", got)
	}
	// No engine call when already at the bound.
	n := countCommands(eng, "volume")
	c.AdjustVolume(-5)
	if countCommands(eng, "volume") != n {
		t.Error("volume command issued with no level change")
	}
}

func TestStopSilencesInFlightLoad(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng, 80, nil)
	c.Play("t1", "url1", 0)
	gen := eng.gen
	c.Stop()

	if c.Apply(Event{Gen: gen, Kind: EventLoadOK}) {
		t.Error("load_ok for a stopped load changed state")
	}
	if c.Status().State != Idle {
		t.Errorf("state = %v, want Idle", c.Status().State)
	}
}
