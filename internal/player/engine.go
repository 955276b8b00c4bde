// Package player drives audio playback. The Engine interface hides the
// actual transport (mpv over its IPC socket in production, a fake in tests);
// the Controller is a state machine on top of it and the only component
// allowed to issue engine commands.
package player

// EventKind classifies what the engine reports.
type EventKind int

const (
	// EventLoadOK: the last loaded URL is decoded and playing.
	EventLoadOK EventKind = iota
	// EventLoadFailed: the last loaded URL could not be played.
	EventLoadFailed
	// EventPosition: periodic playback position update.
	EventPosition
	// EventEnded: the current track played to the end.
	EventEnded
	// EventFailed: the engine itself broke mid-playback.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventLoadOK:
		return "load_ok"
	case EventLoadFailed:
		return "load_failed"
	case EventPosition:
		return "position"
	case EventEnded:
		return "ended"
	case EventFailed:
		return "engine_failed"
	}
	return "unknown"
}

// Event is one engine report. Gen is the load generation the event belongs
// to: Load bumps the engine's generation and every event carries the
// generation current when it was produced, so consumers can discard reports
// from a superseded load.
type Event struct {
	Gen      uint64
	Kind     EventKind
	Position float64 // seconds
	Duration float64 // seconds
	Reason   string
}

// Engine is a black-box audio transport.
type Engine interface {
	// Load replaces whatever is playing with the given URL and returns the
	// new load generation. Playback starts as soon as the stream is ready.
	Load(url string) (uint64, error)
	Play() error
	Pause() error
	// Seek moves to an absolute position in seconds.
	Seek(seconds float64) error
	// SetVolume sets the output level, 0-100.
	SetVolume(level int) error
	// Stop unloads the current track without shutting the engine down.
	Stop() error
	// Events delivers engine reports. The channel is closed on Close.
	Events() <-chan Event
	Close() error
}
