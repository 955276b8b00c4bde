package player

import (
	"log/slog"
)

// State is the playback state machine's current variant.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Errored:
		return "error"
	}
	return "unknown"
}

// Status is a snapshot of the controller for rendering. TrackID is empty in
// Idle; Reason is set only in Errored.
type Status struct {
	State    State
	TrackID  string
	Position float64
	Duration float64
	Volume   int
	Reason   string
}

const (
	minVolume = 0
	maxVolume = 100
)

// Controller owns what is currently loaded and playing. Intents (play,
// pause, seek, volume) become engine commands; engine events become state
// transitions. Events whose generation predates the latest Load are
// discarded, so a quick track switch cannot be undone by a stale report.
type Controller struct {
	engine Engine
	logger *slog.Logger

	status  Status
	gen     uint64
	lastURL string // retained for explicit retry after an error
}

func NewController(engine Engine, volume int, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		engine: engine,
		logger: logger,
		status: Status{State: Idle, Volume: clampVolume(volume)},
	}
}

// Status returns the current snapshot.
func (c *Controller) Status() Status { return c.status }

// Play moves to Loading for the given track from any state and issues a
// single engine load. Duration is the catalog's figure, shown until the
// engine reports its own.
func (c *Controller) Play(trackID, streamURL string, duration float64) error {
	gen, err := c.engine.Load(streamURL)
	if err != nil {
		c.status = Status{State: Errored, TrackID: trackID, Volume: c.status.Volume, Reason: err.Error()}
		return err
	}
	c.gen = gen
	c.lastURL = streamURL
	c.status = Status{
		State:    Loading,
		TrackID:  trackID,
		Duration: duration,
		Volume:   c.status.Volume,
	}
	c.logger.Debug("playback load issued", "track", trackID, "gen", gen)
	return nil
}

// TogglePause flips between Playing and Paused. In any other state it is a
// reported no-op.
func (c *Controller) TogglePause() error {
	switch c.status.State {
	case Playing:
		if err := c.engine.Pause(); err != nil {
			return err
		}
		c.status.State = Paused
	case Paused:
		if err := c.engine.Play(); err != nil {
			return err
		}
		c.status.State = Playing
	default:
		c.logger.Debug("pause toggle ignored", "state", c.status.State.String())
	}
	return nil
}

// Seek moves the position by offset seconds, clamped at the track bounds.
// Accepted only while Playing or Paused.
func (c *Controller) Seek(offset float64) error {
	if c.status.State != Playing && c.status.State != Paused {
		c.logger.Debug("seek ignored", "state", c.status.State.String())
		return nil
	}
	target := c.status.Position + offset
	if target < 0 {
		target = 0
	}
	if c.status.Duration > 0 && target > c.status.Duration {
		target = c.status.Duration
	}
	if err := c.engine.Seek(target); err != nil {
		return err
	}
	c.status.Position = target
	return nil
}

// AdjustVolume changes the output level by delta, clamped to 0-100.
func (c *Controller) AdjustVolume(delta int) error {
	level := clampVolume(c.status.Volume + delta)
	if level == c.status.Volume {
		return nil
	}
	if err := c.engine.SetVolume(level); err != nil {
		return err
	}
	c.status.Volume = level
	return nil
}

// Retry re-issues the failed load. Only valid in Errored; the error state is
// never left automatically.
func (c *Controller) Retry() error {
	if c.status.State != Errored || c.lastURL == "" {
		return nil
	}
	return c.Play(c.status.TrackID, c.lastURL, c.status.Duration)
}

// Stop unloads the current track and returns to Idle.
func (c *Controller) Stop() error {
	err := c.engine.Stop()
	c.gen++ // silence anything still in flight for the stopped load
	c.status = Status{State: Idle, Volume: c.status.Volume}
	return err
}

// Apply folds an engine event into the state machine and reports whether
// the visible state changed. Stale generations are dropped here; this is
// the only stale-event filter in the program.
func (c *Controller) Apply(ev Event) bool {
	if ev.Gen != c.gen {
		c.logger.Debug("stale engine event discarded",
			"kind", ev.Kind.String(), "gen", ev.Gen, "current", c.gen)
		return false
	}
	switch ev.Kind {
	case EventLoadOK:
		if c.status.State != Loading {
			return false
		}
		c.status.State = Playing
		c.status.Position = 0
		if ev.Duration > 0 {
			c.status.Duration = ev.Duration
		}
		return true
	case EventLoadFailed:
		c.status.State = Errored
		c.status.Reason = ev.Reason
		return true
	case EventPosition:
		if c.status.State != Playing && c.status.State != Paused {
			return false
		}
		c.status.Position = ev.Position
		if ev.Duration > 0 {
			c.status.Duration = ev.Duration
		}
		return true
	case EventEnded:
		// Single-track playback: finishing a track parks the player.
		c.status = Status{State: Idle, Volume: c.status.Volume}
		return true
	case EventFailed:
		c.status.State = Errored
		c.status.Reason = ev.Reason
		return true
	}
	return false
}

func clampVolume(level int) int {
	if level < minVolume {
		return minVolume
	}
	if level > maxVolume {
		return maxVolume
	}
	return level
}
