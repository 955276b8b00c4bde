package tui

import (
	"github.com/tonicfm/tonic/internal/catalog"
	"github.com/tonicfm/tonic/internal/player"
)

// ChildrenLoadedMsg carries a finished children listing for a branch.
type ChildrenLoadedMsg struct {
	ParentID string
	Nodes    []catalog.Node
}

// ChildrenFailedMsg reports a failed children listing.
type ChildrenFailedMsg struct {
	ParentID string
	Err      error
}

// ArtLoadedMsg carries fetched cover art bytes. ArtID is the server-side
// cover art identifier, not a node id.
type ArtLoadedMsg struct {
	ArtID       string
	Data        []byte
	ContentType string
}

// ArtFailedMsg reports a failed cover art fetch.
type ArtFailedMsg struct {
	ArtID string
	Err   error
}

// LyricsLoadedMsg carries fetched lyrics for a track.
type LyricsLoadedMsg struct {
	TrackID string
	Text    string
}

// LyricsFailedMsg reports a failed lyrics fetch.
type LyricsFailedMsg struct {
	TrackID string
	Err     error
}

// EngineEventMsg wraps one audio engine event into the message stream.
type EngineEventMsg struct {
	Event player.Event
}

// EngineClosedMsg signals that the engine event channel was closed.
type EngineClosedMsg struct{}

// StatusMsg sets a transient status line message.
type StatusMsg struct {
	Message string
}

// ClearStatusMsg clears the status line.
type ClearStatusMsg struct{}
