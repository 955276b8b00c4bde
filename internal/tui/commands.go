package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonicfm/tonic/internal/catalog"
	"github.com/tonicfm/tonic/internal/player"
)

const (
	fetchTimeout   = 30 * time.Second
	statusDuration = 4 * time.Second
)

// CatalogService is the backend surface the coordinator fetches from.
// *subsonic.Client satisfies it; tests substitute fakes.
type CatalogService interface {
	ListChildren(ctx context.Context, id string, kind catalog.Kind) ([]catalog.Node, error)
	GetCoverArt(ctx context.Context, id string, size int) ([]byte, string, error)
	GetLyrics(ctx context.Context, artist, title string) (string, error)
	StreamURL(trackID string) string
}

// LoadChildrenCmd fetches the children of a branch node.
func LoadChildrenCmd(svc CatalogService, id string, kind catalog.Kind) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		nodes, err := svc.ListChildren(ctx, id, kind)
		if err != nil {
			return ChildrenFailedMsg{ParentID: id, Err: err}
		}
		return ChildrenLoadedMsg{ParentID: id, Nodes: nodes}
	}
}

// LoadArtCmd fetches cover art bytes by art id.
func LoadArtCmd(svc CatalogService, artID string, size int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		data, contentType, err := svc.GetCoverArt(ctx, artID, size)
		if err != nil {
			return ArtFailedMsg{ArtID: artID, Err: err}
		}
		return ArtLoadedMsg{ArtID: artID, Data: data, ContentType: contentType}
	}
}

// LoadLyricsCmd fetches lyrics for a track by artist and title.
func LoadLyricsCmd(svc CatalogService, trackID, artist, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		text, err := svc.GetLyrics(ctx, artist, title)
		if err != nil {
			return LyricsFailedMsg{TrackID: trackID, Err: err}
		}
		return LyricsLoadedMsg{TrackID: trackID, Text: text}
	}
}

// ListenEngineCmd waits for the next engine event. The handler re-arms it
// after every received event so the channel keeps feeding the message loop.
func ListenEngineCmd(events <-chan player.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EngineClosedMsg{}
		}
		return EngineEventMsg{Event: ev}
	}
}

// ClearStatusCmd clears the status line after a delay.
func ClearStatusCmd() tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
