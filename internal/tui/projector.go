package tui

import (
	"fmt"
	"strings"

	"github.com/tonicfm/tonic/internal/catalog"
	"github.com/tonicfm/tonic/internal/player"
)

// ViewState is everything the projector reads. It is assembled by the
// coordinator once per processed message.
type ViewState struct {
	Tree     *catalog.Tree
	Rows     []catalog.Row
	Cursor   int
	Playback player.Status
	// TrackName/TrackArtist describe the playing track for the panel.
	TrackName   string
	TrackArtist string

	Lyrics       string
	LyricsKnown  bool // a lyrics fetch for the playing track finished
	LyricsFailed bool

	ArtPresent     bool
	ArtContentType string
	ArtSize        int
	ArtFailed      bool

	Status      string
	Filtering   bool
	FilterQuery string
	ShowHelp    bool
}

// FrameRow is one rendered tree line, unstyled.
type FrameRow struct {
	Text     string
	Selected bool
	Failed   bool
	Playing  bool
}

// Frame is the immutable description of what to draw. Building it has no
// side effects: the same ViewState always produces the same Frame.
type Frame struct {
	Rows   []FrameRow
	Cursor int

	NowPlaying string
	StatusLine string
	Gauge      string
	GaugeRatio float64
	Lyrics     []string
	ArtLabel   string

	Status      string
	Filtering   bool
	FilterQuery string
	ShowHelp    bool
}

const lyricsMaxLines = 64

// Project maps application state to a Frame.
func Project(vs ViewState) Frame {
	f := Frame{
		Cursor:      vs.Cursor,
		Status:      vs.Status,
		Filtering:   vs.Filtering,
		FilterQuery: vs.FilterQuery,
		ShowHelp:    vs.ShowHelp,
	}

	f.Rows = make([]FrameRow, 0, len(vs.Rows))
	for i, row := range vs.Rows {
		node, ok := vs.Tree.Node(row.ID)
		if !ok {
			continue
		}
		f.Rows = append(f.Rows, FrameRow{
			Text:     rowText(node, row.Depth),
			Selected: i == vs.Cursor,
			Failed:   node.State == catalog.Failed,
			Playing:  playingHere(vs.Playback, node.ID),
		})
	}

	f.NowPlaying = nowPlayingLine(vs)
	f.StatusLine = statusLine(vs.Playback)
	f.Gauge, f.GaugeRatio = gauge(vs.Playback)
	f.Lyrics = lyricsLines(vs)
	f.ArtLabel = artLabel(vs)
	return f
}

func rowText(n *catalog.Node, depth int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	switch {
	case n.Kind == catalog.KindTrack:
		b.WriteString("♪ ")
	case n.Expanded:
		b.WriteString("▾ ")
	default:
		b.WriteString("▸ ")
	}
	if n.Kind == catalog.KindTrack && n.Track != nil && n.Track.TrackNum > 0 {
		fmt.Fprintf(&b, "%2d. ", n.Track.TrackNum)
	}
	b.WriteString(n.Name)
	switch n.State {
	case catalog.Loading:
		b.WriteString(" (loading)")
	case catalog.Failed:
		b.WriteString(" [failed]")
	}
	if n.Kind == catalog.KindTrack && n.Track != nil && n.Track.Duration > 0 {
		b.WriteString("  " + formatTime(float64(n.Track.Duration)))
	}
	return b.String()
}

func playingHere(st player.Status, nodeID string) bool {
	if st.TrackID != nodeID {
		return false
	}
	return st.State == player.Playing || st.State == player.Paused || st.State == player.Loading
}

func nowPlayingLine(vs ViewState) string {
	if vs.Playback.State == player.Idle || vs.TrackName == "" {
		return "nothing playing"
	}
	if vs.TrackArtist != "" {
		return vs.TrackArtist + " - " + vs.TrackName
	}
	return vs.TrackName
}

func statusLine(st player.Status) string {
	var state string
	switch st.State {
	case player.Idle:
		state = "stopped"
	case player.Loading:
		state = "loading..."
	case player.Playing:
		state = "playing"
	case player.Paused:
		state = "paused"
	case player.Errored:
		state = "error: " + st.Reason
	}
	return fmt.Sprintf("%s  vol %d%%", state, st.Volume)
}

func gauge(st player.Status) (string, float64) {
	if st.State != player.Playing && st.State != player.Paused {
		return "--:-- / --:--", 0
	}
	text := formatTime(st.Position) + " / " + formatTime(st.Duration)
	if st.Duration <= 0 {
		return text, 0
	}
	ratio := st.Position / st.Duration
	if ratio > 1 {
		ratio = 1
	}
	return text, ratio
}

func lyricsLines(vs ViewState) []string {
	switch {
	case vs.Playback.State == player.Idle:
		return nil
	case vs.LyricsFailed:
		return []string{"lyrics unavailable"}
	case !vs.LyricsKnown:
		return []string{"fetching lyrics..."}
	case strings.TrimSpace(vs.Lyrics) == "":
		return []string{"no lyrics for this track"}
	}
	lines := strings.Split(strings.ReplaceAll(vs.Lyrics, "\r\n", "\n"), "\n")
	if len(lines) > lyricsMaxLines {
		lines = lines[:lyricsMaxLines]
	}
	return lines
}

func artLabel(vs ViewState) string {
	switch {
	case vs.ArtPresent:
		return fmt.Sprintf("%s, %.1f KB", vs.ArtContentType, float64(vs.ArtSize)/1024)
	case vs.ArtFailed:
		return "no cover art"
	default:
		return ""
	}
}

// formatTime renders seconds as M:SS, or H:MM:SS past the hour.
func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
