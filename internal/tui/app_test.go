package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonicfm/tonic/internal/catalog"
	"github.com/tonicfm/tonic/internal/config"
	"github.com/tonicfm/tonic/internal/fetch"
	"github.com/tonicfm/tonic/internal/player"
)

func childrenReq(id string) fetch.Request {
	return fetch.Request{TargetID: id, Kind: fetch.KindChildren}
}

// stubService satisfies CatalogService without any I/O; the tests feed
// completion messages into Update directly.
type stubService struct{}

func (stubService) ListChildren(context.Context, string, catalog.Kind) ([]catalog.Node, error) {
	return nil, errors.New("not used in tests")
}
func (stubService) GetCoverArt(context.Context, string, int) ([]byte, string, error) {
	return nil, "", errors.New("not used in tests")
}
func (stubService) GetLyrics(context.Context, string, string) (string, error) {
	return "", errors.New("not used in tests")
}
func (stubService) StreamURL(trackID string) string {
	return "http://srv/rest/stream?id=" + trackID
}

// stubEngine accepts every command and emits nothing on its own.
type stubEngine struct {
	gen    uint64
	events chan player.Event
}

func newStubEngine() *stubEngine {
	return &stubEngine{events: make(chan player.Event, 8)}
}

func (e *stubEngine) Load(string) (uint64, error) { e.gen++; return e.gen, nil }
func (e *stubEngine) Play() error                 { return nil }
func (e *stubEngine) Pause() error                { return nil }
func (e *stubEngine) Seek(float64) error          { return nil }
func (e *stubEngine) SetVolume(int) error         { return nil }
func (e *stubEngine) Stop() error                 { return nil }
func (e *stubEngine) Events() <-chan player.Event { return e.events }
func (e *stubEngine) Close() error                { return nil }

func newTestModel(t *testing.T) (Model, *stubEngine) {
	t.Helper()
	eng := newStubEngine()
	ctrl := player.NewController(eng, 80, nil)
	m := NewModel(config.DefaultConfig(), stubService{}, ctrl, eng.Events(), nil)
	m.Init()
	return m, eng
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadedModel builds a coordinator with one artist, one album, one track
// fully loaded and the cursor on the track row.
func loadedModel(t *testing.T) (Model, *stubEngine) {
	m, eng := newTestModel(t)
	m = update(t, m, ChildrenLoadedMsg{ParentID: catalog.RootID, Nodes: []catalog.Node{
		{ID: "a1", Kind: catalog.KindArtist, Name: "Boards of Canada"},
	}})
	m = update(t, m, keyMsg("l")) // expand artist
	m = update(t, m, ChildrenLoadedMsg{ParentID: "a1", Nodes: []catalog.Node{
		{ID: "al1", Kind: catalog.KindAlbum, Name: "Geogaddi", CoverArtID: "c1"},
	}})
	m = update(t, m, keyMsg("j"))
	m = update(t, m, keyMsg("l")) // expand album
	m = update(t, m, ChildrenLoadedMsg{ParentID: "al1", Nodes: []catalog.Node{
		{ID: "t1", Kind: catalog.KindTrack, Name: "Music Is Math", CoverArtID: "c1",
			Track: &catalog.TrackMeta{Artist: "Boards of Canada", Duration: 315}},
	}})
	m = update(t, m, keyMsg("j"))
	return m, eng
}

func TestRootListingPopulatesRows(t *testing.T) {
	m, _ := newTestModel(t)

	root, _ := m.tree.Node(catalog.RootID)
	if root.State != catalog.Loading {
		t.Fatalf("root state after Init = %v, want Loading", root.State)
	}
	if !m.sched.Pending(childrenReq(catalog.RootID)) {
		t.Fatal("root children fetch not registered with the scheduler")
	}

	m = update(t, m, ChildrenLoadedMsg{ParentID: catalog.RootID, Nodes: []catalog.Node{
		{ID: "a1", Kind: catalog.KindArtist, Name: "Tycho"},
		{ID: "a2", Kind: catalog.KindArtist, Name: "Tortoise"},
	}})

	if len(m.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.rows))
	}
	if m.sched.Pending(childrenReq(catalog.RootID)) {
		t.Error("root fetch still pending after completion")
	}
}

func TestExpandDispatchesSingleFetch(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, ChildrenLoadedMsg{ParentID: catalog.RootID, Nodes: []catalog.Node{
		{ID: "a1", Kind: catalog.KindArtist, Name: "Tycho"},
	}})

	m = update(t, m, keyMsg("l"))
	if !m.sched.Pending(childrenReq("a1")) {
		t.Fatal("expand did not register a children fetch")
	}

	// Collapse and re-expand while the fetch is in flight: the branch stays
	// Loading and no duplicate is registered.
	m = update(t, m, keyMsg("h"))
	m = update(t, m, keyMsg("l"))
	if m.sched.Outstanding() != 1 {
		t.Errorf("outstanding = %d, want 1", m.sched.Outstanding())
	}
}

func TestCollapseRelocatesCursorToAncestor(t *testing.T) {
	m, _ := loadedModel(t)

	if n, _ := m.selectedNode(); n.ID != "t1" {
		t.Fatalf("cursor on %s, want t1", n.ID)
	}

	// Collapse the artist from the track row: selection may not point at a
	// hidden node, so it relocates to the collapsed ancestor.
	m.tree.Collapse("a1")
	m.refreshRows()

	n, ok := m.selectedNode()
	if !ok || n.ID != "a1" {
		t.Errorf("cursor on %v, want a1", n)
	}
}

func TestEnterOnTrackStartsPlayback(t *testing.T) {
	m, eng := loadedModel(t)
	m = update(t, m, keyMsg("enter"))

	st := m.ctrl.Status()
	if st.State != player.Loading || st.TrackID != "t1" {
		t.Fatalf("playback = %+v, want Loading t1", st)
	}
	if !m.sched.Pending(fetch.Request{TargetID: "c1", Kind: fetch.KindArt}) {
		t.Error("cover art fetch not scheduled")
	}
	if !m.sched.Pending(fetch.Request{TargetID: "t1", Kind: fetch.KindLyrics}) {
		t.Error("lyrics fetch not scheduled")
	}

	m = update(t, m, EngineEventMsg{Event: player.Event{Gen: eng.gen, Kind: player.EventLoadOK, Duration: 315}})
	if st := m.ctrl.Status(); st.State != player.Playing {
		t.Errorf("playback = %+v, want Playing after load_ok", st)
	}
}

func TestArtFailureLeavesPlaybackUntouched(t *testing.T) {
	m, eng := loadedModel(t)
	m = update(t, m, keyMsg("enter"))
	m = update(t, m, EngineEventMsg{Event: player.Event{Gen: eng.gen, Kind: player.EventLoadOK, Duration: 315}})

	m = update(t, m, ArtFailedMsg{ArtID: "c1", Err: errors.New("404")})

	if st := m.ctrl.Status(); st.State != player.Playing || st.TrackID != "t1" {
		t.Errorf("playback = %+v, want Playing t1 despite art failure", st)
	}
	frame := Project(m.viewState())
	if frame.ArtLabel != "no cover art" {
		t.Errorf("art label = %q, want placeholder", frame.ArtLabel)
	}
}

func TestChildrenFailureMarksBranchAndReports(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, ChildrenLoadedMsg{ParentID: catalog.RootID, Nodes: []catalog.Node{
		{ID: "a1", Kind: catalog.KindArtist, Name: "Tycho"},
	}})
	m = update(t, m, keyMsg("l"))
	m = update(t, m, ChildrenFailedMsg{ParentID: "a1", Err: errors.New("server error 500")})

	n, _ := m.tree.Node("a1")
	if n.State != catalog.Failed || n.Expanded {
		t.Errorf("node = %+v, want Failed and collapsed", n)
	}
	if m.status == "" {
		t.Error("failure not surfaced in the status line")
	}
	if m.sched.Pending(childrenReq("a1")) {
		t.Error("failed fetch still pending")
	}
}

func TestStaleEngineEventIgnoredAcrossTrackSwitch(t *testing.T) {
	m, eng := loadedModel(t)
	m = update(t, m, keyMsg("enter"))
	staleGen := eng.gen

	// Switch to another album/track before the first load resolves.
	m = update(t, m, ChildrenLoadedMsg{ParentID: "al1", Nodes: []catalog.Node{
		{ID: "t1", Kind: catalog.KindTrack, Name: "Music Is Math",
			Track: &catalog.TrackMeta{Artist: "Boards of Canada", Duration: 315}},
		{ID: "t2", Kind: catalog.KindTrack, Name: "Gyroscope",
			Track: &catalog.TrackMeta{Artist: "Boards of Canada", Duration: 214}},
	}})
	m.selectByID("t2")
	m = update(t, m, keyMsg("enter"))

	m = update(t, m, EngineEventMsg{Event: player.Event{Gen: staleGen, Kind: player.EventLoadOK}})
	if st := m.ctrl.Status(); st.State != player.Loading || st.TrackID != "t2" {
		t.Fatalf("playback = %+v, want still Loading t2", st)
	}

	m = update(t, m, EngineEventMsg{Event: player.Event{Gen: eng.gen, Kind: player.EventLoadOK, Duration: 214}})
	if st := m.ctrl.Status(); st.State != player.Playing || st.TrackID != "t2" {
		t.Errorf("playback = %+v, want Playing t2", st)
	}
}

func TestFilterJumpsToMatch(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, ChildrenLoadedMsg{ParentID: catalog.RootID, Nodes: []catalog.Node{
		{ID: "a1", Kind: catalog.KindArtist, Name: "Boards of Canada"},
		{ID: "a2", Kind: catalog.KindArtist, Name: "Tortoise"},
		{ID: "a3", Kind: catalog.KindArtist, Name: "Tycho"},
	}})

	m = update(t, m, keyMsg("/"))
	if !m.filtering {
		t.Fatal("filter mode not entered")
	}
	for _, r := range "tort" {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if n, _ := m.selectedNode(); n == nil || n.ID != "a2" {
		t.Errorf("cursor not on Tortoise after filter")
	}

	m = update(t, m, keyMsg("enter"))
	if m.filtering {
		t.Error("enter did not leave filter mode")
	}
	if n, _ := m.selectedNode(); n.ID != "a2" {
		t.Error("enter did not keep the match selected")
	}
}

func TestTrackEndedClearsPanel(t *testing.T) {
	m, eng := loadedModel(t)
	m = update(t, m, keyMsg("enter"))
	m = update(t, m, EngineEventMsg{Event: player.Event{Gen: eng.gen, Kind: player.EventLoadOK, Duration: 315}})
	m = update(t, m, EngineEventMsg{Event: player.Event{Gen: eng.gen, Kind: player.EventEnded}})

	if st := m.ctrl.Status(); st.State != player.Idle {
		t.Fatalf("playback = %+v, want Idle", st)
	}
	frame := Project(m.viewState())
	if frame.NowPlaying != "nothing playing" {
		t.Errorf("now playing = %q after track end", frame.NowPlaying)
	}
}
