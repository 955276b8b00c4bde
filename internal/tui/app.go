package tui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonicfm/tonic/internal/catalog"
	"github.com/tonicfm/tonic/internal/config"
	"github.com/tonicfm/tonic/internal/fetch"
	"github.com/tonicfm/tonic/internal/player"
	"github.com/tonicfm/tonic/internal/search"
	"github.com/tonicfm/tonic/internal/tui/styles"
)

const seekStep = 5 // seconds per seek keypress

// Model is the session coordinator: the single owner of the catalog tree,
// the fetch scheduler, and the playback controller. Keyboard input, fetch
// completions, and engine events all arrive through Update, one message at
// a time, so no state here needs locking.
type Model struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    CatalogService

	tree         *catalog.Tree
	sched        *fetch.Scheduler
	ctrl         *player.Controller
	engineEvents <-chan player.Event

	rows   []catalog.Row
	cursor int

	// now-playing panel data for the current track
	playingName   string
	playingArtist string
	artID         string
	artData       []byte
	artType       string
	artFailed     bool
	lyricsFor     string
	lyrics        string
	lyricsKnown   bool
	lyricsFailed  bool

	lyricsView  viewport.Model
	filterInput textinput.Model
	filtering   bool
	filterFrom  int // cursor to restore when the filter is cancelled
	spin        spinner.Model

	status   string
	showHelp bool
	width    int
	height   int
}

// NewModel wires the coordinator. The controller must already own the
// engine whose event channel is passed here.
func NewModel(cfg *config.Config, svc CatalogService, ctrl *player.Controller, events <-chan player.Event, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Prompt = "/"
	ti.PromptStyle = styles.FilterPromptStyle
	ti.Placeholder = "find"
	ti.CharLimit = 64

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.SpinnerStyle),
	)

	return Model{
		cfg:          cfg,
		logger:       logger,
		svc:          svc,
		tree:         catalog.New(),
		sched:        fetch.NewScheduler(cfg.Fetch.MaxConcurrent),
		ctrl:         ctrl,
		engineEvents: events,
		lyricsView:   viewport.New(0, 0),
		filterInput:  ti,
		spin:         sp,
	}
}

// Init kicks off the root artist listing and starts draining engine events.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.tree.BeginLoad(catalog.RootID) {
		req := fetch.Request{TargetID: catalog.RootID, Kind: fetch.KindChildren}
		if m.sched.Submit(req) == fetch.Dispatch {
			cmds = append(cmds, m.dispatch(req))
		}
	}
	cmds = append(cmds, m.spin.Tick, ListenEngineCmd(m.engineEvents))
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.lyricsView.Width = m.panelWidth() - 4
		m.lyricsView.Height = m.lyricsHeight()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case ChildrenLoadedMsg:
		promoted := m.sched.Complete(fetch.Request{TargetID: msg.ParentID, Kind: fetch.KindChildren})
		m.tree.ApplyChildrenLoaded(msg.ParentID, msg.Nodes)
		m.refreshRows()
		m.logger.Debug("children loaded", "parent", msg.ParentID, "count", len(msg.Nodes))
		return m, m.dispatchAll(promoted)

	case ChildrenFailedMsg:
		promoted := m.sched.Complete(fetch.Request{TargetID: msg.ParentID, Kind: fetch.KindChildren})
		m.tree.ApplyChildrenFailed(msg.ParentID, msg.Err.Error())
		m.refreshRows()
		m.logger.Warn("children fetch failed", "parent", msg.ParentID, "error", msg.Err)
		m.status = "load failed: " + msg.Err.Error()
		return m, tea.Batch(m.dispatchAll(promoted), ClearStatusCmd())

	case ArtLoadedMsg:
		promoted := m.sched.Complete(fetch.Request{TargetID: msg.ArtID, Kind: fetch.KindArt})
		if msg.ArtID == m.artID {
			m.artData = msg.Data
			m.artType = msg.ContentType
			m.artFailed = false
		}
		return m, m.dispatchAll(promoted)

	case ArtFailedMsg:
		promoted := m.sched.Complete(fetch.Request{TargetID: msg.ArtID, Kind: fetch.KindArt})
		if msg.ArtID == m.artID {
			m.artFailed = true
		}
		m.logger.Warn("art fetch failed", "art", msg.ArtID, "error", msg.Err)
		return m, m.dispatchAll(promoted)

	case LyricsLoadedMsg:
		promoted := m.sched.Complete(fetch.Request{TargetID: msg.TrackID, Kind: fetch.KindLyrics})
		if msg.TrackID == m.lyricsFor {
			m.lyrics = msg.Text
			m.lyricsKnown = true
			m.lyricsFailed = false
			m.syncLyricsView()
		}
		return m, m.dispatchAll(promoted)

	case LyricsFailedMsg:
		promoted := m.sched.Complete(fetch.Request{TargetID: msg.TrackID, Kind: fetch.KindLyrics})
		if msg.TrackID == m.lyricsFor {
			m.lyricsFailed = true
			m.syncLyricsView()
		}
		m.logger.Warn("lyrics fetch failed", "track", msg.TrackID, "error", msg.Err)
		return m, m.dispatchAll(promoted)

	case EngineEventMsg:
		if m.ctrl.Apply(msg.Event) && m.ctrl.Status().State == player.Idle {
			// track ended; single-track playback parks the player
			m.playingName = ""
			m.playingArtist = ""
			m.syncLyricsView()
		}
		return m, ListenEngineCmd(m.engineEvents)

	case EngineClosedMsg:
		m.status = "audio engine stopped"
		return m, nil

	case StatusMsg:
		m.status = msg.Message
		return m, ClearStatusCmd()

	case ClearStatusMsg:
		m.status = ""
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		// outstanding fetches are abandoned, not awaited
		m.ctrl.Stop()
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, Keys.Home):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, Keys.End):
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}
		return m, nil

	case key.Matches(msg, Keys.Right):
		if n, ok := m.selectedNode(); ok && n.Kind != catalog.KindTrack && !n.Expanded {
			return m, m.toggleNode(n.ID)
		}
		return m, nil

	case key.Matches(msg, Keys.Left):
		n, ok := m.selectedNode()
		if !ok {
			return m, nil
		}
		if n.Kind != catalog.KindTrack && n.Expanded {
			return m, m.toggleNode(n.ID)
		}
		// already folded (or a track): jump to the parent row
		if n.Parent != catalog.RootID {
			m.selectByID(n.Parent)
		}
		return m, nil

	case key.Matches(msg, Keys.Enter):
		n, ok := m.selectedNode()
		if !ok {
			return m, nil
		}
		if n.Kind == catalog.KindTrack {
			return m, m.playTrack(n)
		}
		return m, m.toggleNode(n.ID)

	case key.Matches(msg, Keys.PlayPause):
		if err := m.ctrl.TogglePause(); err != nil {
			return m, m.report("pause failed: " + err.Error())
		}
		return m, nil

	case key.Matches(msg, Keys.SeekBack):
		return m, m.seek(-seekStep)

	case key.Matches(msg, Keys.SeekFwd):
		return m, m.seek(seekStep)

	case key.Matches(msg, Keys.VolDown):
		m.ctrl.AdjustVolume(-5)
		return m, nil

	case key.Matches(msg, Keys.VolUp):
		m.ctrl.AdjustVolume(5)
		return m, nil

	case key.Matches(msg, Keys.StopKey):
		if err := m.ctrl.Stop(); err != nil {
			m.logger.Warn("stop failed", "error", err)
		}
		m.playingName = ""
		m.playingArtist = ""
		m.syncLyricsView()
		return m, nil

	case key.Matches(msg, Keys.Retry):
		return m, m.retry()

	case key.Matches(msg, Keys.Filter):
		m.filtering = true
		m.filterFrom = m.cursor
		m.filterInput.Reset()
		return m, m.filterInput.Focus()
	}

	// remaining keys scroll the lyrics panel
	var cmd tea.Cmd
	m.lyricsView, cmd = m.lyricsView.Update(msg)
	return m, cmd
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.filtering = false
		m.filterInput.Blur()
		m.cursor = clamp(m.filterFrom, 0, len(m.rows)-1)
		return m, nil

	case key.Matches(msg, Keys.Enter):
		m.filtering = false
		m.filterInput.Blur()
		return m, nil

	case key.Matches(msg, Keys.Quit) && msg.String() == "ctrl+c":
		m.ctrl.Stop()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.jumpToMatch(m.filterInput.Value())
	return m, cmd
}

// toggleNode flips expansion and dispatches a children fetch when the tree
// asks for one.
func (m *Model) toggleNode(id string) tea.Cmd {
	needFetch := m.tree.ToggleExpand(id)
	m.refreshRows()
	if !needFetch {
		return nil
	}
	req := fetch.Request{TargetID: id, Kind: fetch.KindChildren}
	if m.sched.Submit(req) == fetch.Dispatch {
		return m.dispatch(req)
	}
	return nil
}

// playTrack starts playback and kicks off art and lyrics fetches for the
// panel. Art and lyrics failures never touch playback.
func (m *Model) playTrack(n *catalog.Node) tea.Cmd {
	var duration float64
	artist := ""
	if n.Track != nil {
		duration = float64(n.Track.Duration)
		artist = n.Track.Artist
	}
	if err := m.ctrl.Play(n.ID, m.svc.StreamURL(n.ID), duration); err != nil {
		m.logger.Error("play failed", "track", n.ID, "error", err)
		return m.report("playback failed: " + err.Error())
	}
	m.playingName = n.Name
	m.playingArtist = artist

	var cmds []tea.Cmd
	if n.CoverArtID != m.artID || m.artFailed {
		m.artID = n.CoverArtID
		m.artData = nil
		m.artType = ""
		m.artFailed = false
		if n.CoverArtID != "" {
			req := fetch.Request{TargetID: n.CoverArtID, Kind: fetch.KindArt}
			if m.sched.Submit(req) == fetch.Dispatch {
				cmds = append(cmds, m.dispatch(req))
			}
		}
	}
	if n.ID != m.lyricsFor {
		m.lyricsFor = n.ID
		m.lyrics = ""
		m.lyricsKnown = false
		m.lyricsFailed = false
		req := fetch.Request{TargetID: n.ID, Kind: fetch.KindLyrics}
		if m.sched.Submit(req) == fetch.Dispatch {
			cmds = append(cmds, m.dispatch(req))
		}
	}
	m.syncLyricsView()
	return tea.Batch(cmds...)
}

func (m *Model) seek(offset float64) tea.Cmd {
	if err := m.ctrl.Seek(offset); err != nil {
		return m.report("seek failed: " + err.Error())
	}
	return nil
}

// retry re-triggers whichever failure the user is looking at: a failed root
// listing, or a failed playback load.
func (m *Model) retry() tea.Cmd {
	if root, ok := m.tree.Node(catalog.RootID); ok && root.State == catalog.Failed {
		if m.tree.BeginLoad(catalog.RootID) {
			req := fetch.Request{TargetID: catalog.RootID, Kind: fetch.KindChildren}
			if m.sched.Submit(req) == fetch.Dispatch {
				return m.dispatch(req)
			}
		}
		return nil
	}
	if err := m.ctrl.Retry(); err != nil {
		return m.report("retry failed: " + err.Error())
	}
	return nil
}

// dispatch turns an admitted scheduler request into the command that
// performs it.
func (m *Model) dispatch(req fetch.Request) tea.Cmd {
	switch req.Kind {
	case fetch.KindChildren:
		kind := catalog.KindArtist
		if n, ok := m.tree.Node(req.TargetID); ok {
			kind = n.Kind
		}
		return LoadChildrenCmd(m.svc, req.TargetID, kind)
	case fetch.KindArt:
		return LoadArtCmd(m.svc, req.TargetID, m.cfg.UI.ArtSize)
	case fetch.KindLyrics:
		artist, title := "", ""
		if n, ok := m.tree.Node(req.TargetID); ok {
			title = n.Name
			if n.Track != nil {
				artist = n.Track.Artist
			}
		}
		return LoadLyricsCmd(m.svc, req.TargetID, artist, title)
	}
	return nil
}

func (m *Model) dispatchAll(reqs []fetch.Request) tea.Cmd {
	if len(reqs) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(reqs))
	for _, req := range reqs {
		if cmd := m.dispatch(req); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// refreshRows recomputes the visible rows after any tree mutation and keeps
// the cursor on the selected node, or on its nearest visible ancestor when a
// collapse hid it.
func (m *Model) refreshRows() {
	var selID string
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		selID = m.rows[m.cursor].ID
	}
	m.rows = m.tree.VisibleRows()
	if selID != "" {
		if !m.tree.IsVisible(selID) {
			selID = m.tree.NearestVisibleAncestor(selID)
		}
		for i, r := range m.rows {
			if r.ID == selID {
				m.cursor = i
				return
			}
		}
	}
	m.cursor = clamp(m.cursor, 0, len(m.rows)-1)
}

func (m *Model) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, len(m.rows)-1)
}

func (m *Model) selectByID(id string) {
	for i, r := range m.rows {
		if r.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *Model) selectedNode() (*catalog.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil, false
	}
	return m.tree.Node(m.rows[m.cursor].ID)
}

// jumpToMatch moves the cursor to the best fuzzy match among visible rows.
func (m *Model) jumpToMatch(query string) {
	if strings.TrimSpace(query) == "" {
		return
	}
	entries := make([]search.Entry, 0, len(m.rows))
	for _, r := range m.rows {
		if n, ok := m.tree.Node(r.ID); ok {
			entries = append(entries, search.Entry{ID: r.ID, Name: n.Name})
		}
	}
	candidates := search.Filter(query, entries)
	if len(candidates) == 0 {
		return
	}
	target := candidates[0].ID
	if ranked := search.Rank(query, candidates); len(ranked) > 0 {
		target = ranked[0].ID
	}
	m.selectByID(target)
}

func (m *Model) report(message string) tea.Cmd {
	m.status = message
	return ClearStatusCmd()
}

// syncLyricsView pushes the projector's lyrics lines into the scrollable
// viewport. Called whenever the lyrics content can change.
func (m *Model) syncLyricsView() {
	m.lyricsView.SetContent(strings.Join(lyricsLines(m.viewState()), "\n"))
	m.lyricsView.GotoTop()
}

// viewState snapshots everything the render projector reads.
func (m Model) viewState() ViewState {
	return ViewState{
		Tree:           m.tree,
		Rows:           m.rows,
		Cursor:         m.cursor,
		Playback:       m.ctrl.Status(),
		TrackName:      m.playingName,
		TrackArtist:    m.playingArtist,
		Lyrics:         m.lyrics,
		LyricsKnown:    m.lyricsKnown,
		LyricsFailed:   m.lyricsFailed,
		ArtPresent:     len(m.artData) > 0,
		ArtContentType: m.artType,
		ArtSize:        len(m.artData),
		ArtFailed:      m.artFailed,
		Status:         m.status,
		Filtering:      m.filtering,
		FilterQuery:    m.filterInput.Value(),
		ShowHelp:       m.showHelp,
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
