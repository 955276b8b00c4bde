package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tonicfm/tonic/internal/catalog"
	"github.com/tonicfm/tonic/internal/tui/styles"
)

const minPanelWidth = 30

func (m Model) treeWidth() int {
	w := m.width * 55 / 100
	if m.width-w < minPanelWidth {
		w = m.width - minPanelWidth
	}
	if w < 20 {
		w = m.width
	}
	return w
}

func (m Model) panelWidth() int {
	return m.width - m.treeWidth()
}

// contentHeight is the vertical budget for the two panes (footer excluded).
func (m Model) contentHeight() int {
	h := m.height - 2
	if h < 3 {
		h = 3
	}
	return h
}

// lyricsHeight is the viewport budget inside the now-playing panel: panel
// height minus borders, title, art block, gauge, and status line.
func (m Model) lyricsHeight() int {
	h := m.contentHeight() - 10
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) View() string {
	if m.width == 0 {
		return "starting..."
	}
	frame := Project(m.viewState())

	left := m.renderTree(frame)
	right := m.renderPanel(frame)
	footer := m.renderFooter(frame)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		footer,
	)
}

// renderTree draws the catalog pane, windowed around the cursor.
func (m Model) renderTree(frame Frame) string {
	width := m.treeWidth()
	height := m.contentHeight()
	inner := height - 2 // border

	var lines []string
	if len(frame.Rows) == 0 {
		lines = append(lines, m.emptyTreeLine())
	} else {
		start := 0
		if frame.Cursor >= inner {
			start = frame.Cursor - inner + 1
		}
		end := start + inner
		if end > len(frame.Rows) {
			end = len(frame.Rows)
		}
		for _, row := range frame.Rows[start:end] {
			text := styles.Truncate(row.Text, width-4)
			switch {
			case row.Selected:
				text = styles.SelectedItemStyle.Render(text)
			case row.Failed:
				text = styles.ErrorStyle.Render(text)
			case row.Playing:
				text = styles.AccentStyle.Render(text)
			default:
				text = styles.NormalItemStyle.Render(text)
			}
			lines = append(lines, text)
		}
	}

	border := styles.ActiveBorder
	if m.filtering {
		border = styles.InactiveBorder
	}
	return border.
		Width(width - 2).
		Height(inner).
		Render(strings.Join(lines, "\n"))
}

func (m Model) emptyTreeLine() string {
	root, _ := m.tree.Node(catalog.RootID)
	switch root.State {
	case catalog.Loading:
		return m.spin.View() + " loading library..."
	case catalog.Failed:
		return styles.ErrorStyle.Render("library load failed: "+root.FailReason) +
			styles.DimStyle.Render("  (r to retry)")
	default:
		return styles.DimStyle.Render("library is empty")
	}
}

// renderPanel draws the now-playing side: track line, art block, lyrics
// viewport, gauge, and playback status.
func (m Model) renderPanel(frame Frame) string {
	width := m.panelWidth()
	if width <= 0 {
		return ""
	}
	inner := width - 4

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(frame.NowPlaying, inner)))
	b.WriteString("\n\n")
	b.WriteString(m.renderArt(frame, inner))
	b.WriteString("\n")
	b.WriteString(m.lyricsView.View())
	b.WriteString("\n")
	b.WriteString(styles.AccentStyle.Render(frame.Gauge))
	b.WriteString("\n")
	b.WriteString(styles.RenderProgressBar(frame.GaugeRatio, inner))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(frame.StatusLine))

	return styles.InactiveBorder.
		Width(inner + 2).
		Height(m.contentHeight() - 2).
		Render(b.String())
}

// renderArt draws a labelled block standing in for the cover image; the
// terminal renderer has no pixel surface, so the frame only carries the
// art's format and size.
func (m Model) renderArt(frame Frame, width int) string {
	label := frame.ArtLabel
	if label == "" {
		label = "· · ·"
	}
	return styles.DimStyle.
		Width(width).
		Align(lipgloss.Center).
		Render("[ " + label + " ]")
}

func (m Model) renderFooter(frame Frame) string {
	if frame.Filtering {
		return m.filterInput.View()
	}
	if frame.Status != "" {
		return styles.ErrorStyle.Render(frame.Status)
	}
	if frame.ShowHelp {
		return m.renderHelp()
	}
	return styles.DimStyle.Render("?: help  /: find  enter: expand/play  space: pause  q: quit")
}

func (m Model) renderHelp() string {
	bindings := [][2]string{
		{"j/k", "move"},
		{"h/l", "collapse/expand"},
		{"enter", "expand or play"},
		{"space", "play/pause"},
		{",/.", "seek"},
		{"-/=", "volume"},
		{"s", "stop"},
		{"r", "retry"},
		{"/", "find"},
		{"q", "quit"},
	}
	parts := make([]string, 0, len(bindings))
	for _, kv := range bindings {
		parts = append(parts, styles.HelpKeyStyle.Render(kv[0])+" "+styles.HelpDescStyle.Render(kv[1]))
	}
	return strings.Join(parts, "  ")
}
