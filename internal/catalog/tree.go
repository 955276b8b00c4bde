// Package catalog holds the in-memory browse tree for a remote music
// library. Nodes are created lazily as listings arrive from the server and
// are never removed; the tree only grows for the life of the process.
package catalog

// RootID is the synthetic parent of all artists. The root listing is
// fetched once at startup through the same load path as any other branch.
const RootID = ""

// Kind discriminates tree nodes.
type Kind int

const (
	KindArtist Kind = iota
	KindAlbum
	KindTrack
)

func (k Kind) String() string {
	switch k {
	case KindArtist:
		return "artist"
	case KindAlbum:
		return "album"
	case KindTrack:
		return "track"
	}
	return "unknown"
}

// LoadState tracks whether a branch's children have been fetched.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

// TrackMeta carries track-only metadata used by the now-playing panel.
type TrackMeta struct {
	Artist   string
	Album    string
	TrackNum int
	Duration int // seconds
}

// Node is one entry in the catalog: an artist, album, or track.
// Children is nil until the branch has been loaded; a loaded branch with no
// children keeps an empty non-nil slice so the two cases stay distinct.
type Node struct {
	ID         string
	Kind       Kind
	Name       string
	CoverArtID string
	Track      *TrackMeta
	Parent     string
	Children   []string
	State      LoadState
	FailReason string
	Expanded   bool
}

// Row is one visible line of the tree: a node and its indentation depth.
type Row struct {
	ID    string
	Depth int
}

// Tree owns all catalog nodes. It performs no I/O: expanding an unloaded
// branch reports that a fetch is needed and the caller dispatches it.
type Tree struct {
	nodes map[string]*Node
	root  Node
}

func New() *Tree {
	t := &Tree{nodes: make(map[string]*Node)}
	t.root = Node{ID: RootID, Kind: KindArtist, Expanded: true}
	return t
}

// Node returns the node with the given id, or the synthetic root for RootID.
func (t *Tree) Node(id string) (*Node, bool) {
	if id == RootID {
		return &t.root, true
	}
	n, ok := t.nodes[id]
	return n, ok
}

// ToggleExpand flips the expanded flag on an artist or album node. It
// returns true when the caller must fetch the node's children: that happens
// only on the first expansion of a NotLoaded (or previously Failed) branch,
// which is moved to Loading. Re-expanding a Loaded branch never re-fetches,
// and toggling a track is a no-op.
func (t *Tree) ToggleExpand(id string) bool {
	n, ok := t.Node(id)
	if !ok || n.Kind == KindTrack {
		return false
	}
	n.Expanded = !n.Expanded
	if n.Expanded {
		return t.BeginLoad(id)
	}
	return false
}

// BeginLoad marks a branch Loading ahead of a children fetch the caller is
// about to dispatch. Needed for the root listing, which has no expand
// gesture; expansion goes through ToggleExpand. Loaded branches and tracks
// are never re-loaded.
func (t *Tree) BeginLoad(id string) bool {
	n, ok := t.Node(id)
	if !ok || n.Kind == KindTrack {
		return false
	}
	if n.State == NotLoaded || n.State == Failed {
		n.State = Loading
		n.FailReason = ""
		return true
	}
	return false
}

// Expand ensures a node is expanded without collapsing it when it already
// is. Returns true when a children fetch is needed, same as ToggleExpand.
func (t *Tree) Expand(id string) bool {
	n, ok := t.Node(id)
	if !ok || n.Kind == KindTrack || n.Expanded {
		return false
	}
	return t.ToggleExpand(id)
}

// Collapse folds a node if it is currently expanded.
func (t *Tree) Collapse(id string) {
	n, ok := t.Node(id)
	if ok && n.Kind != KindTrack && n.Expanded {
		n.Expanded = false
	}
}

// ApplyChildrenLoaded inserts the fetched children under parentID and marks
// the branch Loaded. Children are registered in listing order; an empty
// listing still counts as Loaded.
func (t *Tree) ApplyChildrenLoaded(parentID string, children []Node) {
	p, ok := t.Node(parentID)
	if !ok {
		return
	}
	ids := make([]string, 0, len(children))
	for i := range children {
		c := children[i]
		c.Parent = parentID
		if c.Kind == KindTrack {
			// Tracks are leaves: loaded by construction, never expandable.
			c.State = Loaded
		}
		t.nodes[c.ID] = &c
		ids = append(ids, c.ID)
	}
	p.Children = ids
	p.State = Loaded
	p.FailReason = ""
}

// ApplyChildrenFailed marks the branch Failed and collapses it, so the row
// shows a failure badge instead of hanging in a loading state. Re-expanding
// the node retries the fetch.
func (t *Tree) ApplyChildrenFailed(parentID, reason string) {
	p, ok := t.Node(parentID)
	if !ok {
		return
	}
	p.State = Failed
	p.FailReason = reason
	p.Expanded = false
}

// VisibleRows walks the tree pre-order and returns the rows a renderer
// should draw: every node whose ancestors are all expanded. The slice is
// recomputed on each call.
func (t *Tree) VisibleRows() []Row {
	rows := make([]Row, 0, len(t.root.Children))
	var walk func(ids []string, depth int)
	walk = func(ids []string, depth int) {
		for _, id := range ids {
			n, ok := t.nodes[id]
			if !ok {
				continue
			}
			rows = append(rows, Row{ID: id, Depth: depth})
			if n.Expanded && len(n.Children) > 0 {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(t.root.Children, 0)
	return rows
}

// IsVisible reports whether every ancestor of id is expanded.
func (t *Tree) IsVisible(id string) bool {
	n, ok := t.Node(id)
	if !ok {
		return false
	}
	for n.Parent != RootID {
		p, ok := t.nodes[n.Parent]
		if !ok || !p.Expanded {
			return false
		}
		n = p
	}
	return true
}

// NearestVisibleAncestor returns id itself when visible, otherwise the
// closest ancestor that is. Used to relocate the cursor when a collapse
// hides the selected row.
func (t *Tree) NearestVisibleAncestor(id string) string {
	n, ok := t.Node(id)
	if !ok {
		return RootID
	}
	for !t.IsVisible(n.ID) {
		p, ok := t.nodes[n.Parent]
		if !ok {
			return n.Parent
		}
		n = p
	}
	return n.ID
}
