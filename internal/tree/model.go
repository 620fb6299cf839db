// Package tree maintains the working-tree model: a path-keyed folder/file
// tree synchronized from parsed status entries. Every mutation is reported
// with the node's pre-order position so a consumer can splice a flat list
// instead of re-rendering it.
package tree

import (
	"path"
	"strings"
	"sync"

	"github.com/untillpro/goutils/logger"

	"github.com/Akashdeep-Patra/gitsync/internal/event"
	"github.com/Akashdeep-Patra/gitsync/internal/git"
)

// Model owns the tree. It is mutated only by Sync, Reset and SetExpanded;
// readers get snapshots.
//
// Each mutation bumps the revision and stamps it on its event as Seq.
// Events reach the bus in revision order: a mutation holds emitMu until
// its events are delivered, so bus handlers must not mutate the model.
type Model struct {
	bus *event.Bus

	emitMu sync.Mutex

	mu     sync.RWMutex
	root   *node
	nodes  map[string]*node
	nextID uint64
	rev    uint64
	bulk   bool

	pending []event.Event
}

// New returns an empty model that emits on bus. A nil bus gets a private one.
func New(bus *event.Bus) *Model {
	if bus == nil {
		bus = event.NewBus()
	}
	m := &Model{bus: bus}
	m.clear()
	return m
}

// Bus returns the bus the model emits on.
func (m *Model) Bus() *event.Bus { return m.bus }

func (m *Model) clear() {
	m.root = &node{kind: KindFolder, expanded: true, size: 1}
	m.nodes = map[string]*node{"": m.root}
}

// Reset drops every node but the root and enters bulk mode: item events
// are suppressed until the next Sync completes and emits Rebuilt.
func (m *Model) Reset() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	m.clear()
	m.bulk = true
	seq := m.bump()
	m.mu.Unlock()

	m.bus.Emit(Reset{Seq: seq})
}

// Rebuilding reports whether the model is in bulk mode.
func (m *Model) Rebuilding() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bulk
}

// Sync makes the tree match entries. With a nil scope every file absent
// from entries is removed; otherwise only files equal to, or nested under,
// a scope path are eligible for removal; a scope naming the root itself
// counts as full. Entries outside the root or conflicting with an existing
// node of the other kind are ignored.
func (m *Model) Sync(entries []git.StatusEntry, scope []string) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()

	keep := make(map[string]bool, len(entries))
	for _, e := range entries {
		p, ok := normalize(e.Path)
		if !ok {
			logger.Verbose("tree: ignoring path outside root:", e.Path)
			continue
		}
		if m.upsert(p, e.Flags) {
			keep[p] = true
		}
	}

	full := scope == nil
	var prefixes []string
	for _, s := range scope {
		if isRoot(s) {
			full = true
			break
		}
		if p, ok := normalize(s); ok {
			prefixes = append(prefixes, p)
		}
	}

	var stale []*node
	m.root.walk(func(n *node) {
		if n.kind != KindFile || keep[n.path] {
			return
		}
		if full || inScope(n.path, prefixes) {
			stale = append(stale, n)
		}
	})
	for _, n := range stale {
		m.remove(n)
	}

	rebuilt := m.bulk
	m.bulk = false
	pending := m.pending
	m.pending = nil
	seq := m.rev
	m.mu.Unlock()

	for _, e := range pending {
		m.bus.Emit(e)
	}
	if rebuilt {
		m.bus.Emit(Rebuilt{Seq: seq})
	}
}

// SetExpanded changes the expansion of the folder at p.
func (m *Model) SetExpanded(p string, expanded bool) bool {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	n, ok := m.nodes[p]
	if !ok || n == m.root || n.kind != KindFolder {
		m.mu.Unlock()
		return false
	}
	if n.expanded != expanded {
		n.expanded = expanded
		m.record(Updated{Node: n.snapshot(), Index: n.index(), Seq: m.bump()})
	}
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, e := range pending {
		m.bus.Emit(e)
	}
	return true
}

// Len returns the number of nodes, the root excluded.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root.size - 1
}

// Node returns the snapshot of the node at p.
func (m *Model) Node(p string) (Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[p]
	if !ok || n == m.root {
		return Node{}, false
	}
	return n.snapshot(), true
}

// Index returns the pre-order position of the node at p.
func (m *Model) Index(p string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[p]
	if !ok || n == m.root {
		return 0, false
	}
	return n.index(), true
}

// At returns the node at pre-order position idx.
func (m *Model) At(idx int) (Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx < 0 || idx >= m.root.size-1 {
		return Node{}, false
	}
	return m.root.at(idx).snapshot(), true
}

// Snapshots returns every node in pre-order.
func (m *Model) Snapshots() []Node {
	nodes, _ := m.SnapshotsAt()
	return nodes
}

// SnapshotsAt returns every node in pre-order and the revision they
// reflect. Events with a Seq at or below that revision are already applied.
func (m *Model) SnapshotsAt() ([]Node, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Node, 0, m.root.size-1)
	m.root.walk(func(n *node) { out = append(out, n.snapshot()) })
	return out, m.rev
}

// Revision returns the number of mutations applied so far.
func (m *Model) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rev
}

// Files returns every file node in pre-order.
func (m *Model) Files() []Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Node
	m.root.walk(func(n *node) {
		if n.kind == KindFile {
			out = append(out, n.snapshot())
		}
	})
	return out
}

// upsert inserts or updates the file at p. It reports whether p is now a
// file in the tree.
func (m *Model) upsert(p string, flags git.Flags) bool {
	if n, ok := m.nodes[p]; ok {
		if n.kind != KindFile {
			logger.Verbose("tree: ignoring file entry for folder:", p)
			return false
		}
		n.flags = flags
		m.record(Updated{Node: n.snapshot(), Index: n.index(), Seq: m.bump()})
		return true
	}

	// Check the ancestor chain before creating anything.
	dir := path.Dir(p)
	for d := dir; d != "."; d = path.Dir(d) {
		if n, ok := m.nodes[d]; ok {
			if n.kind != KindFolder {
				logger.Verbose("tree: ignoring entry below file:", p)
				return false
			}
			break
		}
	}

	parent := m.ensureFolder(dir)
	m.insert(parent, &node{kind: KindFile, path: p, name: path.Base(p), flags: flags, size: 1})
	return true
}

// ensureFolder returns the folder at dir, creating missing ancestors.
func (m *Model) ensureFolder(dir string) *node {
	if dir == "." || dir == "" {
		return m.root
	}
	if n, ok := m.nodes[dir]; ok {
		return n
	}
	parent := m.ensureFolder(path.Dir(dir))
	f := &node{kind: KindFolder, path: dir, name: path.Base(dir), expanded: true, size: 1}
	m.insert(parent, f)
	return f
}

func (m *Model) insert(parent, n *node) {
	m.nextID++
	n.id = m.nextID
	parent.addChild(n)
	m.nodes[n.path] = n
	m.record(Added{Node: n.snapshot(), Index: n.index(), Seq: m.bump()})
}

// remove deletes the file n and then every ancestor folder left empty.
func (m *Model) remove(n *node) {
	for n != nil && n != m.root {
		parent := n.parent
		m.record(Removed{Node: n.snapshot(), Index: n.index(), Seq: m.bump()})
		parent.removeChild(n)
		delete(m.nodes, n.path)
		if len(parent.children) > 0 {
			return
		}
		n = parent
	}
}

func (m *Model) bump() uint64 {
	m.rev++
	return m.rev
}

func (m *Model) record(e event.Event) {
	if m.bulk {
		return
	}
	m.pending = append(m.pending, e)
}

// normalize turns a status path into a tree key. Paths that escape the
// root are rejected.
func normalize(p string) (string, bool) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", false
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}

// isRoot reports whether a scope path names the repository root.
func isRoot(p string) bool {
	p = strings.TrimPrefix(p, "/")
	return p == "" || path.Clean(p) == "."
}

func inScope(p string, prefixes []string) bool {
	for _, s := range prefixes {
		if p == s || strings.HasPrefix(p, s+"/") {
			return true
		}
	}
	return false
}
