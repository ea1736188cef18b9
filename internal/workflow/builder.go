package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Builder assembles a Definition incrementally and validates it before it
// can run. Construction mistakes (duplicate nodes, dangling edges,
// unreachable nodes) are reported by Build rather than silently dropped.
// Methods are chainable; the first error wins and later calls become no-ops.
type Builder[S any] struct {
	def *Definition[S]
	err error
}

// NewBuilder starts an empty graph definition.
func NewBuilder[S any](id, name string) *Builder[S] {
	return &Builder[S]{
		def: &Definition[S]{
			id:       strings.TrimSpace(id),
			name:     strings.TrimSpace(name),
			nodes:    make(map[string]Node[S]),
			outgoing: make(map[string][]Edge[S]),
			exits:    make(map[string]struct{}),
		},
	}
}

// AddNode registers a node. Fails if the ID is empty, already present, or
// the handler is nil.
func (b *Builder[S]) AddNode(node Node[S]) *Builder[S] {
	if b.err != nil {
		return b
	}
	node.ID = strings.TrimSpace(node.ID)
	switch {
	case node.ID == "":
		b.err = errors.New("workflow builder: node id is empty")
	case node.Handler == nil:
		b.err = fmt.Errorf("workflow builder: node %q has no handler", node.ID)
	default:
		if _, exists := b.def.nodes[node.ID]; exists {
			b.err = fmt.Errorf("workflow builder: duplicate node id %q", node.ID)
			return b
		}
		b.def.nodes[node.ID] = node
	}
	return b
}

// AddEdge links two existing nodes. Edges accumulate per source node in
// call order; a nil predicate means "always true".
func (b *Builder[S]) AddEdge(from, to string, when Predicate[S]) *Builder[S] {
	if b.err != nil {
		return b
	}
	if err := b.requireNode(from, "edge source"); err != nil {
		b.err = err
		return b
	}
	if err := b.requireNode(to, "edge target"); err != nil {
		b.err = err
		return b
	}
	b.def.outgoing[from] = append(b.def.outgoing[from], Edge[S]{From: from, To: to, When: when})
	return b
}

// SetEntry marks the entry node. Fails if the ID is unknown.
func (b *Builder[S]) SetEntry(id string) *Builder[S] {
	if b.err != nil {
		return b
	}
	if err := b.requireNode(id, "entry"); err != nil {
		b.err = err
		return b
	}
	b.def.entry = id
	return b
}

// AddExit marks an exit node. Fails if the ID is unknown.
func (b *Builder[S]) AddExit(id string) *Builder[S] {
	if b.err != nil {
		return b
	}
	if err := b.requireNode(id, "exit"); err != nil {
		b.err = err
		return b
	}
	b.def.exits[id] = struct{}{}
	return b
}

// Build validates the accumulated definition and returns it. After Build
// the definition is immutable and safe to share across runs.
func (b *Builder[S]) Build() (*Definition[S], error) {
	if b.err != nil {
		return nil, b.err
	}
	def := b.def
	if len(def.nodes) == 0 {
		return nil, errors.New("workflow builder: graph has no nodes")
	}
	if def.entry == "" {
		return nil, errors.New("workflow builder: entry node not set")
	}
	if len(def.exits) == 0 {
		return nil, errors.New("workflow builder: at least one exit node is required")
	}
	if unreachable := def.unreachableFrom(def.entry); len(unreachable) > 0 {
		return nil, fmt.Errorf("workflow builder: nodes unreachable from entry %q: %s", def.entry, strings.Join(unreachable, ", "))
	}
	b.def = nil // builder is spent; the definition must not mutate
	return def, nil
}

func (b *Builder[S]) requireNode(id, role string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("workflow builder: %s node id is empty", role)
	}
	if _, ok := b.def.nodes[id]; !ok {
		return fmt.Errorf("workflow builder: %s references unknown node %q", role, id)
	}
	return nil
}

// unreachableFrom returns the sorted IDs of nodes with no path from start.
func (d *Definition[S]) unreachableFrom(start string) []string {
	visited := make(map[string]bool, len(d.nodes))
	queue := []string{start}
	visited[start] = true
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, edge := range d.outgoing[current] {
			if !visited[edge.To] {
				visited[edge.To] = true
				queue = append(queue, edge.To)
			}
		}
	}
	var unreachable []string
	for id := range d.nodes {
		if !visited[id] {
			unreachable = append(unreachable, id)
		}
	}
	sort.Strings(unreachable)
	return unreachable
}
