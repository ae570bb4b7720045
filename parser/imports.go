package parser

import (
	"errors"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/topo"
)

var ErrImportCycle = errors.New("import cycle")

type unitNode struct {
	file string
	id   int64
}

func (n *unitNode) ID() int64 {
	return n.id
}

// importGraph records which description unit imports which.
type importGraph struct {
	graph *multi.DirectedGraph
	nodes map[string]*unitNode
}

func newImportGraph() *importGraph {
	return &importGraph{
		graph: multi.NewDirectedGraph(),
		nodes: map[string]*unitNode{},
	}
}

func (g *importGraph) node(file string) *unitNode {
	file = filepath.Clean(file)

	// Look up an existing node for this file.
	if node, ok := g.nodes[file]; ok {
		return node
	}

	// Make a new node for this file.
	hasher := fnv.New64()
	hasher.Write([]byte(file))
	node := &unitNode{
		file: file,
		id:   int64(hasher.Sum64()),
	}
	g.nodes[file] = node
	g.graph.AddNode(node)
	return node
}

// add records that parent imports child. Importing a unit that is already
// an ancestor of parent is an error.
func (g *importGraph) add(parent, child string) error {
	parentNode := g.node(parent)
	childNode := g.node(child)

	if topo.PathExistsIn(g.graph, childNode, parentNode) {
		return fmt.Errorf("%w: %s imports %s", ErrImportCycle, parent, child)
	}

	g.graph.SetLine(g.graph.NewLine(parentNode, childNode))
	return nil
}

// files returns every unit, each one ahead of the units it imports.
func (g *importGraph) files() ([]string, error) {
	sorted, err := topo.SortStabilized(g.graph, byFile)
	if err != nil {
		return nil, err
	}

	files := make([]string, len(sorted))
	for i, node := range sorted {
		files[i] = node.(*unitNode).file
	}
	return files, nil
}

func byFile(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].(*unitNode).file < nodes[j].(*unitNode).file
	})
}
