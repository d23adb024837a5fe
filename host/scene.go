package host

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/errs"
)

// SceneKey is the associations name that holds scene-level metadata in a
// metadata file. Node metadata is stored under the node name.
const SceneKey = "<scene>"

// Scene is a set of uniquely named nodes plus scene-level metadata.
type Scene struct {
	Owner
	nodes []*Node // sorted by name
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) search(name string) (int, bool) {
	return slices.BinarySearchFunc(s.nodes, name, func(n *Node, name string) int {
		return strings.Compare(n.name, name)
	})
}

// AddNode creates a node.
//
// Returns:
//   - *Node: the new node
//   - error: ErrInvalidName for an empty name or SceneKey, ErrDuplicateNode
//     when the name is taken
func (s *Scene) AddNode(name string) (*Node, error) {
	if name == "" || name == SceneKey {
		return nil, fmt.Errorf("%w: node %q", errs.ErrInvalidName, name)
	}
	i, ok := s.search(name)
	if ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrDuplicateNode, name)
	}
	n := NewNode(name)
	s.nodes = slices.Insert(s.nodes, i, n)

	return n, nil
}

// Node returns the named node, or nil.
func (s *Scene) Node(name string) *Node {
	if i, ok := s.search(name); ok {
		return s.nodes[i]
	}

	return nil
}

// RemoveNode deletes the named node and releases its metadata.
func (s *Scene) RemoveNode(name string) error {
	i, ok := s.search(name)
	if !ok {
		return fmt.Errorf("%w: %q", errs.ErrNodeNotFound, name)
	}
	s.nodes[i].DeleteMetadata()
	s.nodes = slices.Delete(s.nodes, i, i+1)

	return nil
}

// Nodes returns the nodes ordered by name.
func (s *Scene) Nodes() []*Node {
	return slices.Clone(s.nodes)
}

// Export stores the scene metadata and the metadata of every node into a.
// Owners without metadata are left out. Existing associations in a with the
// same names are replaced; the structures set on a are kept.
func (s *Scene) Export(a *accessor.Accessor) {
	if s.HasMetadata() {
		a.SetAssociations(SceneKey, s.Metadata())
	}
	for _, n := range s.nodes {
		if n.HasMetadata() {
			a.SetAssociations(n.name, n.Metadata())
		}
	}
}

// Import attaches the associations held by a to the scene and its nodes.
//
// Parameters:
//   - a: accessor holding the associations, usually after Read
//   - createNodes: create nodes named in a that the scene lacks
//
// Returns:
//   - []string: associations names that matched no node and could not be
//     created, in order
func (s *Scene) Import(a *accessor.Accessor, createNodes bool) []string {
	var unmatched []string

	all := a.Associations()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if name == SceneKey {
			s.SetMetadata(all[name])
			continue
		}
		n := s.Node(name)
		if n == nil && createNodes {
			var err error
			if n, err = s.AddNode(name); err != nil {
				unmatched = append(unmatched, name)
				continue
			}
		}
		if n == nil {
			unmatched = append(unmatched, name)
			continue
		}
		n.SetMetadata(all[name])
	}

	return unmatched
}
