package cfr

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

type recordBox struct {
	record GameStateRecord
}

// TreeNode is one node of the materialized game tree. Children are
// created on first visit, and each node caches the record of its
// information set once it has been looked up.
type TreeNode struct {
	parent       *TreeNode
	action       byte
	depth        int
	terminal     bool
	nextDecision int

	record atomic.Pointer[recordBox]

	mu       sync.RWMutex
	children []*TreeNode
}

// newTreeNode creates the node reached from parent by action, where h is
// the history up to and including action.
func newTreeNode(nav *Navigation, parent *TreeNode, action byte, h *History) *TreeNode {
	node := &TreeNode{
		parent:       parent,
		action:       action,
		depth:        h.Len(),
		terminal:     h.IsComplete(),
		nextDecision: -1,
	}

	if !node.terminal {
		node.nextDecision = nav.Game.NextDecision(h)
		if node.nextDecision < 0 || node.nextDecision >= len(nav.decisions) {
			panic(errors.Errorf("next decision %d out of range after %v", node.nextDecision, h))
		}
		node.children = make([]*TreeNode, nav.decisions[node.nextDecision].NumPossibleActions)
	}

	return node
}

// child returns the node reached by taking action, creating it if needed.
// h is the history at n, or nil to reconstruct it from the tree.
func (n *TreeNode) child(nav *Navigation, action byte, h *History) *TreeNode {
	nav.checkAction(n.nextDecision, action)

	n.mu.RLock()
	c := n.children[action-1]
	n.mu.RUnlock()
	if c != nil {
		return c
	}

	var childHistory History
	if h != nil {
		childHistory = *h
	} else {
		childHistory = n.history(nav)
	}
	nav.advance(&childHistory, action)

	n.mu.Lock()
	defer n.mu.Unlock()
	if c = n.children[action-1]; c == nil {
		c = newTreeNode(nav, n, action, &childHistory)
		n.children[action-1] = c
	}

	return c
}

// actions returns the actions on the path from the root to n.
func (n *TreeNode) actions() []byte {
	result := make([]byte, n.depth)
	for node := n; node.parent != nil; node = node.parent {
		result[node.depth-1] = node.action
	}
	return result
}

// history rebuilds the compact history of n.
func (n *TreeNode) history(nav *Navigation) History {
	var h History
	for _, action := range n.actions() {
		nav.advance(&h, action)
	}
	return h
}

func (n *TreeNode) loadRecord() GameStateRecord {
	if box := n.record.Load(); box != nil {
		return box.record
	}
	return nil
}

// attachRecord sets the record of n if it is unset, and returns the
// record n holds afterwards.
func (n *TreeNode) attachRecord(record GameStateRecord) GameStateRecord {
	if n.record.CompareAndSwap(nil, &recordBox{record}) {
		return record
	}

	return n.loadRecord()
}

// nextPlayer returns the player of the node's record if one is attached.
func (n *TreeNode) nextPlayer(nav *Navigation) int {
	if record := n.loadRecord(); record != nil {
		return record.PlayerIndex()
	}

	if n.terminal {
		return nav.resolution
	}

	return nav.decisions[n.nextDecision].PlayerIndex
}

func (n *TreeNode) nextDecisionIndex() int {
	if record := n.loadRecord(); record != nil {
		return record.DecisionIndex()
	}

	return n.nextDecision
}
