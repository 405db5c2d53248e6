package stream

import (
	"sort"

	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/protocol"
)

// snapshot encodes the tree a replayer built on a memtree as one batch
// that recreates it from nothing, keeping the stream's node ids.
func snapshot(r *Replayer, tree *memtree.Tree, seq uint64) *protocol.Batch {
	ids := make(map[*memtree.Node]protocol.NodeID, len(r.nodes))
	for id, n := range r.nodes {
		if mn, ok := n.(*memtree.Node); ok {
			ids[mn] = id
		}
	}
	b := &protocol.Batch{Seq: seq}
	for _, c := range tree.Root.Children {
		emitNode(b, ids, c, protocol.RootID)
	}
	return b
}

func emitNode(b *protocol.Batch, ids map[*memtree.Node]protocol.NodeID, n *memtree.Node, parent protocol.NodeID) {
	id := ids[n]
	if n.IsText {
		b.Ops = append(b.Ops, protocol.Op{Code: protocol.OpCreateText, Node: id, Text: n.Text})
	} else {
		b.Ops = append(b.Ops, protocol.Op{Code: protocol.OpCreateElement, Node: id, Tag: n.Tag, Namespace: n.Namespace})
		names := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			b.Ops = append(b.Ops, protocol.Op{Code: protocol.OpSetAttr, Node: id, Name: k, Value: n.Attrs[k]})
		}
		for _, c := range n.Children {
			emitNode(b, ids, c, id)
		}
	}
	b.Ops = append(b.Ops, protocol.Op{Code: protocol.OpInsert, Node: id, Parent: parent})
}
