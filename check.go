// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

package ahuff

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Check verifies the tree's internal invariants and returns an error
// describing the first violation it finds. Observe maintains them, so an
// error here is a bug in this package.
func (t *Tree) Check() error {
	nyts := 0
	count := 0
	prev := none
	for i := t.head; i != none; i = t.nodes[i].next {
		n := &t.nodes[i]
		count++
		if count > len(t.nodes) {
			return errors.New("list has a cycle")
		}
		if n.prev != prev {
			return errors.Errorf("node %d: prev is %d, want %d", i, n.prev, prev)
		}
		prev = i

		// Blocks.
		if n.block == none || t.blocks[n.block] == none {
			return errors.Errorf("node %d: no block", i)
		}
		leader := t.blocks[n.block]
		if w := t.nodes[leader].weight; w != n.weight {
			return errors.Errorf("node %d (weight %d): block leader %d has weight %d", i, n.weight, leader, w)
		}
		if n.next == none || t.nodes[n.next].weight != n.weight {
			if leader != i {
				return errors.Errorf("node %d ends its block but the leader is %d", i, leader)
			}
		}
		if n.next != none {
			m := &t.nodes[n.next]
			switch {
			case m.weight < n.weight:
				return errors.Errorf("node %d (weight %d) before node %d (weight %d)", i, n.weight, n.next, m.weight)
			case m.weight == n.weight && m.block != n.block:
				return errors.Errorf("nodes %d and %d have weight %d but different blocks", i, n.next, n.weight)
			case m.weight != n.weight && m.block == n.block:
				return errors.Errorf("nodes %d and %d have different weights but share a block", i, n.next)
			}
		}

		// Tree.
		if n.parent != none {
			p := &t.nodes[n.parent]
			if p.left != i && p.right != i {
				return errors.Errorf("node %d is not a child of its parent %d", i, n.parent)
			}
		} else if i != t.root {
			return errors.Errorf("node %d has no parent but the root is %d", i, t.root)
		}
		switch n.kind {
		case kindInternal:
			if n.left == none || n.right == none {
				return errors.Errorf("internal node %d lacks a child", i)
			}
			l, r := &t.nodes[n.left], &t.nodes[n.right]
			if l.parent != i || r.parent != i {
				return errors.Errorf("children of %d do not point back to it", i)
			}
			if l.weight+r.weight != n.weight {
				return errors.Errorf("node %d has weight %d, children sum to %d", i, n.weight, l.weight+r.weight)
			}
		case kindNYT:
			nyts++
			if i != t.nyt {
				return errors.Errorf("stray NYT node %d", i)
			}
			if n.weight != 0 {
				return errors.Errorf("NYT node has weight %d", n.weight)
			}
			fallthrough
		case kindLeaf:
			if n.left != none || n.right != none {
				return errors.Errorf("leaf %d has children", i)
			}
			if n.kind == kindLeaf && t.leaf(n.symbol) != i {
				return errors.Errorf("leaf %d for symbol %d is not in the symbol table", i, n.symbol)
			}
		}
	}
	if count != len(t.nodes) {
		return errors.Errorf("list holds %d of %d nodes", count, len(t.nodes))
	}
	if nyts != 1 {
		return errors.Errorf("%d NYT nodes", nyts)
	}
	if t.head != t.nyt {
		return errors.Errorf("list starts at %d, not the NYT node %d", t.head, t.nyt)
	}
	if prev != t.root {
		return errors.Errorf("list ends at %d, not the root %d", prev, t.root)
	}
	return nil
}

// WriteTree writes the tree to w in prefix order, one token per node:
// "." and the weight for an internal node, "@" for the NYT leaf,
// and symbol:weight for other leaves.
func (t *Tree) WriteTree(w io.Writer) error {
	var sb strings.Builder
	var walk func(int32)
	walk = func(i int32) {
		n := &t.nodes[i]
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		switch n.kind {
		case kindInternal:
			fmt.Fprintf(&sb, ".%d", n.weight)
			walk(n.left)
			walk(n.right)
		case kindNYT:
			sb.WriteByte('@')
		default:
			fmt.Fprintf(&sb, "%d:%d", n.symbol, n.weight)
		}
	}
	walk(t.root)
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteList writes the nodes in list order with their weights,
// using the same notation as [Tree.WriteTree].
func (t *Tree) WriteList(w io.Writer) error {
	var sb strings.Builder
	for i := t.head; i != none; i = t.nodes[i].next {
		n := &t.nodes[i]
		if i != t.head {
			sb.WriteByte(' ')
		}
		switch n.kind {
		case kindInternal:
			sb.WriteByte('.')
		case kindNYT:
			sb.WriteByte('@')
		default:
			fmt.Fprintf(&sb, "%d", n.symbol)
		}
		fmt.Fprintf(&sb, "(%d)", n.weight)
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// String returns the tree in the format of [Tree.WriteTree], without the newline.
func (t *Tree) String() string {
	var sb strings.Builder
	t.WriteTree(&sb)
	return strings.TrimSuffix(sb.String(), "\n")
}
