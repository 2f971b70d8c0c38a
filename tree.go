// Copyright 2025 Jonathan Amsterdam. All rights reserved.
// Use of this source code is governed by a
// license that can be found in the LICENSE file.

package ahuff

import (
	"fmt"
	"math"
)

// none is the index of a missing node or block.
const none int32 = -1

type nodeKind uint8

const (
	kindNYT nodeKind = iota
	kindLeaf
	kindInternal
)

type node struct {
	kind   nodeKind
	symbol Symbol // only for kindLeaf
	weight uint64

	parent, left, right int32

	// The list threads every node in order of non-decreasing weight,
	// from the NYT leaf at the head to the root at the tail.
	next, prev int32

	// block is shared by every node of a run of equal weights in the list.
	// It indexes Tree.blocks, which holds the run's last node.
	block int32
}

// A Tree is an adaptive Huffman code tree. It starts with a single NYT leaf
// and changes shape with every call to [Tree.Observe], so that it is always
// a Huffman tree for the symbols observed so far.
//
// Nodes never move in memory, so a [Cursor] stays attached to the same node
// across calls to Observe, but the node's position in the tree may change.
type Tree struct {
	width int
	nodes []node

	// blocks maps a block cell to the highest-ranked node in its run.
	// Unused cells are on free.
	blocks []int32
	free   []int32

	root int32
	head int32 // lightest node in the list; always the NYT leaf
	nyt  int32

	// Leaf for each observed symbol. Narrow alphabets use a table, wide ones a map.
	leaves []int32
	wide   map[Symbol]int32

	stack []int32 // scratch for increment
}

// denseWidth is the widest alphabet that gets a lookup table.
const denseWidth = 16

// NewTree returns a tree for symbols of the given width, which must be
// between 1 and [MaxSymbolWidth].
func NewTree(width int) *Tree {
	if width < 1 || width > MaxSymbolWidth {
		panic(fmt.Sprintf("ahuff.NewTree: bad width %d", width))
	}
	t := &Tree{width: width}
	if width <= denseWidth {
		t.leaves = make([]int32, 1<<width)
		for i := range t.leaves {
			t.leaves[i] = none
		}
	} else {
		t.wide = map[Symbol]int32{}
	}
	n := t.newNode(kindNYT, 0)
	t.root, t.head, t.nyt = n, n, n
	t.nodes[n].block = t.newBlock(n)
	return t
}

// Width returns the number of bits in the tree's symbols.
func (t *Tree) Width() int { return t.width }

// Len returns the number of distinct symbols observed.
func (t *Tree) Len() int { return (len(t.nodes) - 1) / 2 }

// Total returns the number of symbols observed.
func (t *Tree) Total() uint64 { return t.nodes[t.root].weight }

// Root returns a cursor at the root of the tree.
func (t *Tree) Root() Cursor { return Cursor{t, t.root} }

// NYT returns a cursor at the leaf standing for all unobserved symbols.
func (t *Tree) NYT() Cursor { return Cursor{t, t.nyt} }

// Lookup returns a cursor at the leaf for s.
// It reports false if s has never been observed.
func (t *Tree) Lookup(s Symbol) (Cursor, bool) {
	if !t.inAlphabet(s) {
		return Cursor{}, false
	}
	i := t.leaf(s)
	return Cursor{t, i}, i != none
}

// Observe records one occurrence of s and rebalances the tree.
// It panics if s does not fit in the tree's width.
func (t *Tree) Observe(s Symbol) {
	assertf(t.inAlphabet(s), "symbol %d outside %d-bit alphabet", s, t.width)
	i := t.leaf(s)
	if i == none {
		i = t.split(s)
	}
	t.increment(i)
}

func (t *Tree) inAlphabet(s Symbol) bool {
	return t.width == MaxSymbolWidth || s < 1<<t.width
}

func (t *Tree) leaf(s Symbol) int32 {
	if t.leaves != nil {
		return t.leaves[s]
	}
	if i, ok := t.wide[s]; ok {
		return i
	}
	return none
}

func (t *Tree) setLeaf(s Symbol, i int32) {
	if t.leaves != nil {
		t.leaves[s] = i
	} else {
		t.wide[s] = i
	}
}

// split turns the NYT leaf into an internal node whose children are a new
// NYT leaf and a leaf for s, both of weight zero. It returns the new leaf for s.
func (t *Tree) split(s Symbol) int32 {
	assertf(t.head == t.nyt, "list head %d is not the NYT node %d", t.head, t.nyt)
	leaf := t.newNode(kindLeaf, s)
	t.pushHead(leaf)
	nyt := t.newNode(kindNYT, 0)
	t.pushHead(nyt)

	old := &t.nodes[t.nyt]
	old.kind = kindInternal
	old.left, old.right = nyt, leaf
	t.nodes[nyt].parent = t.nyt
	t.nodes[leaf].parent = t.nyt

	t.setLeaf(s, leaf)
	t.nyt = nyt
	return leaf
}

// increment adds one to the weight of node i and each of its ancestors,
// restructuring the tree and list so they stay in sibling order.
func (t *Tree) increment(i int32) {
	// Walk up, remembering every node that has a parent.
	t.stack = t.stack[:0]
	for i != none {
		t.bump(i)
		p := t.nodes[i].parent
		if p != none {
			t.stack = append(t.stack, i)
		}
		i = p
	}
	// Walk back down. A node whose weight now equals its parent's may have
	// ended up just after it in the list; the parent must come last.
	for k := len(t.stack) - 1; k >= 0; k-- {
		i := t.stack[k]
		n := &t.nodes[i]
		if n.prev != n.parent {
			continue
		}
		p := n.parent
		assertf(t.nodes[p].weight == n.weight, "parent %d (weight %d) before child %d (weight %d)",
			p, t.nodes[p].weight, i, n.weight)
		t.swapInList(i, p)
		if t.blocks[n.block] == i {
			t.blocks[n.block] = p
		}
	}
}

// bump increments the weight of node i alone, first moving it to the
// highest-ranked position of its block.
func (t *Tree) bump(i int32) {
	n := &t.nodes[i]
	if n.next != none && t.nodes[n.next].weight == n.weight {
		h := t.blocks[n.block]
		hn := &t.nodes[h]
		assertf(h != i, "node %d leads its block but is not last in it", i)
		assertf(hn.parent != i, "block leader %d is a child of %d", h, i)
		assertf(hn.weight == n.weight, "block leader %d has weight %d, want %d", h, hn.weight, n.weight)
		if h != n.parent {
			t.swapInTree(h, i)
		} else {
			assertf(n.next == h, "parent %d leads the block of %d but is not next to it", h, i)
		}
		t.swapInList(h, i)
	}

	// Leave the block.
	if n.prev != none && t.nodes[n.prev].weight == n.weight {
		t.blocks[n.block] = n.prev
	} else {
		t.freeBlock(n.block)
		n.block = none
	}

	n.weight++

	// Join the block of the new weight, at its low end.
	if n.next != none && t.nodes[n.next].weight == n.weight {
		n.block = t.nodes[n.next].block
	} else {
		n.block = t.newBlock(i)
	}
}

func (t *Tree) newNode(kind nodeKind, s Symbol) int32 {
	assertf(len(t.nodes) < math.MaxInt32, "too many nodes")
	t.nodes = append(t.nodes, node{
		kind:   kind,
		symbol: s,
		parent: none,
		left:   none,
		right:  none,
		next:   none,
		prev:   none,
		block:  none,
	})
	return int32(len(t.nodes) - 1)
}

// pushHead puts the weight-zero node i at the head of the list.
func (t *Tree) pushHead(i int32) {
	n := &t.nodes[i]
	h := &t.nodes[t.head]
	assertf(n.weight == 0 && h.weight == 0, "pushing weight %d before weight %d", n.weight, h.weight)
	n.next = t.head
	h.prev = i
	n.block = h.block
	t.head = i
}

// swapInTree exchanges the subtrees rooted at a and b.
func (t *Tree) swapInTree(a, b int32) {
	na, nb := &t.nodes[a], &t.nodes[b]
	assertf(na.kind != kindNYT && nb.kind != kindNYT, "moving the NYT node")
	pa, pb := na.parent, nb.parent
	if pa == pb {
		p := &t.nodes[pa]
		p.left, p.right = p.right, p.left
		return
	}
	t.replaceChild(pa, a, b)
	t.replaceChild(pb, b, a)
	na.parent, nb.parent = pb, pa
}

func (t *Tree) replaceChild(p, old, repl int32) {
	if p == none {
		t.root = repl
		return
	}
	pn := &t.nodes[p]
	if pn.left == old {
		pn.left = repl
	} else {
		assertf(pn.right == old, "%d is not a child of %d", old, p)
		pn.right = repl
	}
}

// swapInList exchanges the list positions of a and b, which may be adjacent.
func (t *Tree) swapInList(a, b int32) {
	na, nb := &t.nodes[a], &t.nodes[b]
	na.next, nb.next = nb.next, na.next
	na.prev, nb.prev = nb.prev, na.prev
	if na.next == a {
		na.next = b
	}
	if nb.next == b {
		nb.next = a
	}
	if na.prev == a {
		na.prev = b
	}
	if nb.prev == b {
		nb.prev = a
	}
	t.relink(a)
	t.relink(b)
}

// relink points i's list neighbors back at i.
func (t *Tree) relink(i int32) {
	n := &t.nodes[i]
	if n.next != none {
		t.nodes[n.next].prev = i
	}
	if n.prev != none {
		t.nodes[n.prev].next = i
	} else {
		t.head = i
	}
}

func (t *Tree) newBlock(leader int32) int32 {
	if k := len(t.free); k > 0 {
		c := t.free[k-1]
		t.free = t.free[:k-1]
		t.blocks[c] = leader
		return c
	}
	t.blocks = append(t.blocks, leader)
	return int32(len(t.blocks) - 1)
}

func (t *Tree) freeBlock(c int32) {
	t.blocks[c] = none
	t.free = append(t.free, c)
}

// A Cursor refers to a node of a [Tree].
// Methods that move the cursor must not be called where there is nothing to move to:
// Parent at the root, or Left and Right at a leaf.
type Cursor struct {
	t *Tree
	i int32
}

func (c Cursor) n() *node { return &c.t.nodes[c.i] }

// IsRoot reports whether c is at the root.
func (c Cursor) IsRoot() bool { return c.n().parent == none }

// IsLeaf reports whether c is at a leaf, including the NYT leaf.
func (c Cursor) IsLeaf() bool { return c.n().kind != kindInternal }

// IsNYT reports whether c is at the NYT leaf.
func (c Cursor) IsNYT() bool { return c.n().kind == kindNYT }

// IsLeft reports whether c is the left child of its parent.
func (c Cursor) IsLeft() bool { return c.t.nodes[c.n().parent].left == c.i }

// Symbol returns the symbol of a leaf. It is zero for the NYT leaf and internal nodes.
func (c Cursor) Symbol() Symbol { return c.n().symbol }

// Weight returns the number of observations below c.
func (c Cursor) Weight() uint64 { return c.n().weight }

func (c Cursor) Parent() Cursor { return Cursor{c.t, c.n().parent} }
func (c Cursor) Left() Cursor   { return Cursor{c.t, c.n().left} }
func (c Cursor) Right() Cursor  { return Cursor{c.t, c.n().right} }

// Depth returns the length of the path from the root to c.
func (c Cursor) Depth() int {
	d := 0
	for i := c.i; c.t.nodes[i].parent != none; i = c.t.nodes[i].parent {
		d++
	}
	return d
}

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic("ahuff: internal error: " + fmt.Sprintf(format, args...))
	}
}
