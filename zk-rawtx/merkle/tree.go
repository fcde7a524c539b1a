package merkle

import (
	"errors"
	"fmt"

	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
)

var (
	ErrTreeFull     = errors.New("merkle: tree is full")
	ErrLeafNotFound = errors.New("merkle: leaf index out of range")
)

// MaxDepth bounds the tree height so that the capacity fits a uint64.
const MaxDepth = 63

// Tree is an append-only note commitment tree of fixed depth. Empty
// positions hold the all-zero leaf and its level-wise combinations.
// A Tree is not safe for concurrent use.
type Tree struct {
	c     Combiner
	depth int
	// nodes[l] holds the non-empty nodes of level l, leaves at level 0
	nodes [][][]byte
	empty [][]byte
}

func NewTree(c Combiner, depth int) (*Tree, error) {
	if depth < 1 || depth > MaxDepth {
		return nil, fmt.Errorf("merkle: depth %d out of range [1, %d]", depth, MaxDepth)
	}
	t := &Tree{
		c:     c,
		depth: depth,
		nodes: make([][][]byte, depth+1),
		empty: make([][]byte, depth+1),
	}
	t.empty[0] = make([]byte, utils.HashSize)
	for l := 0; l < depth; l++ {
		t.empty[l+1] = c.CombineHash(l, t.empty[l], t.empty[l])
	}
	return t, nil
}

func (t *Tree) Depth() int {
	return t.depth
}

func (t *Tree) Size() uint64 {
	return uint64(len(t.nodes[0]))
}

// Add appends leaf and returns its index.
func (t *Tree) Add(leaf []byte) (uint64, error) {
	if len(leaf) != utils.HashSize {
		return 0, fmt.Errorf("%w: leaf is %d bytes", ErrHashLength, len(leaf))
	}
	idx := t.Size()
	if idx >= uint64(1)<<uint(t.depth) {
		return 0, ErrTreeFull
	}

	cur := append([]byte(nil), leaf...)
	pos := idx
	t.nodes[0] = append(t.nodes[0], cur)
	for l := 0; l < t.depth; l++ {
		var left, right []byte
		if pos&1 == 0 {
			left, right = cur, t.empty[l]
		} else {
			left, right = t.nodes[l][pos-1], cur
		}
		cur = t.c.CombineHash(l, left, right)
		pos >>= 1
		if pos < uint64(len(t.nodes[l+1])) {
			t.nodes[l+1][pos] = cur
		} else {
			t.nodes[l+1] = append(t.nodes[l+1], cur)
		}
	}
	return idx, nil
}

func (t *Tree) Root() []byte {
	return append([]byte(nil), t.node(t.depth, 0)...)
}

// Leaf returns the leaf at index.
func (t *Tree) Leaf(index uint64) ([]byte, error) {
	if index >= t.Size() {
		return nil, ErrLeafNotFound
	}
	return append([]byte(nil), t.nodes[0][index]...), nil
}

// Witness returns the authentication path of leaf index against the
// current root.
func (t *Tree) Witness(index uint64) (*rawtx.Witness, error) {
	if index >= t.Size() {
		return nil, ErrLeafNotFound
	}
	path := make([]rawtx.AuthNode, 0, t.depth)
	pos := index
	for l := 0; l < t.depth; l++ {
		side := rawtx.Left
		if pos&1 == 1 {
			side = rawtx.Right
		}
		path = append(path, rawtx.AuthNode{
			Side:          side,
			HashOfSibling: append([]byte(nil), t.node(l, pos^1)...),
		})
		pos >>= 1
	}
	return &rawtx.Witness{
		TreeSize: t.Size(),
		RootHash: t.Root(),
		AuthPath: path,
	}, nil
}

func (t *Tree) node(level int, pos uint64) []byte {
	if pos < uint64(len(t.nodes[level])) {
		return t.nodes[level][pos]
	}
	return t.empty[level]
}
