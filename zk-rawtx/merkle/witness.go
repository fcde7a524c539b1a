package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
)

var (
	// ErrHashLength is returned when a leaf, root or sibling is not a 32-byte hash.
	ErrHashLength = errors.New("merkle: hash is not 32 bytes")
	// ErrInvalidWitness is returned when the recomputed root differs from the witness root.
	ErrInvalidWitness = errors.New("merkle: invalid witness")
)

// Verify reports whether leaf is included under w.RootHash. The path is
// walked from the leaf towards the root and every node is processed. Badly
// sized hashes make the witness invalid; Verify never panics on them.
func Verify(c Combiner, w *rawtx.Witness, leaf []byte) bool {
	return Check(c, w, leaf) == nil
}

// Check is Verify with the failure reason. It returns ErrHashLength when the
// caller passed a malformed hash and ErrInvalidWitness on a root mismatch.
func Check(c Combiner, w *rawtx.Witness, leaf []byte) error {
	if w == nil {
		return fmt.Errorf("%w: nil witness", ErrInvalidWitness)
	}
	if len(w.RootHash) != utils.HashSize {
		return fmt.Errorf("%w: root is %d bytes", ErrHashLength, len(w.RootHash))
	}
	root, err := RootFromPath(c, leaf, w.AuthPath)
	if err != nil {
		return err
	}
	if !bytes.Equal(root, w.RootHash) {
		return ErrInvalidWitness
	}
	return nil
}

// RootFromPath recomputes the root reached from leaf along path. Position i
// in the path is the tree level passed to the combiner.
func RootFromPath(c Combiner, leaf []byte, path []rawtx.AuthNode) ([]byte, error) {
	if len(leaf) != utils.HashSize {
		return nil, fmt.Errorf("%w: leaf is %d bytes", ErrHashLength, len(leaf))
	}
	cur := leaf
	for i, node := range path {
		if len(node.HashOfSibling) != utils.HashSize {
			return nil, fmt.Errorf("%w: sibling at level %d is %d bytes", ErrHashLength, i, len(node.HashOfSibling))
		}
		if node.Side == rawtx.Left {
			cur = c.CombineHash(i, cur, node.HashOfSibling)
		} else {
			cur = c.CombineHash(i, node.HashOfSibling, cur)
		}
		if len(cur) != utils.HashSize {
			return nil, fmt.Errorf("%w: combiner returned %d bytes at level %d", ErrHashLength, len(cur), i)
		}
	}
	return cur, nil
}
