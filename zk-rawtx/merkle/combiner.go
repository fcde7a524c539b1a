package merkle

import "github.com/kysee/zkrawtx/utils"

// Combiner hashes two adjacent tree nodes into their parent. The result must
// depend on the level and on the order of the children.
type Combiner interface {
	CombineHash(level int, left, right []byte) []byte
}

// CombineFunc adapts a plain function to Combiner.
type CombineFunc func(level int, left, right []byte) []byte

func (f CombineFunc) CombineHash(level int, left, right []byte) []byte {
	return f(level, left, right)
}

// MiMC combines nodes with MiMC over the BN254 scalar field. It is the
// combiner the spend circuit reproduces in-circuit.
type MiMC struct{}

func (MiMC) CombineHash(level int, left, right []byte) []byte {
	return utils.CombineHash(level, left, right)
}
