package types

import (
	"bytes"
	"sort"

	"github.com/holiman/uint256"

	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
)

// ValueBalance sums, per asset, the value entering a transaction (spends
// and mints) and the value leaving it (outputs, burns and the fee).
type ValueBalance struct {
	in  map[[rawtx.AssetIDSize]byte]*uint256.Int
	out map[[rawtx.AssetIDSize]byte]*uint256.Int
}

func NewValueBalance() *ValueBalance {
	return &ValueBalance{
		in:  make(map[[rawtx.AssetIDSize]byte]*uint256.Int),
		out: make(map[[rawtx.AssetIDSize]byte]*uint256.Int),
	}
}

func (b *ValueBalance) AddIn(asset [rawtx.AssetIDSize]byte, v uint64) {
	addValue(b.in, asset, v)
}

func (b *ValueBalance) AddOut(asset [rawtx.AssetIDSize]byte, v uint64) {
	addValue(b.out, asset, v)
}

func (b *ValueBalance) In(asset [rawtx.AssetIDSize]byte) *uint256.Int {
	return valueOf(b.in, asset)
}

func (b *ValueBalance) Out(asset [rawtx.AssetIDSize]byte) *uint256.Int {
	return valueOf(b.out, asset)
}

// Assets lists every asset on either side, ordered by id.
func (b *ValueBalance) Assets() [][rawtx.AssetIDSize]byte {
	seen := make(map[[rawtx.AssetIDSize]byte]bool, len(b.in)+len(b.out))
	ids := make([][rawtx.AssetIDSize]byte, 0, len(b.in)+len(b.out))
	for _, m := range []map[[rawtx.AssetIDSize]byte]*uint256.Int{b.in, b.out} {
		for id := range m {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

func addValue(m map[[rawtx.AssetIDSize]byte]*uint256.Int, asset [rawtx.AssetIDSize]byte, v uint64) {
	sum, ok := m[asset]
	if !ok {
		sum = uint256.NewInt(0)
		m[asset] = sum
	}
	sum.Add(sum, uint256.NewInt(v))
}

func valueOf(m map[[rawtx.AssetIDSize]byte]*uint256.Int, asset [rawtx.AssetIDSize]byte) *uint256.Int {
	if sum, ok := m[asset]; ok {
		return new(uint256.Int).Set(sum)
	}
	return uint256.NewInt(0)
}
