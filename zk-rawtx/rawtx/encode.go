package rawtx

import (
	"math/bits"
	"unicode/utf8"
)

// Encode serializes tx in the given layout. Length prefixes use the minimal
// CompactSize form, so Encode(Decode(b)) == b for every canonical b whose
// side bytes are 0 or 1.
func Encode(tx *RawTransaction, layout Layout) ([]byte, error) {
	n, err := EncodedLen(tx, layout)
	if err != nil {
		return nil, err
	}
	if n > uint64(maxInt) {
		return nil, overflow("encoded length exceeds addressable memory")
	}

	out := make([]byte, 0, int(n))
	if layout == LayoutVersioned {
		out = append(out, tx.Version)
	}
	out = appendU64le(out, tx.Fee)

	out = appendU64le(out, uint64(len(tx.Spends)))
	for _, s := range tx.Spends {
		out = appendVarBytes(out, s.Note)
		out = appendU64le(out, s.Witness.TreeSize)
		out = appendVarBytes(out, s.Witness.RootHash)
		out = appendU64le(out, uint64(len(s.Witness.AuthPath)))
		for _, node := range s.Witness.AuthPath {
			out = append(out, byte(node.Side))
			out = appendVarBytes(out, node.HashOfSibling)
		}
	}

	out = appendU64le(out, uint64(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		out = appendVarBytes(out, o.Note)
	}

	out = appendU64le(out, uint64(len(tx.Mints)))
	for _, m := range tx.Mints {
		out = appendVarBytes(out, []byte(m.Name))
		out = appendVarBytes(out, []byte(m.Metadata))
		out = appendU64le(out, m.Value)
	}

	out = appendU64le(out, uint64(len(tx.Burns)))
	for _, b := range tx.Burns {
		out = append(out, b.AssetID[:]...)
		out = appendU64le(out, b.Value)
	}

	if tx.Expiration != nil {
		out = append(out, 1)
		out = appendU32le(out, *tx.Expiration)
	} else {
		out = append(out, 0)
	}
	return out, nil
}

// EncodedLen returns the exact number of bytes Encode produces for tx.
func EncodedLen(tx *RawTransaction, layout Layout) (uint64, error) {
	if tx == nil {
		return 0, invalidField("nil transaction")
	}
	var acc lenAcc

	switch layout {
	case LayoutVersioned:
		acc.add(1)
	case LayoutUnversioned:
	default:
		return 0, invalidField("unknown layout %d", layout)
	}
	acc.add(TransactionFeeSize)

	acc.add(8)
	for _, s := range tx.Spends {
		acc.varBytes(len(s.Note))
		acc.add(8)
		acc.varBytes(len(s.Witness.RootHash))
		acc.add(8)
		for _, node := range s.Witness.AuthPath {
			if node.Side != Left && node.Side != Right {
				return 0, invalidField("auth path side %d", node.Side)
			}
			acc.add(1)
			acc.varBytes(len(node.HashOfSibling))
		}
	}

	acc.add(8)
	for _, o := range tx.Outputs {
		acc.varBytes(len(o.Note))
	}

	acc.add(8)
	for i, m := range tx.Mints {
		if err := checkAssetString("name", i, m.Name, AssetNameSize); err != nil {
			return 0, err
		}
		if err := checkAssetString("metadata", i, m.Metadata, AssetMetadataSize); err != nil {
			return 0, err
		}
		acc.varBytes(len(m.Name))
		acc.varBytes(len(m.Metadata))
		acc.add(AmountValueSize)
	}

	acc.add(8)
	acc.mulAdd(uint64(len(tx.Burns)), AssetIDSize+AmountValueSize)

	acc.add(1)
	if tx.Expiration != nil {
		acc.add(TransactionExpirationSize)
	}

	if acc.overflowed {
		return 0, overflow("encoded length overflows uint64")
	}
	return acc.n, nil
}

func checkAssetString(field string, idx int, s string, max int) error {
	if len(s) > max {
		return invalidField("mint %d %s is %d bytes, max %d", idx, field, len(s), max)
	}
	if !utf8.ValidString(s) {
		return invalidField("mint %d %s is not valid utf-8", idx, field)
	}
	return nil
}

const maxInt = int(^uint(0) >> 1)

// lenAcc sums lengths and remembers whether any step wrapped.
type lenAcc struct {
	n          uint64
	overflowed bool
}

func (a *lenAcc) add(v uint64) {
	sum, carry := bits.Add64(a.n, v, 0)
	if carry != 0 {
		a.overflowed = true
	}
	a.n = sum
}

func (a *lenAcc) mulAdd(count, each uint64) {
	hi, lo := bits.Mul64(count, each)
	if hi != 0 {
		a.overflowed = true
	}
	a.add(lo)
}

func (a *lenAcc) varBytes(n int) {
	a.add(compactSizeLen(uint64(n)))
	a.add(uint64(n))
}
