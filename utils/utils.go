package utils

import (
	crand "crypto/rand"
	"encoding/binary"
	"hash"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	_ "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/twistededwards"
	gnark_hash "github.com/consensys/gnark-crypto/hash"
)

var (
	CURVEID = twistededwards.BN254
)

// HashSize is the byte length of every digest produced here (one BN254 scalar).
const HashSize = fr.Bytes

func MiMCHasher() hash.Hash {
	return gnark_hash.MIMC_BN254.New()
}

// MiMCHash hashes each input as a sequence of 32-byte big-endian blocks.
// Every block is reduced into the scalar field before it is absorbed, so
// arbitrary bytes (e.g. hashes from another curve) are accepted.
func MiMCHash(ins ...[]byte) []byte {
	hasher := MiMCHasher()
	blockSize := hasher.BlockSize()

	hasher.Reset()
	for _, in := range ins {
		for i := 0; i < len(in); i += blockSize {
			end := i + blockSize
			if end > len(in) {
				end = len(in)
			}
			writeElement(hasher, in[i:end])
		}
	}
	return hasher.Sum(nil)
}

// CombineHash hashes two child nodes of the note commitment tree into their
// parent. The level is absorbed first, so equal children at different
// heights produce different parents.
func CombineHash(level int, left, right []byte) []byte {
	hasher := MiMCHasher()

	var lv [8]byte
	binary.BigEndian.PutUint64(lv[:], uint64(level))
	writeElement(hasher, lv[:])
	writeElement(hasher, left)
	writeElement(hasher, right)
	return hasher.Sum(nil)
}

// ToElementBytes returns the canonical 32-byte form of bz reduced mod r.
func ToElementBytes(bz []byte) []byte {
	var elem fr.Element
	elem.SetBytes(bz)
	return elem.Marshal()
}

func writeElement(hasher hash.Hash, chunk []byte) {
	if _, err := hasher.Write(ToElementBytes(chunk)); err != nil {
		// canonical elements are always accepted
		panic(err)
	}
}

func RandBytes(n int) []byte {
	rbz := make([]byte, n)
	_, _ = crand.Read(rbz)
	return rbz
}
