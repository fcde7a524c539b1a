package rawtx

import (
	"encoding/hex"
	"fmt"
)

// Side tells on which side of its parent the running hash sits.
// Left means the running hash is the left child and the sibling the right one.
type Side uint8

const (
	Left  Side = 0
	Right Side = 1
)

func (s Side) String() string {
	if s == Left {
		return "Left"
	}
	return "Right"
}

func sideFromByte(b byte) Side {
	if b == 0 {
		return Left
	}
	return Right
}

// AuthNode is one step of an authentication path.
type AuthNode struct {
	Side          Side
	HashOfSibling []byte
}

// Witness proves that a note commitment is included in the note commitment
// tree of TreeSize leaves whose root is RootHash. AuthPath is ordered from
// the leaf towards the root and must be consumed in that order.
type Witness struct {
	TreeSize uint64
	RootHash []byte
	AuthPath []AuthNode
}

// Depth returns the number of levels covered by the authentication path.
func (w *Witness) Depth() int {
	return len(w.AuthPath)
}

type Spend struct {
	Note    []byte
	Witness Witness
}

type Output struct {
	Note []byte
}

type Mint struct {
	Name     string
	Metadata string
	Value    uint64
}

type Burn struct {
	AssetID [AssetIDSize]byte
	Value   uint64
}

// RawTransaction is the unsigned, unproven form of a transaction. The order
// of every sequence is significant and is preserved by the codec.
type RawTransaction struct {
	Version    uint8
	Fee        uint64
	Expiration *uint32
	Spends     []Spend
	Outputs    []Output
	Mints      []Mint
	Burns      []Burn
}

// ExpirationOrZero returns the expiration sequence, 0 meaning "never".
func (tx *RawTransaction) ExpirationOrZero() uint32 {
	if tx.Expiration == nil {
		return 0
	}
	return *tx.Expiration
}

func mustAssetID(s string) (id [AssetIDSize]byte) {
	bz, err := hex.DecodeString(s)
	if err != nil || len(bz) != AssetIDSize {
		panic(fmt.Sprintf("bad asset id %q", s))
	}
	copy(id[:], bz)
	return
}
