package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/crypto"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
)

// NoteSize is owner | asset id | value | randomness | memo | sender.
const NoteSize = rawtx.PublicAddressSize + rawtx.AssetIDSize + rawtx.AmountValueSize +
	rawtx.ScalarSize + rawtx.MemoSize + rawtx.PublicAddressSize

// AssetHalfSize is the byte length of each half of an asset id as the
// circuit sees it.
const AssetHalfSize = rawtx.AssetIDSize / 2

var ErrNoteSize = errors.New("note: wrong size")

// Memo is free text carried with a note. It is encrypted with the note but
// is not part of its commitment.
type Memo [rawtx.MemoSize]byte

// MemoFromString truncates s to MemoSize bytes and zero-pads the rest.
func MemoFromString(s string) Memo {
	var m Memo
	copy(m[:], s)
	return m
}

func (m Memo) String() string {
	return strings.ToValidUTF8(string(bytes.TrimRight(m[:], "\x00")), "\uFFFD")
}

// Note is a value owned by a public key.
type Note struct {
	Owner      eddsa.PublicKey
	Asset      [rawtx.AssetIDSize]byte
	Amount     uint64
	Randomness [rawtx.ScalarSize]byte
	Memo       Memo
	Sender     [rawtx.PublicAddressSize]byte
}

func NewNote(owner *eddsa.PublicKey, amount uint64, memo string, asset [rawtx.AssetIDSize]byte, sender *eddsa.PublicKey) *Note {
	n := &Note{
		Asset:  asset,
		Amount: amount,
		Memo:   MemoFromString(memo),
	}
	n.Owner.A.Set(&owner.A)
	copy(n.Sender[:], sender.Bytes())
	// randomness is kept inside the field so the circuit sees the same value
	copy(n.Randomness[:], utils.ToElementBytes(utils.RandBytes(rawtx.ScalarSize)))
	return n
}

// ParseNote decodes a serialized note. The owner must be a valid public key.
func ParseNote(bz []byte) (*Note, error) {
	if len(bz) != NoteSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrNoteSize, len(bz), NoteSize)
	}
	owner, err := crypto.ParsePublicKey(bz[:32])
	if err != nil {
		return nil, fmt.Errorf("note owner: %w", err)
	}
	n := &Note{Owner: *owner}
	off := 32
	off += copy(n.Asset[:], bz[off:])
	n.Amount = binary.LittleEndian.Uint64(bz[off:])
	off += 8
	off += copy(n.Randomness[:], bz[off:])
	off += copy(n.Memo[:], bz[off:])
	copy(n.Sender[:], bz[off:])
	return n, nil
}

func (n *Note) Bytes() []byte {
	bz := make([]byte, 0, NoteSize)
	bz = append(bz, n.Owner.Bytes()...)
	bz = append(bz, n.Asset[:]...)
	bz = binary.LittleEndian.AppendUint64(bz, n.Amount)
	bz = append(bz, n.Randomness[:]...)
	bz = append(bz, n.Memo[:]...)
	bz = append(bz, n.Sender[:]...)
	return bz
}

func (n *Note) Value() uint64 {
	return n.Amount
}

func (n *Note) AssetID() [rawtx.AssetIDSize]byte {
	return n.Asset
}

// Blinding is MiMC(owner.x, owner.y, randomness). It is posted with every
// output so anyone can open the commitment's asset and value while the
// owner stays hidden.
func (n *Note) Blinding() []byte {
	x := n.Owner.A.X.Bytes()
	y := n.Owner.A.Y.Bytes()
	return utils.MiMCHash(x[:], y[:], n.Randomness[:])
}

// Commitment is the leaf of the note in the commitment tree. The spend
// circuit recomputes it the same way.
func (n *Note) Commitment() []byte {
	return NoteCommitment(n.Blinding(), n.Asset, n.Amount)
}

// NoteCommitment is MiMC(blinding, asset[:16], asset[16:], value). The asset
// id is absorbed as two 128-bit halves so that no two ids share a field
// element.
func NoteCommitment(blinding []byte, asset [rawtx.AssetIDSize]byte, value uint64) []byte {
	hi, lo := AssetHalves(asset[:])
	return utils.MiMCHash(blinding, hi, lo, valueBytes(value))
}

// Nullifier is MiMC(nk, commitment). It is revealed when the note is spent.
func (n *Note) Nullifier(nk []byte) []byte {
	return utils.MiMCHash(nk, n.Commitment())
}

// NullifierKey is MiMC(hi, lo) over the two halves of the owner's scalar.
func NullifierKey(sk *eddsa.PrivateKey) []byte {
	hi, lo := crypto.ScalarHalves(sk)
	return utils.MiMCHash(hi, lo)
}

// AssetHalves splits an asset id into the two public circuit inputs.
func AssetHalves(asset []byte) (hi, lo []byte) {
	return asset[:AssetHalfSize], asset[AssetHalfSize:]
}

// RandomAssetID returns an identifier unrelated to any mint, for tests and demos.
func RandomAssetID() (id [rawtx.AssetIDSize]byte) {
	copy(id[:], utils.RandBytes(rawtx.AssetIDSize))
	return
}

func valueBytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
