package types

import (
	"testing"

	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/crypto"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/stretchr/testify/require"
)

func TestNoteBytes(t *testing.T) {
	owner, err := crypto.NewKey()
	require.NoError(t, err)
	sender, err := crypto.NewKey()
	require.NoError(t, err)

	n := NewNote(&owner.PublicKey, 1_000_000, "hello", rawtx.NativeAssetID, &sender.PublicKey)
	bz := n.Bytes()
	require.Len(t, bz, NoteSize)
	require.Equal(t, 168, NoteSize)

	back, err := ParseNote(bz)
	require.NoError(t, err)
	require.Equal(t, bz, back.Bytes())
	require.Equal(t, uint64(1_000_000), back.Value())
	require.Equal(t, rawtx.NativeAssetID, back.AssetID())
	require.Equal(t, "hello", back.Memo.String())
	require.Equal(t, n.Commitment(), back.Commitment())
	require.Len(t, n.Commitment(), 32)

	_, err = ParseNote(bz[:100])
	require.ErrorIs(t, err, ErrNoteSize)
}

func TestNoteCommitmentBindsFields(t *testing.T) {
	owner, err := crypto.NewKey()
	require.NoError(t, err)
	other, err := crypto.NewKey()
	require.NoError(t, err)

	n := NewNote(&owner.PublicKey, 10, "", rawtx.NativeAssetID, &owner.PublicKey)
	base := n.Commitment()

	changed := *n
	changed.Amount = 11
	require.NotEqual(t, base, changed.Commitment())

	changed = *n
	changed.Owner = other.PublicKey
	require.NotEqual(t, base, changed.Commitment())

	changed = *n
	changed.Asset = RandomAssetID()
	require.NotEqual(t, base, changed.Commitment())

	changed = *n
	changed.Randomness[31] ^= 1
	require.NotEqual(t, base, changed.Commitment())

	// memo and sender are not committed
	changed = *n
	changed.Memo = MemoFromString("different")
	changed.Sender = [32]byte{1}
	require.Equal(t, base, changed.Commitment())

	// two fresh notes with equal fields differ by randomness
	twin := NewNote(&owner.PublicKey, 10, "", rawtx.NativeAssetID, &owner.PublicKey)
	require.NotEqual(t, base, twin.Commitment())
}

func TestNoteCommitmentAssetAliases(t *testing.T) {
	owner, err := crypto.NewKey()
	require.NoError(t, err)

	// the native id is above the field modulus; its reduction is another id
	var alias [rawtx.AssetIDSize]byte
	copy(alias[:], utils.ToElementBytes(rawtx.NativeAssetID[:]))
	require.NotEqual(t, rawtx.NativeAssetID, alias)

	n := NewNote(&owner.PublicKey, 10, "", rawtx.NativeAssetID, &owner.PublicKey)
	aliased := *n
	aliased.Asset = alias
	require.NotEqual(t, n.Commitment(), aliased.Commitment())
	require.Equal(t, n.Commitment(), NoteCommitment(n.Blinding(), rawtx.NativeAssetID, 10))
}

func TestNullifier(t *testing.T) {
	owner, err := crypto.NewKey()
	require.NoError(t, err)
	other, err := crypto.NewKey()
	require.NoError(t, err)

	n := NewNote(&owner.PublicKey, 5, "", rawtx.NativeAssetID, &owner.PublicKey)
	nk := NullifierKey(owner)
	require.Equal(t, n.Nullifier(nk), n.Nullifier(NullifierKey(owner)))
	require.NotEqual(t, n.Nullifier(nk), n.Nullifier(NullifierKey(other)))
}

func TestMemo(t *testing.T) {
	long := "0123456789abcdef0123456789abcdefXYZ"
	m := MemoFromString(long)
	require.Equal(t, long[:32], m.String())
	require.Equal(t, "", Memo{}.String())
}

func TestAssetID(t *testing.T) {
	creator, err := crypto.NewKey()
	require.NoError(t, err)

	a, err := NewAsset(&creator.PublicKey, "gold", "shiny")
	require.NoError(t, err)
	b, err := NewAsset(&creator.PublicKey, "gold", "dull")
	require.NoError(t, err)
	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, a.ID(), a.ID())

	_, err = NewAsset(&creator.PublicKey, "", "")
	require.Error(t, err)
	_, err = NewAsset(&creator.PublicKey, string(make([]byte, 33)), "")
	require.Error(t, err)
	_, err = NewAsset(&creator.PublicKey, "x", string(make([]byte, 97)))
	require.Error(t, err)
}
