package verifier

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/engine"
	"github.com/kysee/zkrawtx/zk-rawtx/merkle"
	"github.com/kysee/zkrawtx/zk-rawtx/prover"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/kysee/zkrawtx/zk-rawtx/store"
	"github.com/kysee/zkrawtx/zk-rawtx/types"
)

func TestBuildAcceptDoubleSpend(t *testing.T) {
	if testing.Short() {
		t.Skip("compiles and proves a PLONK circuit")
	}
	ctx := context.Background()

	e := prover.NewEngine(testDepth, zerolog.Nop())
	require.NoError(t, e.Init())
	require.NoError(t, e.Init())
	cc, err := e.Circuit()
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(t.TempDir(), "rawtx.db"))
	require.NoError(t, err)
	defer st.Close()
	l, err := NewLedger(testDepth, cc.VerifyingKey, WithStore(st))
	require.NoError(t, err)

	alice, bob := newKey(t), newKey(t)
	genesis := types.NewNote(&alice.PublicKey, 100, "genesis", rawtx.NativeAssetID, &alice.PublicKey)
	_, err = l.AddNoteCommitment(genesis.Commitment())
	require.NoError(t, err)
	w, err := l.Witness(genesis.Commitment())
	require.NoError(t, err)

	exp := uint32(99)
	raw := &rawtx.RawTransaction{
		Version:    rawtx.DefaultVersion,
		Fee:        3,
		Expiration: &exp,
		Spends:     []rawtx.Spend{{Note: genesis.Bytes(), Witness: *w}},
		Outputs:    []rawtx.Output{{Note: types.NewNote(&bob.PublicKey, 40, "hi bob", rawtx.NativeAssetID, &alice.PublicKey).Bytes()}},
		Mints:      []rawtx.Mint{{Name: "gold", Value: 5}},
	}
	wire, err := rawtx.Encode(raw, rawtx.LayoutVersioned)
	require.NoError(t, err)
	decoded, err := rawtx.Decode(wire)
	require.NoError(t, err)

	posted, err := engine.Build(ctx, e, decoded, alice.Bytes())
	require.NoError(t, err)

	tx, err := l.Accept(ctx, posted)
	require.NoError(t, err)
	require.Equal(t, uint64(3), tx.Fee)
	require.Equal(t, exp, tx.Expiration)
	// bob's output, native change, minted gold back to alice
	require.Len(t, tx.Outputs, 3)
	require.Equal(t, uint64(4), l.Size())
	require.True(t, l.IsSpent(genesis.Nullifier(types.NullifierKey(alice))))

	got, err := (&types.EncryptedNote{EphemeralKey: tx.Outputs[0].EphemeralKey, Ciphertext: tx.Outputs[0].Ciphertext}).Decrypt(bob)
	require.NoError(t, err)
	require.Equal(t, uint64(40), got.Amount)
	require.Equal(t, "hi bob", got.Memo.String())

	change, err := (&types.EncryptedNote{EphemeralKey: tx.Outputs[1].EphemeralKey, Ciphertext: tx.Outputs[1].Ciphertext}).Decrypt(alice)
	require.NoError(t, err)
	gold, err := (&types.EncryptedNote{EphemeralKey: tx.Outputs[2].EphemeralKey, Ciphertext: tx.Outputs[2].Ciphertext}).Decrypt(alice)
	require.NoError(t, err)
	values := map[uint64]bool{change.Amount: true, gold.Amount: true}
	require.Equal(t, map[uint64]bool{57: true, 5: true}, values)

	_, err = l.Accept(ctx, posted)
	require.ErrorIs(t, err, ErrDoubleSpend)

	// the change note is spendable against the new tree
	cw, err := l.Witness(change.Commitment())
	require.NoError(t, err)
	require.True(t, merkle.Verify(e, cw, change.Commitment()))

	reloaded, err := NewLedger(testDepth, cc.VerifyingKey, WithStore(st))
	require.NoError(t, err)
	require.Equal(t, l.Root(), reloaded.Root())
	_, err = reloaded.Accept(ctx, posted)
	require.ErrorIs(t, err, ErrDoubleSpend)
}

func TestRejectsForeignRootAndForgedNullifier(t *testing.T) {
	if testing.Short() {
		t.Skip("compiles and proves a PLONK circuit")
	}
	ctx := context.Background()

	e := prover.NewEngine(testDepth, zerolog.Nop())
	require.NoError(t, e.Init())
	cc, err := e.Circuit()
	require.NoError(t, err)
	l, err := NewLedger(testDepth, cc.VerifyingKey)
	require.NoError(t, err)

	// a note committed to a tree the ledger never saw
	alice := newKey(t)
	tree, err := merkle.NewTree(merkle.MiMC{}, testDepth)
	require.NoError(t, err)
	n := types.NewNote(&alice.PublicKey, 10, "", rawtx.NativeAssetID, &alice.PublicKey)
	idx, err := tree.Add(n.Commitment())
	require.NoError(t, err)
	w, err := tree.Witness(idx)
	require.NoError(t, err)

	b, err := e.NewTransaction(alice.Bytes(), rawtx.DefaultVersion)
	require.NoError(t, err)
	require.NoError(t, b.Spend(n, w))
	posted, err := b.Post(alice.Bytes(), 10)
	require.NoError(t, err)
	_, err = b.Post(alice.Bytes(), 10)
	require.ErrorIs(t, err, prover.ErrAlreadyPosted)

	_, err = l.Accept(ctx, posted)
	require.ErrorIs(t, err, ErrUnknownRoot)

	forged, err := types.DecodePostedTransaction(posted)
	require.NoError(t, err)
	forged.Spends[0].Nullifier = utils.MiMCHash([]byte("another nullifier"))
	require.NoError(t, forged.Sign(alice))
	bz, err := forged.Encode()
	require.NoError(t, err)
	_, err = VerifyPosted(ctx, bz, cc.VerifyingKey, testDepth, 1)
	require.ErrorIs(t, err, ErrBadProof)
}

func TestRejectsProofsUnderAnotherSigner(t *testing.T) {
	if testing.Short() {
		t.Skip("compiles and proves a PLONK circuit")
	}
	ctx := context.Background()

	e := prover.NewEngine(testDepth, zerolog.Nop())
	require.NoError(t, e.Init())
	cc, err := e.Circuit()
	require.NoError(t, err)
	l, err := NewLedger(testDepth, cc.VerifyingKey)
	require.NoError(t, err)

	alice, bob, mallory := newKey(t), newKey(t), newKey(t)
	genesis := types.NewNote(&alice.PublicKey, 100, "", rawtx.NativeAssetID, &alice.PublicKey)
	_, err = l.AddNoteCommitment(genesis.Commitment())
	require.NoError(t, err)
	w, err := l.Witness(genesis.Commitment())
	require.NoError(t, err)

	b, err := e.NewTransaction(alice.Bytes(), rawtx.DefaultVersion)
	require.NoError(t, err)
	require.NoError(t, b.Spend(genesis, w))
	require.NoError(t, b.Output(types.NewNote(&bob.PublicKey, 97, "", rawtx.NativeAssetID, &alice.PublicKey)))
	posted, err := b.Post(alice.Bytes(), 3)
	require.NoError(t, err)

	// same spend proof and value, outputs redirected and signed by mallory
	lifted, err := types.DecodePostedTransaction(posted)
	require.NoError(t, err)
	out, err := types.NewPostedOutput(types.NewNote(&mallory.PublicKey, 97, "", rawtx.NativeAssetID, &mallory.PublicKey))
	require.NoError(t, err)
	lifted.Outputs = []types.PostedOutput{*out}
	require.NoError(t, lifted.Sign(mallory))
	bz, err := lifted.Encode()
	require.NoError(t, err)
	_, err = l.Accept(ctx, bz)
	require.ErrorIs(t, err, ErrBadProof)
	require.False(t, l.IsSpent(genesis.Nullifier(types.NullifierKey(alice))))

	// claiming more than the note holds breaks the proof too
	inflated, err := types.DecodePostedTransaction(posted)
	require.NoError(t, err)
	inflated.Spends[0].Value = 1000
	out, err = types.NewPostedOutput(types.NewNote(&alice.PublicKey, 997, "", rawtx.NativeAssetID, &alice.PublicKey))
	require.NoError(t, err)
	inflated.Outputs = []types.PostedOutput{*out}
	require.NoError(t, inflated.Sign(alice))
	bz, err = inflated.Encode()
	require.NoError(t, err)
	_, err = l.Accept(ctx, bz)
	require.ErrorIs(t, err, ErrBadProof)

	_, err = l.Accept(ctx, posted)
	require.NoError(t, err)
}
