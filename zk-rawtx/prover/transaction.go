package prover

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/rs/zerolog"

	"github.com/kysee/zkrawtx/zk-rawtx/crypto"
	"github.com/kysee/zkrawtx/zk-rawtx/engine"
	"github.com/kysee/zkrawtx/zk-rawtx/merkle"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/kysee/zkrawtx/zk-rawtx/types"
)

var (
	ErrDepthMismatch     = errors.New("prover: witness depth does not match the circuit")
	ErrUnsupportedNote   = errors.New("prover: note was not parsed by this engine")
	ErrInsufficientFunds = errors.New("prover: spends do not cover outputs")
	ErrZeroValue         = errors.New("prover: zero value")
	ErrNativeBurn        = errors.New("prover: the native asset cannot be burned")
	ErrAlreadyPosted     = errors.New("prover: transaction already posted")
	ErrForeignSigner     = errors.New("prover: spends must be signed by their owner")
)

// ProposedTransaction collects spends, outputs, mints and burns until Post
// proves and signs them. It is not safe for concurrent use.
type ProposedTransaction struct {
	cc      *types.CompiledCircuit
	spender *eddsa.PrivateKey
	log     zerolog.Logger

	version    uint8
	expiration uint32
	spends     []proposedSpend
	outputs    []*types.Note
	mints      []rawtx.Mint
	burns      []rawtx.Burn
	posted     bool
}

type proposedSpend struct {
	note    *types.Note
	witness *rawtx.Witness
}

var _ engine.Builder = (*ProposedTransaction)(nil)

func newProposedTransaction(cc *types.CompiledCircuit, spender *eddsa.PrivateKey, version uint8, log zerolog.Logger) *ProposedTransaction {
	return &ProposedTransaction{
		cc:      cc,
		spender: spender,
		version: version,
		log:     log,
	}
}

// Spend adds a note owned by the spender. The witness is checked natively
// before anything is proven.
func (t *ProposedTransaction) Spend(note engine.Note, w *rawtx.Witness) error {
	n, ok := note.(*types.Note)
	if !ok {
		return ErrUnsupportedNote
	}
	if !n.Owner.Equal(&t.spender.PublicKey) {
		return types.ErrNotOwner
	}
	if w.Depth() != t.cc.Depth {
		return fmt.Errorf("%w: path has %d levels, circuit %d", ErrDepthMismatch, w.Depth(), t.cc.Depth)
	}
	if err := merkle.Check(merkle.MiMC{}, w, n.Commitment()); err != nil {
		return err
	}
	t.spends = append(t.spends, proposedSpend{note: n, witness: cloneWitness(w)})
	return nil
}

func (t *ProposedTransaction) Output(note engine.Note) error {
	n, ok := note.(*types.Note)
	if !ok {
		return ErrUnsupportedNote
	}
	t.outputs = append(t.outputs, n)
	return nil
}

// Mint creates value of a custom asset owned by the transaction signer.
func (t *ProposedTransaction) Mint(name, metadata string, value uint64) error {
	if value == 0 {
		return ErrZeroValue
	}
	if _, err := types.NewAsset(&t.spender.PublicKey, name, metadata); err != nil {
		return err
	}
	t.mints = append(t.mints, rawtx.Mint{Name: name, Metadata: metadata, Value: value})
	return nil
}

func (t *ProposedTransaction) Burn(assetID [rawtx.AssetIDSize]byte, value uint64) error {
	if value == 0 {
		return ErrZeroValue
	}
	if assetID == rawtx.NativeAssetID {
		return ErrNativeBurn
	}
	t.burns = append(t.burns, rawtx.Burn{AssetID: assetID, Value: value})
	return nil
}

func (t *ProposedTransaction) SetExpiration(sequence uint32) {
	t.expiration = sequence
}

// Post balances every asset, returns the surplus to the spender as change
// notes, proves every spend and signs the result with signerKey.
func (t *ProposedTransaction) Post(signerKey []byte, fee uint64) ([]byte, error) {
	if t.posted {
		return nil, ErrAlreadyPosted
	}
	signer, err := crypto.ParsePrivateKey(signerKey)
	if err != nil {
		return nil, fmt.Errorf("signer key: %w", err)
	}
	if len(t.spends) > 0 && !signer.PublicKey.Equal(&t.spender.PublicKey) {
		return nil, ErrForeignSigner
	}

	mints := make([]types.PostedMint, len(t.mints))
	mintIDs := make([][rawtx.AssetIDSize]byte, len(t.mints))
	for i, m := range t.mints {
		asset, err := types.NewAsset(&signer.PublicKey, m.Name, m.Metadata)
		if err != nil {
			return nil, fmt.Errorf("mint %d: %w", i, err)
		}
		mintIDs[i] = asset.ID()
		mints[i] = types.PostedMint{AssetID: mintIDs[i][:], Name: m.Name, Metadata: m.Metadata, Value: m.Value}
	}

	change, err := t.changeNotes(fee, mintIDs)
	if err != nil {
		return nil, err
	}

	ptx := &types.PostedTransaction{
		Version:    t.version,
		Fee:        fee,
		Expiration: t.expiration,
		Spends:     make([]types.PostedSpend, 0, len(t.spends)),
		Outputs:    make([]types.PostedOutput, 0, len(t.outputs)+len(change)),
		Mints:      mints,
		Burns:      make([]types.PostedBurn, 0, len(t.burns)),
	}

	for i, s := range t.spends {
		start := time.Now()
		ps, err := CreateSpendProof(t.cc, t.spender, s.note, s.witness, t.log)
		if err != nil {
			return nil, fmt.Errorf("spend %d: %w", i, err)
		}
		t.log.Debug().Int("spend", i).Dur("took", time.Since(start)).Msg("spend proven")
		ptx.Spends = append(ptx.Spends, *ps)
	}

	for i, n := range append(append([]*types.Note{}, t.outputs...), change...) {
		out, err := types.NewPostedOutput(n)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		ptx.Outputs = append(ptx.Outputs, *out)
	}

	for _, b := range t.burns {
		id := b.AssetID
		ptx.Burns = append(ptx.Burns, types.PostedBurn{AssetID: id[:], Value: b.Value})
	}

	if err := ptx.Sign(signer); err != nil {
		return nil, err
	}
	bz, err := ptx.Encode()
	if err != nil {
		return nil, err
	}
	t.posted = true

	t.log.Info().
		Int("spends", len(ptx.Spends)).
		Int("outputs", len(ptx.Outputs)).
		Int("change", len(change)).
		Uint64("fee", fee).
		Msg("transaction signed")
	return bz, nil
}

// changeNotes checks that, for every asset, spends and mints cover outputs
// and burns (and the fee, for the native asset). The surplus of each asset
// goes back to the spender, ordered by asset id.
func (t *ProposedTransaction) changeNotes(fee uint64, mintIDs [][rawtx.AssetIDSize]byte) ([]*types.Note, error) {
	b := types.NewValueBalance()
	for _, s := range t.spends {
		b.AddIn(s.note.Asset, s.note.Amount)
	}
	for i, m := range t.mints {
		b.AddIn(mintIDs[i], m.Value)
	}
	for _, n := range t.outputs {
		b.AddOut(n.Asset, n.Amount)
	}
	for _, bn := range t.burns {
		b.AddOut(bn.AssetID, bn.Value)
	}
	b.AddOut(rawtx.NativeAssetID, fee)

	var change []*types.Note
	for _, id := range b.Assets() {
		have, need := b.In(id), b.Out(id)
		if have.Lt(need) {
			return nil, fmt.Errorf("%w: asset %s has %s, needs %s", ErrInsufficientFunds, hex.EncodeToString(id[:]), have.Dec(), need.Dec())
		}
		surplus := have.Sub(have, need)
		if surplus.IsZero() {
			continue
		}
		if !surplus.IsUint64() {
			return nil, fmt.Errorf("change of asset %s overflows a note value", hex.EncodeToString(id[:]))
		}
		change = append(change, types.NewNote(&t.spender.PublicKey, surplus.Uint64(), "change", id, &t.spender.PublicKey))
	}
	return change, nil
}

func cloneWitness(w *rawtx.Witness) *rawtx.Witness {
	c := &rawtx.Witness{
		TreeSize: w.TreeSize,
		RootHash: append([]byte(nil), w.RootHash...),
		AuthPath: make([]rawtx.AuthNode, len(w.AuthPath)),
	}
	for i, node := range w.AuthPath {
		c.AuthPath[i] = rawtx.AuthNode{Side: node.Side, HashOfSibling: append([]byte(nil), node.HashOfSibling...)}
	}
	return c
}
