package types

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	ecc_tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"
	std_tedwards "github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash"
	std_mimc "github.com/consensys/gnark/std/hash/mimc"
	std_eddsa "github.com/consensys/gnark/std/signature/eddsa"
	"github.com/consensys/gnark/test/unsafekzg"
	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/crypto"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
)

var E128 = new(big.Int).Lsh(big.NewInt(1), 128)

// SpendCircuit proves that the prover owns a note whose commitment is a leaf
// under Root, and that Nullifier is derived from that note and the owner's
// key. The path is walked exactly like merkle.Verify.
//
// Owner is public and must be the transaction signer, so a proof cannot be
// moved into a transaction signed by anyone else. The asset and value are
// public so the verifier can balance the transaction.
type SpendCircuit struct {
	curveID ecc_tedwards.ID

	// owner's secret scalar = SpendKey0 * 2^128 + SpendKey1
	SpendKey0 frontend.Variable
	SpendKey1 frontend.Variable

	Randomness frontend.Variable

	// Sides[i] is 0 when the running hash is the left child at level i
	Sides    []frontend.Variable
	Siblings []frontend.Variable

	Owner     std_eddsa.PublicKey `gnark:",public"`
	AssetHi   frontend.Variable   `gnark:",public"`
	AssetLo   frontend.Variable   `gnark:",public"`
	Value     frontend.Variable   `gnark:",public"`
	Root      frontend.Variable   `gnark:",public"`
	Nullifier frontend.Variable   `gnark:",public"`
}

// NewSpendCircuit allocates a circuit for a tree of the given depth.
func NewSpendCircuit(depth int) *SpendCircuit {
	return &SpendCircuit{
		curveID:  utils.CURVEID,
		Sides:    make([]frontend.Variable, depth),
		Siblings: make([]frontend.Variable, depth),
	}
}

func (cc *SpendCircuit) Define(api frontend.API) error {
	curve, err := std_tedwards.NewEdCurve(api, cc.curveID)
	if err != nil {
		return err
	}
	hasher, err := std_mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	_ = api.ToBinary(cc.AssetHi, 8*AssetHalfSize)
	_ = api.ToBinary(cc.AssetLo, 8*AssetHalfSize)
	_ = api.ToBinary(cc.Value, 64)

	cc.verifyOwnership(api, curve)
	commitment := cc.noteCommitment(&hasher)
	cc.verifyPath(api, &hasher, commitment)
	cc.verifyNullifier(api, &hasher, commitment)
	return nil
}

// verifyOwnership checks Owner == (SpendKey0 * 2^128 + SpendKey1) * Base.
func (cc *SpendCircuit) verifyOwnership(api frontend.API, curve std_tedwards.Curve) {
	_ = api.ToBinary(cc.SpendKey0, 128)
	_ = api.ToBinary(cc.SpendKey1, 128)

	base := std_tedwards.Point{}
	base.X = curve.Params().Base[0]
	base.Y = curve.Params().Base[1]

	c1 := curve.ScalarMul(base, cc.SpendKey0)
	c128 := curve.ScalarMul(c1, E128.Bytes())
	c2 := curve.ScalarMul(base, cc.SpendKey1)
	computed := curve.Add(c128, c2)

	curve.AssertIsOnCurve(computed)
	api.AssertIsEqual(cc.Owner.A.X, computed.X)
	api.AssertIsEqual(cc.Owner.A.Y, computed.Y)
}

// noteCommitment mirrors Note.Blinding and NoteCommitment.
func (cc *SpendCircuit) noteCommitment(hasher hash.FieldHasher) frontend.Variable {
	hasher.Reset()
	hasher.Write(cc.Owner.A.X, cc.Owner.A.Y, cc.Randomness)
	blinding := hasher.Sum()

	hasher.Reset()
	hasher.Write(blinding, cc.AssetHi, cc.AssetLo, cc.Value)
	return hasher.Sum()
}

func (cc *SpendCircuit) verifyPath(api frontend.API, hasher hash.FieldHasher, leaf frontend.Variable) {
	cur := leaf
	for i := range cc.Siblings {
		api.AssertIsBoolean(cc.Sides[i])
		left := api.Select(cc.Sides[i], cc.Siblings[i], cur)
		right := api.Select(cc.Sides[i], cur, cc.Siblings[i])

		hasher.Reset()
		hasher.Write(i, left, right)
		cur = hasher.Sum()
	}
	api.AssertIsEqual(cur, cc.Root)
}

func (cc *SpendCircuit) verifyNullifier(api frontend.API, hasher hash.FieldHasher, commitment frontend.Variable) {
	hasher.Reset()
	hasher.Write(cc.SpendKey0, cc.SpendKey1)
	nk := hasher.Sum()

	hasher.Reset()
	hasher.Write(nk, commitment)
	api.AssertIsEqual(cc.Nullifier, hasher.Sum())
}

// AssignSpend fills a full witness for spending note with sk along w.
func AssignSpend(sk *eddsa.PrivateKey, note *Note, w *rawtx.Witness) (*SpendCircuit, error) {
	if !note.Owner.Equal(&sk.PublicKey) {
		return nil, fmt.Errorf("note is not owned by the spending key")
	}
	hi, lo := crypto.ScalarHalves(sk)

	cc := NewSpendCircuit(w.Depth())
	cc.SpendKey0, cc.SpendKey1 = hi, lo
	cc.Randomness = utils.ToElementBytes(note.Randomness[:])
	for i, node := range w.AuthPath {
		cc.Sides[i] = uint8(node.Side)
		cc.Siblings[i] = utils.ToElementBytes(node.HashOfSibling)
	}

	cc.Owner.Assign(cc.curveID, note.Owner.Bytes())
	cc.AssetHi, cc.AssetLo = AssetHalves(note.Asset[:])
	cc.Value = note.Amount
	cc.Root = w.RootHash
	cc.Nullifier = note.Nullifier(NullifierKey(sk))
	return cc, nil
}

// AssignPublic fills only the public inputs, for verifying spend as part of
// a transaction signed by signer.
func AssignPublic(depth int, signer *eddsa.PublicKey, spend *PostedSpend) *SpendCircuit {
	cc := NewSpendCircuit(depth)
	cc.Owner.Assign(cc.curveID, signer.Bytes())
	cc.AssetHi, cc.AssetLo = AssetHalves(spend.AssetID)
	cc.Value = spend.Value
	cc.Root = spend.Root
	cc.Nullifier = spend.Nullifier
	return cc
}

// CompiledCircuit is a compiled SpendCircuit with its PLONK keys.
type CompiledCircuit struct {
	Depth        int
	CCS          constraint.ConstraintSystem
	ProvingKey   plonk.ProvingKey
	VerifyingKey plonk.VerifyingKey
}

// CompileCircuit compiles the spend circuit for the given tree depth and
// runs a PLONK setup.
func CompileCircuit(depth int) (*CompiledCircuit, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), scs.NewBuilder, NewSpendCircuit(depth))
	if err != nil {
		return nil, fmt.Errorf("compile spend circuit: %w", err)
	}

	// todo: Use safe SRS generation
	srs, srsLagrange, err := unsafekzg.NewSRS(ccs)
	if err != nil {
		return nil, fmt.Errorf("srs: %w", err)
	}
	pk, vk, err := plonk.Setup(ccs, srs, srsLagrange)
	if err != nil {
		return nil, fmt.Errorf("plonk setup: %w", err)
	}
	return &CompiledCircuit{Depth: depth, CCS: ccs, ProvingKey: pk, VerifyingKey: vk}, nil
}
