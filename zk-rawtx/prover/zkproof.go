package prover

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"
	"github.com/rs/zerolog"

	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/kysee/zkrawtx/zk-rawtx/types"
)

// CreateSpendProof proves that sk owns note and that the note commitment is
// included under w.RootHash. It returns the posted form of the spend, which
// only verifies in a transaction signed by sk. The solver reports to log.
func CreateSpendProof(cc *types.CompiledCircuit, sk *eddsa.PrivateKey, note *types.Note, w *rawtx.Witness, log zerolog.Logger) (*types.PostedSpend, error) {
	if w.Depth() != cc.Depth {
		return nil, fmt.Errorf("%w: path has %d levels, circuit %d", ErrDepthMismatch, w.Depth(), cc.Depth)
	}

	assignment, err := types.AssignSpend(sk, note, w)
	if err != nil {
		return nil, err
	}
	wtn, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	proof, err := plonk.Prove(
		cc.CCS,
		cc.ProvingKey,
		wtn,
		backend.WithSolverOptions(
			solver.WithLogger(log),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("prove spend: %w", err)
	}

	bufProof := bytes.NewBuffer(nil)
	if _, err := proof.WriteTo(bufProof); err != nil {
		return nil, err
	}

	root := make([]byte, len(w.RootHash))
	copy(root, w.RootHash)
	asset := note.Asset
	return &types.PostedSpend{
		TreeSize:  w.TreeSize,
		Root:      root,
		Nullifier: note.Nullifier(types.NullifierKey(sk)),
		AssetID:   asset[:],
		Value:     note.Amount,
		Proof:     bufProof.Bytes(),
	}, nil
}
