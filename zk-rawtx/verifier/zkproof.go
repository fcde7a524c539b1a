package verifier

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/frontend"

	"github.com/kysee/zkrawtx/zk-rawtx/types"
)

// VerifySpendProof checks one spend proof against its public inputs: the
// signer of the enclosing transaction, the asset and value it spends, the
// root it claims and the nullifier it reveals.
func VerifySpendProof(vk plonk.VerifyingKey, depth int, signer *eddsa.PublicKey, spend *types.PostedSpend) error {
	proof := plonk.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(spend.Proof)); err != nil {
		return fmt.Errorf("%w: %v", ErrBadProof, err)
	}

	pubWtn, err := frontend.NewWitness(
		types.AssignPublic(depth, signer, spend),
		ecc.BN254.ScalarField(),
		frontend.PublicOnly(),
	)
	if err != nil {
		return err
	}
	if err := plonk.Verify(proof, vk, pubWtn); err != nil {
		return fmt.Errorf("%w: %v", ErrBadProof, err)
	}
	return nil
}
