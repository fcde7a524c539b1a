// Package verifier checks posted transactions and keeps the ledger state
// they are applied to: the note commitment tree, the roots it has had and
// the revealed nullifiers.
package verifier

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/plonk"
	"golang.org/x/sync/errgroup"

	"github.com/kysee/zkrawtx/zk-rawtx/crypto"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/kysee/zkrawtx/zk-rawtx/types"
)

var (
	ErrMalformed          = errors.New("verifier: malformed posted transaction")
	ErrBadSignature       = errors.New("verifier: bad signature")
	ErrBadProof           = errors.New("verifier: bad spend proof")
	ErrBadMint            = errors.New("verifier: mint does not match its signer")
	ErrDuplicateNullifier = errors.New("verifier: nullifier revealed twice")
	ErrBadOutput          = errors.New("verifier: output does not open to its asset and value")
	ErrUnbalanced         = errors.New("verifier: value is not conserved")
)

// VerifyPosted decodes a posted transaction and checks everything that does
// not depend on ledger state: field sizes, the signature, mint ownership,
// output openings, the per-asset value balance and every spend proof.
// Spend proofs must have been made by the signer. Proofs are checked on at
// most workers goroutines; zero means one per CPU.
func VerifyPosted(ctx context.Context, bz []byte, vk plonk.VerifyingKey, depth, workers int) (*types.PostedTransaction, error) {
	tx, err := types.DecodePostedTransaction(bz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := checkShape(tx); err != nil {
		return nil, err
	}

	ok, err := tx.VerifySignature()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !ok {
		return nil, ErrBadSignature
	}
	if tx.HasDuplicateNullifier() {
		return nil, ErrDuplicateNullifier
	}

	signer, err := crypto.ParsePublicKey(tx.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	for i, m := range tx.Mints {
		asset, err := types.NewAsset(signer, m.Name, m.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: mint %d: %v", ErrBadMint, i, err)
		}
		id := asset.ID()
		if !bytes.Equal(id[:], m.AssetID) {
			return nil, fmt.Errorf("%w: mint %d", ErrBadMint, i)
		}
	}

	for i := range tx.Outputs {
		if !tx.Outputs[i].Opens() {
			return nil, fmt.Errorf("%w: output %d", ErrBadOutput, i)
		}
	}
	if err := checkBalance(tx); err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range tx.Spends {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := VerifySpendProof(vk, depth, signer, &tx.Spends[i]); err != nil {
				return fmt.Errorf("spend %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tx, nil
}

// checkShape rejects fields the circuit or the ledger would otherwise read
// ambiguously. Hashes must be canonical field elements, or two encodings
// of one nullifier would both verify.
func checkShape(tx *types.PostedTransaction) error {
	for i, s := range tx.Spends {
		if err := canonical(s.Root); err != nil {
			return fmt.Errorf("%w: spend %d root: %v", ErrMalformed, i, err)
		}
		if err := canonical(s.Nullifier); err != nil {
			return fmt.Errorf("%w: spend %d nullifier: %v", ErrMalformed, i, err)
		}
		if len(s.AssetID) != rawtx.AssetIDSize {
			return fmt.Errorf("%w: spend %d asset id is %d bytes", ErrMalformed, i, len(s.AssetID))
		}
	}
	for i, o := range tx.Outputs {
		if err := canonical(o.Commitment); err != nil {
			return fmt.Errorf("%w: output %d commitment: %v", ErrMalformed, i, err)
		}
		if err := canonical(o.Blinding); err != nil {
			return fmt.Errorf("%w: output %d blinding: %v", ErrMalformed, i, err)
		}
		if len(o.AssetID) != rawtx.AssetIDSize {
			return fmt.Errorf("%w: output %d asset id is %d bytes", ErrMalformed, i, len(o.AssetID))
		}
		if len(o.EphemeralKey) != crypto.PublicKeySize {
			return fmt.Errorf("%w: output %d ephemeral key is %d bytes", ErrMalformed, i, len(o.EphemeralKey))
		}
		if len(o.Ciphertext) != types.NoteSize+rawtx.MACSize {
			return fmt.Errorf("%w: output %d ciphertext is %d bytes", ErrMalformed, i, len(o.Ciphertext))
		}
	}
	for i, m := range tx.Mints {
		if len(m.AssetID) != rawtx.AssetIDSize || m.Value == 0 {
			return fmt.Errorf("%w: mint %d", ErrMalformed, i)
		}
	}
	for i, b := range tx.Burns {
		if len(b.AssetID) != rawtx.AssetIDSize || b.Value == 0 {
			return fmt.Errorf("%w: burn %d", ErrMalformed, i)
		}
		if bytes.Equal(b.AssetID, rawtx.NativeAssetID[:]) {
			return fmt.Errorf("%w: burn %d of the native asset", ErrMalformed, i)
		}
	}
	if len(tx.PublicKey) != crypto.PublicKeySize || len(tx.Signature) != crypto.SignatureSize {
		return fmt.Errorf("%w: signer key or signature size", ErrMalformed)
	}
	return nil
}

// checkBalance requires every asset to leave the transaction exactly as it
// entered. Spends and mints go in; outputs, burns and the fee go out.
func checkBalance(tx *types.PostedTransaction) error {
	b := tx.ValueBalance()
	for _, id := range b.Assets() {
		in, out := b.In(id), b.Out(id)
		if !in.Eq(out) {
			return fmt.Errorf("%w: asset %s has %s in, %s out", ErrUnbalanced, hex.EncodeToString(id[:]), in.Dec(), out.Dec())
		}
	}
	return nil
}

func canonical(h []byte) error {
	if len(h) != fr.Bytes {
		return fmt.Errorf("%d bytes", len(h))
	}
	var e fr.Element
	return e.SetBytesCanonical(h)
}
