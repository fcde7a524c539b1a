package types

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	gnark_hash "github.com/consensys/gnark-crypto/hash"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
)

// PostedSpend reveals the asset and value of the spent note. Its proof is
// bound to them, to Root, to Nullifier and to the transaction signer.
type PostedSpend struct {
	TreeSize  uint64
	Root      []byte
	Nullifier []byte
	AssetID   []byte
	Value     uint64
	Proof     []byte
}

// PostedOutput carries a new note commitment with its opening minus the
// owner: Commitment must equal NoteCommitment(Blinding, AssetID, Value).
type PostedOutput struct {
	Commitment   []byte
	Blinding     []byte
	AssetID      []byte
	Value        uint64
	EphemeralKey []byte
	Ciphertext   []byte
}

// NewPostedOutput encrypts n to its owner and opens its value.
func NewPostedOutput(n *Note) (*PostedOutput, error) {
	enc, err := EncryptNote(n)
	if err != nil {
		return nil, err
	}
	asset := n.Asset
	return &PostedOutput{
		Commitment:   n.Commitment(),
		Blinding:     n.Blinding(),
		AssetID:      asset[:],
		Value:        n.Amount,
		EphemeralKey: enc.EphemeralKey,
		Ciphertext:   enc.Ciphertext,
	}, nil
}

// Opens reports whether the posted opening matches the commitment.
func (o *PostedOutput) Opens() bool {
	if len(o.AssetID) != rawtx.AssetIDSize {
		return false
	}
	var asset [rawtx.AssetIDSize]byte
	copy(asset[:], o.AssetID)
	return bytes.Equal(NoteCommitment(o.Blinding, asset, o.Value), o.Commitment)
}

type PostedMint struct {
	AssetID  []byte
	Name     string
	Metadata string
	Value    uint64
}

type PostedBurn struct {
	AssetID []byte
	Value   uint64
}

// PostedTransaction is a proven and signed transaction. Its RLP encoding
// is what Post returns and what a ledger accepts.
type PostedTransaction struct {
	Version    uint8
	Fee        uint64
	Expiration uint32
	Spends     []PostedSpend
	Outputs    []PostedOutput
	Mints      []PostedMint
	Burns      []PostedBurn
	PublicKey  []byte
	Signature  []byte
}

func DecodePostedTransaction(bz []byte) (*PostedTransaction, error) {
	tx := new(PostedTransaction)
	if err := rlp.DecodeBytes(bz, tx); err != nil {
		return nil, fmt.Errorf("decode posted transaction: %w", err)
	}
	return tx, nil
}

func (tx *PostedTransaction) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(tx)
}

// SigningHash is the MiMC hash of the encoding without the signature.
func (tx *PostedTransaction) SigningHash() ([]byte, error) {
	unsigned := *tx
	unsigned.Signature = nil
	bz, err := rlp.EncodeToBytes(&unsigned)
	if err != nil {
		return nil, err
	}
	return utils.MiMCHash(bz), nil
}

// Hash identifies the transaction, signature included.
func (tx *PostedTransaction) Hash() ([]byte, error) {
	bz, err := tx.Encode()
	if err != nil {
		return nil, err
	}
	return utils.MiMCHash(bz), nil
}

func (tx *PostedTransaction) ID() (string, error) {
	h, err := tx.Hash()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h), nil
}

func (tx *PostedTransaction) Sign(sk *eddsa.PrivateKey) error {
	tx.PublicKey = sk.PublicKey.Bytes()
	msg, err := tx.SigningHash()
	if err != nil {
		return err
	}
	sig, err := sk.Sign(msg, gnark_hash.MIMC_BN254.New())
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	tx.Signature = sig
	return nil
}

// VerifySignature checks Signature against PublicKey.
func (tx *PostedTransaction) VerifySignature() (bool, error) {
	pk := new(eddsa.PublicKey)
	if _, err := pk.SetBytes(tx.PublicKey); err != nil {
		return false, fmt.Errorf("signer public key: %w", err)
	}
	msg, err := tx.SigningHash()
	if err != nil {
		return false, err
	}
	return pk.Verify(tx.Signature, msg, gnark_hash.MIMC_BN254.New())
}

// Nullifiers lists the spend nullifiers in order.
func (tx *PostedTransaction) Nullifiers() [][]byte {
	ret := make([][]byte, len(tx.Spends))
	for i, s := range tx.Spends {
		ret[i] = s.Nullifier
	}
	return ret
}

// ValueBalance totals the transaction per asset. The fee leaves in the
// native asset. Asset ids must already be AssetIDSize bytes.
func (tx *PostedTransaction) ValueBalance() *ValueBalance {
	b := NewValueBalance()
	for _, s := range tx.Spends {
		b.AddIn(assetOf(s.AssetID), s.Value)
	}
	for _, m := range tx.Mints {
		b.AddIn(assetOf(m.AssetID), m.Value)
	}
	for _, o := range tx.Outputs {
		b.AddOut(assetOf(o.AssetID), o.Value)
	}
	for _, bn := range tx.Burns {
		b.AddOut(assetOf(bn.AssetID), bn.Value)
	}
	b.AddOut(rawtx.NativeAssetID, tx.Fee)
	return b
}

func assetOf(bz []byte) (id [rawtx.AssetIDSize]byte) {
	copy(id[:], bz)
	return
}

// HasDuplicateNullifier reports whether two spends reveal the same nullifier.
func (tx *PostedTransaction) HasDuplicateNullifier() bool {
	for i := range tx.Spends {
		for j := i + 1; j < len(tx.Spends); j++ {
			if bytes.Equal(tx.Spends[i].Nullifier, tx.Spends[j].Nullifier) {
				return true
			}
		}
	}
	return false
}
