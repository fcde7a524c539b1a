package types

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/kysee/zkrawtx/zk-rawtx/crypto"
)

var ErrNotOwner = errors.New("note: not owned by this key")

// EncryptedNote is a note sealed to its owner under an ephemeral key.
type EncryptedNote struct {
	EphemeralKey []byte
	Ciphertext   []byte
}

func EncryptNote(n *Note) (*EncryptedNote, error) {
	epk, ct, err := crypto.EncryptTo(&n.Owner, n.Bytes())
	if err != nil {
		return nil, err
	}
	return &EncryptedNote{EphemeralKey: epk, Ciphertext: ct}, nil
}

// Decrypt opens the note with the owner's key.
func (e *EncryptedNote) Decrypt(sk *eddsa.PrivateKey) (*Note, error) {
	pt, err := crypto.DecryptFrom(sk, e.EphemeralKey, e.Ciphertext)
	if err != nil {
		return nil, err
	}
	n, err := ParseNote(pt)
	if err != nil {
		return nil, err
	}
	if !n.Owner.Equal(&sk.PublicKey) {
		return nil, ErrNotOwner
	}
	return n, nil
}
