package crypto

import (
	crand "crypto/rand"
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
)

const (
	PublicKeySize  = 32
	PrivateKeySize = 96
	SignatureSize  = 64
)

var ErrKeySize = errors.New("crypto: wrong key size")

func NewKey() (*eddsa.PrivateKey, error) {
	return eddsa.GenerateKey(crand.Reader)
}

// ParsePrivateKey reads a key serialized as publicKey||scalar||randSrc.
func ParsePrivateKey(bz []byte) (*eddsa.PrivateKey, error) {
	if len(bz) != PrivateKeySize {
		return nil, fmt.Errorf("%w: private key is %d bytes", ErrKeySize, len(bz))
	}
	sk := new(eddsa.PrivateKey)
	if _, err := sk.SetBytes(bz); err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return sk, nil
}

func ParsePublicKey(bz []byte) (*eddsa.PublicKey, error) {
	if len(bz) != PublicKeySize {
		return nil, fmt.Errorf("%w: public key is %d bytes", ErrKeySize, len(bz))
	}
	pk := new(eddsa.PublicKey)
	if _, err := pk.SetBytes(bz); err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return pk, nil
}

// ScalarHalves splits the secret scalar into its high and low 128 bits,
// both big-endian. scalar = hi * 2^128 + lo.
func ScalarHalves(sk *eddsa.PrivateKey) (hi, lo []byte) {
	s := sk.Bytes()[32:64]
	return s[:16], s[16:32]
}
