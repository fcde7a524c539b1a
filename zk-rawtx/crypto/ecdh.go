package crypto

import (
	"errors"
	"fmt"
	"math/big"

	tedwards "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"golang.org/x/crypto/blake2s"
)

// SharedSecretSize is the size of an agreed secret and of the MAC key
// ExpandKey takes.
const SharedSecretSize = blake2s.Size

var (
	secretLabel = []byte("zkrawtx/ecdh")
	expandLabel = []byte("zkrawtx/note-key")
)

// ComputeSharedSecret agrees a secret between sk and other: the BLAKE2s
// hash of the compressed point sk*other under a domain label.
func ComputeSharedSecret(sk *eddsa.PrivateKey, other *eddsa.PublicKey) ([]byte, error) {
	if !other.A.IsOnCurve() {
		return nil, errors.New("other public key is not on curve")
	}
	if other.A.IsZero() {
		return nil, errors.New("other public key is the identity")
	}

	var shared tedwards.PointAffine
	shared.ScalarMultiplication(&other.A, new(big.Int).SetBytes(sk.Bytes()[32:64]))

	h, err := blake2s.New256(nil)
	if err != nil {
		return nil, err
	}
	point := shared.Bytes()
	h.Write(secretLabel)
	h.Write(point[:])
	return h.Sum(nil), nil
}

// ExpandKey stretches a shared secret into outputLen bytes. Each block is
// BLAKE2s-MAC keyed by the secret over the expansion label, the context
// and a one-byte counter, so the same secret yields unrelated material
// for different contexts.
func ExpandKey(sharedSecret, context []byte, outputLen int) ([]byte, error) {
	if len(sharedSecret) != SharedSecretSize {
		return nil, fmt.Errorf("shared secret must be %d bytes, got %d", SharedSecretSize, len(sharedSecret))
	}

	var stream []byte
	var counter byte = 1
	for len(stream) < outputLen {
		mac, err := blake2s.New256(sharedSecret)
		if err != nil {
			return nil, fmt.Errorf("blake2s: %w", err)
		}
		mac.Write(expandLabel)
		mac.Write(context)
		mac.Write([]byte{counter})
		stream = mac.Sum(stream)

		counter++
		if counter == 0 {
			return nil, errors.New("key expansion counter overflow")
		}
	}
	return stream[:outputLen], nil
}
