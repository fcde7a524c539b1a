package crypto

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
)

// EncryptTo encrypts plaintext for recipient under a fresh ephemeral key.
// It returns the ephemeral public key and the ciphertext with its MAC.
func EncryptTo(recipient *eddsa.PublicKey, plaintext []byte) (ephemeralKey, ciphertext []byte, err error) {
	esk, err := NewKey()
	if err != nil {
		return nil, nil, fmt.Errorf("ephemeral key: %w", err)
	}
	epk := esk.PublicKey.Bytes()
	key, nonce, err := deriveKey(esk, recipient, epk)
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err = Seal(key, nonce, plaintext, epk)
	if err != nil {
		return nil, nil, err
	}
	return epk, ciphertext, nil
}

// DecryptFrom opens a ciphertext produced by EncryptTo for the owner of sk.
func DecryptFrom(sk *eddsa.PrivateKey, ephemeralKey, ciphertext []byte) ([]byte, error) {
	epk, err := ParsePublicKey(ephemeralKey)
	if err != nil {
		return nil, err
	}
	key, nonce, err := deriveKey(sk, epk, ephemeralKey)
	if err != nil {
		return nil, err
	}
	return Open(key, nonce, ciphertext, ephemeralKey)
}

// deriveKey binds the key material to the ephemeral key it was agreed
// under.
func deriveKey(sk *eddsa.PrivateKey, pk *eddsa.PublicKey, epk []byte) (key, nonce []byte, err error) {
	shared, err := ComputeSharedSecret(sk, pk)
	if err != nil {
		return nil, nil, err
	}
	material, err := ExpandKey(shared, epk, KeyMaterialSize)
	if err != nil {
		return nil, nil, err
	}
	return material[:32], material[32:], nil
}
