package crypto

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2s"
)

func TestKeyGeneration(t *testing.T) {
	sk, err := NewKey()
	require.NoError(t, err)
	require.True(t, sk.PublicKey.A.IsOnCurve())

	bz := sk.Bytes()
	require.Len(t, bz, PrivateKeySize)

	sk2, err := ParsePrivateKey(bz)
	require.NoError(t, err)
	require.Equal(t, bz, sk2.Bytes())

	pk, err := ParsePublicKey(sk.PublicKey.Bytes())
	require.NoError(t, err)
	require.True(t, pk.Equal(&sk.PublicKey))

	_, err = ParsePrivateKey(bz[:64])
	require.ErrorIs(t, err, ErrKeySize)
	_, err = ParsePublicKey(make([]byte, 31))
	require.ErrorIs(t, err, ErrKeySize)

	hi, lo := ScalarHalves(sk)
	require.Len(t, hi, 16)
	require.Len(t, lo, 16)
	require.Equal(t, bz[32:64], append(append([]byte(nil), hi...), lo...))
}

func TestSharedSecret(t *testing.T) {
	alice, err := NewKey()
	require.NoError(t, err)
	bob, err := NewKey()
	require.NoError(t, err)

	sa, err := ComputeSharedSecret(alice, &bob.PublicKey)
	require.NoError(t, err)
	sb, err := ComputeSharedSecret(bob, &alice.PublicKey)
	require.NoError(t, err)
	require.Equal(t, sa, sb)
	require.Len(t, sa, 32)

	ctx := alice.PublicKey.Bytes()
	ka, err := ExpandKey(sa, ctx, KeyMaterialSize)
	require.NoError(t, err)
	kb, err := ExpandKey(sb, ctx, KeyMaterialSize)
	require.NoError(t, err)
	require.Equal(t, ka, kb)
	require.Len(t, ka, 44)

	long, err := ExpandKey(sa, ctx, 100)
	require.NoError(t, err)
	require.Equal(t, ka, long[:44])

	_, err = ExpandKey(sa[:31], ctx, 44)
	require.Error(t, err)

	_, err = ComputeSharedSecret(alice, &eddsa.PublicKey{})
	require.Error(t, err, "not a curve point")
}

func TestExpandKeyIsKeyedBySecret(t *testing.T) {
	secret := bytes.Repeat([]byte{7}, SharedSecretSize)
	ctx := []byte("epk")

	k, err := ExpandKey(secret, ctx, 64)
	require.NoError(t, err)

	for i, counter := range []byte{1, 2} {
		mac, err := blake2s.New256(secret)
		require.NoError(t, err)
		mac.Write([]byte("zkrawtx/note-key"))
		mac.Write(ctx)
		mac.Write([]byte{counter})
		require.Equal(t, mac.Sum(nil), k[i*32:(i+1)*32])
	}

	other, err := ExpandKey(secret, []byte("another epk"), 64)
	require.NoError(t, err)
	require.NotEqual(t, k, other)

	secret[0] ^= 1
	flipped, err := ExpandKey(secret, ctx, 64)
	require.NoError(t, err)
	require.NotEqual(t, k, flipped)
}

func TestSealOpen(t *testing.T) {
	key := make([]byte, 32)
	nonce := make([]byte, 12)
	key[0], nonce[0] = 1, 2

	ct, err := Seal(key, nonce, []byte("hello"), []byte("adata"))
	require.NoError(t, err)
	require.Len(t, ct, 5+16)

	pt, err := Open(key, nonce, ct, []byte("adata"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), pt)

	_, err = Open(key, nonce, ct, []byte("other"))
	require.Error(t, err)

	_, err = Seal(key[:16], nonce, nil, nil)
	require.ErrorContains(t, err, "invalid key size")
	_, err = Seal(key, nonce[:8], nil, nil)
	require.ErrorContains(t, err, "invalid nonce size")
}

func TestEncryptTo(t *testing.T) {
	bob, err := NewKey()
	require.NoError(t, err)
	eve, err := NewKey()
	require.NoError(t, err)

	msg := []byte("a note for bob")
	epk, ct, err := EncryptTo(&bob.PublicKey, msg)
	require.NoError(t, err)
	require.Len(t, epk, PublicKeySize)

	pt, err := DecryptFrom(bob, epk, ct)
	require.NoError(t, err)
	require.Equal(t, msg, pt)

	_, err = DecryptFrom(eve, epk, ct)
	require.Error(t, err)

	// the ephemeral key is authenticated
	other, err := NewKey()
	require.NoError(t, err)
	_, err = DecryptFrom(bob, other.PublicKey.Bytes(), ct)
	require.Error(t, err)
}

func BenchmarkSharedSecret(b *testing.B) {
	alice, err := NewKey()
	require.NoError(b, err)
	bob, err := NewKey()
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := ComputeSharedSecret(alice, &bob.PublicKey)
		require.NoError(b, err)
	}
}
