package types

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/kysee/zkrawtx/zk-rawtx/crypto"
)

const (
	addrPrefix  = "bz"
	addrVersion = 0x01
)

// EncodeAddress renders a public key as "bz" + base58check.
func EncodeAddress(payload []byte) string {
	return addrPrefix + base58.CheckEncode(payload, addrVersion)
}

func DecodeAddress(addr string) ([]byte, error) {
	if !strings.HasPrefix(addr, addrPrefix) {
		return nil, fmt.Errorf("wrong prefix: %q", addr)
	}
	bz, ver, err := base58.CheckDecode(addr[len(addrPrefix):])
	if err != nil {
		return nil, err
	}
	if ver != addrVersion {
		return nil, fmt.Errorf("wrong version: expected(%d), got(%d)", addrVersion, ver)
	}
	return bz, nil
}

func Pub2Addr(pub *eddsa.PublicKey) string {
	return EncodeAddress(pub.Bytes())
}

func Addr2Pub(addr string) (*eddsa.PublicKey, error) {
	bz, err := DecodeAddress(addr)
	if err != nil {
		return nil, err
	}
	return crypto.ParsePublicKey(bz)
}
