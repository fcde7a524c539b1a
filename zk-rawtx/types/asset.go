package types

import (
	"fmt"
	"unicode/utf8"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
)

// Asset is a custom asset created by a mint. Its identifier binds the
// creator, the name and the metadata.
type Asset struct {
	Creator  eddsa.PublicKey
	Name     string
	Metadata string
}

func NewAsset(creator *eddsa.PublicKey, name, metadata string) (*Asset, error) {
	if len(name) == 0 || len(name) > rawtx.AssetNameSize || !utf8.ValidString(name) {
		return nil, fmt.Errorf("asset name must be 1..%d bytes of utf-8", rawtx.AssetNameSize)
	}
	if len(metadata) > rawtx.AssetMetadataSize || !utf8.ValidString(metadata) {
		return nil, fmt.Errorf("asset metadata must be at most %d bytes of utf-8", rawtx.AssetMetadataSize)
	}
	a := &Asset{Name: name, Metadata: metadata}
	a.Creator.A.Set(&creator.A)
	return a, nil
}

func (a *Asset) ID() [rawtx.AssetIDSize]byte {
	var name [rawtx.AssetNameSize]byte
	var metadata [rawtx.AssetMetadataSize]byte
	copy(name[:], a.Name)
	copy(metadata[:], a.Metadata)

	var id [rawtx.AssetIDSize]byte
	copy(id[:], utils.MiMCHash(a.Creator.Bytes(), name[:], metadata[:]))
	return id
}
