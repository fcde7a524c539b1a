package rawtx

// Layout selects a wire-format variant. The two variants differ only in the
// presence of the leading version byte; nothing in the bytes tells them
// apart, so the caller has to know which one it holds.
type Layout uint8

const (
	// LayoutVersioned starts with a one-byte transaction version.
	LayoutVersioned Layout = iota
	// LayoutUnversioned starts directly with the fee; the version is DefaultVersion.
	LayoutUnversioned
)

func (l Layout) String() string {
	switch l {
	case LayoutVersioned:
		return "versioned"
	case LayoutUnversioned:
		return "unversioned"
	default:
		return "unknown"
	}
}

// minimal encoded sizes, used to reject impossible counts early
const (
	minSpendLen    = 1 + 8 + 1 + 8
	minAuthNodeLen = 1 + 1
	minOutputLen   = 1
	minMintLen     = 1 + 1 + AmountValueSize
	minBurnLen     = AssetIDSize + AmountValueSize
)

// Decode decodes a versioned raw transaction. The whole buffer must be
// consumed.
func Decode(b []byte) (*RawTransaction, error) {
	return DecodeLayout(b, LayoutVersioned)
}

// DecodeUnversioned decodes a raw transaction that carries no version byte.
func DecodeUnversioned(b []byte) (*RawTransaction, error) {
	return DecodeLayout(b, LayoutUnversioned)
}

// DecodeLayout decodes b with the given layout and fails if bytes remain
// after the record.
func DecodeLayout(b []byte, layout Layout) (*RawTransaction, error) {
	tx, n, err := DecodePrefix(b, layout)
	if err != nil {
		return nil, err
	}
	if n != len(b) {
		return nil, malformed("%d trailing bytes after transaction", len(b)-n)
	}
	return tx, nil
}

// DecodePrefix decodes one raw transaction from the start of b and returns
// the number of bytes consumed. Bytes after the record are not inspected.
func DecodePrefix(b []byte, layout Layout) (*RawTransaction, int, error) {
	off := 0
	tx := &RawTransaction{Version: DefaultVersion}

	switch layout {
	case LayoutVersioned:
		v, err := readU8(b, &off)
		if err != nil {
			return nil, 0, err
		}
		tx.Version = v
	case LayoutUnversioned:
	default:
		return nil, 0, invalidField("unknown layout %d", layout)
	}

	fee, err := readU64le(b, &off)
	if err != nil {
		return nil, 0, err
	}
	tx.Fee = fee

	spendCount, err := readCount(b, &off, "spend", minSpendLen)
	if err != nil {
		return nil, 0, err
	}
	tx.Spends = make([]Spend, 0, spendCount)
	for i := 0; i < spendCount; i++ {
		spend, err := readSpend(b, &off)
		if err != nil {
			return nil, 0, err
		}
		tx.Spends = append(tx.Spends, spend)
	}

	outCount, err := readCount(b, &off, "output", minOutputLen)
	if err != nil {
		return nil, 0, err
	}
	tx.Outputs = make([]Output, 0, outCount)
	for i := 0; i < outCount; i++ {
		note, err := readVarBytes(b, &off, "output note")
		if err != nil {
			return nil, 0, err
		}
		tx.Outputs = append(tx.Outputs, Output{Note: note})
	}

	mintCount, err := readCount(b, &off, "mint", minMintLen)
	if err != nil {
		return nil, 0, err
	}
	tx.Mints = make([]Mint, 0, mintCount)
	for i := 0; i < mintCount; i++ {
		name, err := readVarString(b, &off, "mint name", AssetNameSize)
		if err != nil {
			return nil, 0, err
		}
		metadata, err := readVarString(b, &off, "mint metadata", AssetMetadataSize)
		if err != nil {
			return nil, 0, err
		}
		value, err := readU64le(b, &off)
		if err != nil {
			return nil, 0, err
		}
		tx.Mints = append(tx.Mints, Mint{Name: name, Metadata: metadata, Value: value})
	}

	burnCount, err := readCount(b, &off, "burn", minBurnLen)
	if err != nil {
		return nil, 0, err
	}
	tx.Burns = make([]Burn, 0, burnCount)
	for i := 0; i < burnCount; i++ {
		id, err := readBytes(b, &off, AssetIDSize)
		if err != nil {
			return nil, 0, err
		}
		value, err := readU64le(b, &off)
		if err != nil {
			return nil, 0, err
		}
		burn := Burn{Value: value}
		copy(burn.AssetID[:], id)
		tx.Burns = append(tx.Burns, burn)
	}

	hasExpiration, err := readU8(b, &off)
	if err != nil {
		return nil, 0, err
	}
	if hasExpiration != 0 {
		expiration, err := readU32le(b, &off)
		if err != nil {
			return nil, 0, err
		}
		tx.Expiration = &expiration
	}

	return tx, off, nil
}

func readSpend(b []byte, off *int) (Spend, error) {
	note, err := readVarBytes(b, off, "spend note")
	if err != nil {
		return Spend{}, err
	}
	treeSize, err := readU64le(b, off)
	if err != nil {
		return Spend{}, err
	}
	rootHash, err := readVarBytes(b, off, "root hash")
	if err != nil {
		return Spend{}, err
	}
	depth, err := readCount(b, off, "auth path", minAuthNodeLen)
	if err != nil {
		return Spend{}, err
	}

	path := make([]AuthNode, 0, depth)
	for j := 0; j < depth; j++ {
		side, err := readU8(b, off)
		if err != nil {
			return Spend{}, err
		}
		sibling, err := readVarBytes(b, off, "sibling hash")
		if err != nil {
			return Spend{}, err
		}
		path = append(path, AuthNode{Side: sideFromByte(side), HashOfSibling: sibling})
	}

	return Spend{
		Note: note,
		Witness: Witness{
			TreeSize: treeSize,
			RootHash: rootHash,
			AuthPath: path,
		},
	}, nil
}
