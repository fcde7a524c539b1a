package rawtx

// Size returns the serialized size of the posted transaction that tx will
// become once its spends are proven and its outputs encrypted. It is a
// capacity estimate for fee and block planning; the raw wire length of tx
// itself is given by EncodedLen.
func Size(tx *RawTransaction) (uint64, error) {
	if tx == nil {
		return 0, invalidField("nil transaction")
	}
	return sizeFor(recordCounts{
		spends:  uint64(len(tx.Spends)),
		outputs: uint64(len(tx.Outputs)),
		mints:   uint64(len(tx.Mints)),
		burns:   uint64(len(tx.Burns)),
	})
}

type recordCounts struct {
	spends, outputs, mints, burns uint64
}

// fixed part: spend count, output count, fee, expiration, signature
const postedHeaderSize = 8 + 8 + TransactionFeeSize + TransactionExpirationSize + TransactionSignatureSize

func sizeFor(c recordCounts) (uint64, error) {
	var acc lenAcc
	acc.add(postedHeaderSize)
	acc.mulAdd(c.outputs, OutputRecordSize)
	acc.mulAdd(c.mints, AssetRecordSize+AmountValueSize)
	acc.mulAdd(c.burns, AssetIDSize+AmountValueSize)
	acc.mulAdd(c.spends, SpendRecordSize)
	if acc.overflowed {
		return 0, overflow("transaction size overflows uint64")
	}
	return acc.n, nil
}
