package rawtx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSizeConstants(t *testing.T) {
	require.Equal(t, 161, AssetRecordSize)
	require.Equal(t, 520, OutputRecordSize)
	require.Equal(t, 328, EncryptedNoteLength)
	require.Equal(t, 92, postedHeaderSize)
}

func TestSizeEmpty(t *testing.T) {
	n, err := Size(&RawTransaction{})
	require.NoError(t, err)
	require.Equal(t, uint64(92), n)
}

func TestSizeFixtures(t *testing.T) {
	tx, err := Decode(loadFixture(t, "versioned.hex"))
	require.NoError(t, err)
	n, err := Size(tx)
	require.NoError(t, err)
	require.Equal(t, uint64(92+520+388), n)

	tx, err = DecodeUnversioned(loadFixture(t, "unversioned.hex"))
	require.NoError(t, err)
	n, err = Size(tx)
	require.NoError(t, err)
	require.Equal(t, uint64(92+520+2*388), n)
}

func TestSizeCounts(t *testing.T) {
	for _, c := range []recordCounts{
		{},
		{spends: 1},
		{outputs: 3},
		{mints: 2, burns: 5},
		{spends: 10, outputs: 11, mints: 1, burns: 1},
	} {
		tx := &RawTransaction{
			Spends:  make([]Spend, c.spends),
			Outputs: make([]Output, c.outputs),
			Mints:   make([]Mint, c.mints),
			Burns:   make([]Burn, c.burns),
		}
		n, err := Size(tx)
		require.NoError(t, err)
		expected := 8 + 8 + 8 + 4 + 64 +
			c.outputs*OutputRecordSize +
			c.mints*(AssetRecordSize+8) +
			c.burns*(AssetIDSize+8) +
			c.spends*SpendRecordSize
		require.Equal(t, expected, n)
	}
}

func TestSizeOverflow(t *testing.T) {
	_, err := sizeFor(recordCounts{spends: math.MaxUint64 / 2})
	require.ErrorIs(t, err, ErrOverflow)

	_, err = sizeFor(recordCounts{outputs: math.MaxUint64/OutputRecordSize - 1, burns: math.MaxUint64 / 40})
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Size(nil)
	require.ErrorIs(t, err, ErrInvalidField)
}
