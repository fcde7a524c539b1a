package store

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "db", "rawtx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRawTxRoundTrip(t *testing.T) {
	s := openTemp(t)

	raw := []byte{0x01, 0x02, 0x03}
	id, err := s.PutRawTx(raw)
	require.NoError(t, err)
	require.Equal(t, ID(raw), id)
	require.Len(t, id, 64)

	got, ok, err := s.GetRawTx(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, raw, got)

	_, ok, err = s.GetRawTx("missing")
	require.NoError(t, err)
	require.False(t, ok)

	again, err := s.PutRawTx(raw)
	require.NoError(t, err)
	require.Equal(t, id, again)

	ids, err := s.RawTxIDs()
	require.NoError(t, err)
	require.Equal(t, []string{id}, ids)
}

func TestCommitmentsAreSequential(t *testing.T) {
	s := openTemp(t)

	for i := 0; i < 3; i++ {
		idx, err := s.AppendCommitment(bytes.Repeat([]byte{byte(i)}, 32))
		require.NoError(t, err)
		require.Equal(t, uint64(i), idx)
	}

	id, err := s.ApplyPosted([]byte("posted"), [][]byte{{0xaa}, {0xbb}}, [][]byte{bytes.Repeat([]byte{9}, 32)})
	require.NoError(t, err)

	cs, err := s.Commitments()
	require.NoError(t, err)
	require.Len(t, cs, 4)
	require.Equal(t, bytes.Repeat([]byte{2}, 32), cs[2])
	require.Equal(t, bytes.Repeat([]byte{9}, 32), cs[3])

	posted, ok, err := s.GetPosted(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("posted"), posted)

	nfs, err := s.Nullifiers()
	require.NoError(t, err)
	require.Len(t, nfs, 2)
	require.Contains(t, nfs, []byte{0xaa})
}

func TestApplyPostedIsAtomic(t *testing.T) {
	s := openTemp(t)

	_, err := s.ApplyPosted([]byte("a"), [][]byte{{0x01}}, nil)
	require.NoError(t, err)

	// reused nullifier: nothing from the second call may be kept
	_, err = s.ApplyPosted([]byte("b"), [][]byte{{0x02}, {0x01}}, [][]byte{bytes.Repeat([]byte{1}, 32)})
	require.Error(t, err)

	nfs, err := s.Nullifiers()
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x01}}, nfs)
	cs, err := s.Commitments()
	require.NoError(t, err)
	require.Empty(t, cs)
	_, ok, err := s.GetPosted(ID([]byte("b")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawtx.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.AppendCommitment(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	cs, err := s.Commitments()
	require.NoError(t, err)
	require.Len(t, cs, 1)

	idx, err := s.AppendCommitment(bytes.Repeat([]byte{8}, 32))
	require.NoError(t, err)
	require.Equal(t, uint64(1), idx)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}
