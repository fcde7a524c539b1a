package engine

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kysee/zkrawtx/zk-rawtx/merkle"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/stretchr/testify/require"
)

type fakeNote struct {
	bz []byte
}

func (n *fakeNote) Bytes() []byte { return n.bz }

func (n *fakeNote) Commitment() []byte {
	h := sha256.Sum256(n.bz)
	return h[:]
}

func (n *fakeNote) Value() uint64 { return binary.LittleEndian.Uint64(n.bz) }

func (n *fakeNote) AssetID() [rawtx.AssetIDSize]byte { return rawtx.NativeAssetID }

type fakeBuilder struct {
	calls []string
}

func (b *fakeBuilder) Spend(note Note, w *rawtx.Witness) error {
	b.calls = append(b.calls, fmt.Sprintf("spend:%d:%d", note.Value(), w.TreeSize))
	return nil
}

func (b *fakeBuilder) Output(note Note) error {
	b.calls = append(b.calls, fmt.Sprintf("output:%d", note.Value()))
	return nil
}

func (b *fakeBuilder) Mint(name, metadata string, value uint64) error {
	b.calls = append(b.calls, fmt.Sprintf("mint:%s:%d", name, value))
	return nil
}

func (b *fakeBuilder) Burn(assetID [rawtx.AssetIDSize]byte, value uint64) error {
	b.calls = append(b.calls, fmt.Sprintf("burn:%d", value))
	return nil
}

func (b *fakeBuilder) SetExpiration(seq uint32) {
	b.calls = append(b.calls, fmt.Sprintf("expiration:%d", seq))
}

func (b *fakeBuilder) Post(signerKey []byte, fee uint64) ([]byte, error) {
	b.calls = append(b.calls, fmt.Sprintf("post:%s:%d", signerKey, fee))
	return []byte(strings.Join(b.calls, ",")), nil
}

type fakeEngine struct {
	merkle.CombineFunc
	builder *fakeBuilder
	version uint8
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{CombineFunc: func(level int, left, right []byte) []byte {
		h := sha256.New()
		h.Write([]byte{byte(level)})
		h.Write(left)
		h.Write(right)
		return h.Sum(nil)
	}}
}

func (e *fakeEngine) Init() error { return nil }

func (e *fakeEngine) ParseNote(bz []byte) (Note, error) {
	if len(bz) < 8 {
		return nil, errors.New("short note")
	}
	return &fakeNote{bz: bz}, nil
}

func (e *fakeEngine) NewTransaction(spenderKey []byte, version uint8) (Builder, error) {
	e.version = version
	e.builder = &fakeBuilder{}
	return e.builder, nil
}

func noteBytes(v uint64) []byte {
	bz := make([]byte, 16)
	binary.LittleEndian.PutUint64(bz, v)
	bz[15] = 0xee
	return bz
}

func sampleTx(t *testing.T, e *fakeEngine) *rawtx.RawTransaction {
	tree, err := merkle.NewTree(e, 4)
	require.NoError(t, err)

	notes := [][]byte{noteBytes(10), noteBytes(20), noteBytes(30)}
	for _, n := range notes {
		fn, _ := e.ParseNote(n)
		_, err := tree.Add(fn.Commitment())
		require.NoError(t, err)
	}
	w0, err := tree.Witness(0)
	require.NoError(t, err)
	w2, err := tree.Witness(2)
	require.NoError(t, err)

	exp := uint32(99)
	return &rawtx.RawTransaction{
		Version:    1,
		Fee:        3,
		Expiration: &exp,
		Spends: []rawtx.Spend{
			{Note: notes[2], Witness: *w2},
			{Note: notes[0], Witness: *w0},
		},
		Outputs: []rawtx.Output{{Note: noteBytes(37)}},
		Mints:   []rawtx.Mint{{Name: "gold", Metadata: "", Value: 5}},
		Burns:   []rawtx.Burn{{Value: 2}},
	}
}

func TestBuildPositionalOrder(t *testing.T) {
	e := newFakeEngine()
	tx := sampleTx(t, e)

	posted, err := Build(context.Background(), e, tx, []byte("key"), WithWorkers(2))
	require.NoError(t, err)
	require.Equal(t, uint8(1), e.version)
	require.Equal(t,
		"spend:30:3,spend:10:3,output:37,mint:gold:5,burn:2,expiration:99,post:key:3",
		string(posted))
}

func TestBuildNoExpiration(t *testing.T) {
	e := newFakeEngine()
	tx := sampleTx(t, e)
	tx.Expiration = nil

	_, err := Build(context.Background(), e, tx, []byte("k"))
	require.NoError(t, err)
	for _, c := range e.builder.calls {
		require.False(t, strings.HasPrefix(c, "expiration"))
	}
}

func TestBuildRejectsInvalidWitness(t *testing.T) {
	e := newFakeEngine()
	tx := sampleTx(t, e)
	tx.Spends[1].Witness.AuthPath[0].HashOfSibling = make([]byte, 32)

	_, err := Build(context.Background(), e, tx, []byte("k"))
	require.ErrorIs(t, err, ErrInvalidWitness)
	require.ErrorContains(t, err, "spend 1")
	// nothing reached the builder
	require.Nil(t, e.builder)
}

func TestBuildBadNote(t *testing.T) {
	e := newFakeEngine()
	tx := sampleTx(t, e)
	tx.Outputs[0].Note = []byte{1}

	_, err := Build(context.Background(), e, tx, []byte("k"))
	require.ErrorContains(t, err, "output 0: parse note")

	tx = sampleTx(t, e)
	tx.Spends[0].Note = nil
	_, err = Build(context.Background(), e, tx, []byte("k"))
	require.ErrorContains(t, err, "spend 0: parse note")
}
