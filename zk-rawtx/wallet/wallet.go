// Package wallet tracks the notes a key owns and assembles raw
// transactions spending them.
package wallet

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/holiman/uint256"

	"github.com/kysee/zkrawtx/zk-rawtx/crypto"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/kysee/zkrawtx/zk-rawtx/types"
)

var (
	ErrInsufficientBalance = errors.New("wallet: insufficient balance")
	ErrTooManyNotes        = errors.New("wallet: amount needs too many notes")
)

// Ledger is the view of the chain a wallet needs: witnesses for its notes
// and whether a nullifier was revealed.
type Ledger interface {
	Witness(commitment []byte) (*rawtx.Witness, error)
	IsSpent(nullifier []byte) bool
}

type Wallet struct {
	Address string
	key     *eddsa.PrivateKey
	nk      []byte
	notes   []*types.Note
}

func New() (*Wallet, error) {
	sk, err := crypto.NewKey()
	if err != nil {
		return nil, err
	}
	return FromKey(sk), nil
}

func FromKey(sk *eddsa.PrivateKey) *Wallet {
	return &Wallet{
		Address: types.Pub2Addr(&sk.PublicKey),
		key:     sk,
		nk:      types.NullifierKey(sk),
	}
}

func (w *Wallet) PublicKey() *eddsa.PublicKey {
	return &w.key.PublicKey
}

// KeyBytes is the serialized private key handed to an engine.
func (w *Wallet) KeyBytes() []byte {
	return w.key.Bytes()
}

// AddNote records a note the wallet learned about out of band, such as a
// genesis allocation.
func (w *Wallet) AddNote(n *types.Note) error {
	if !n.Owner.Equal(&w.key.PublicKey) {
		return types.ErrNotOwner
	}
	if w.find(n.Commitment()) < 0 {
		w.notes = append(w.notes, n)
	}
	return nil
}

// Scan decrypts the outputs of a posted transaction and keeps those owned by
// the wallet. It returns the number of new notes.
func (w *Wallet) Scan(tx *types.PostedTransaction) int {
	found := 0
	for _, o := range tx.Outputs {
		enc := &types.EncryptedNote{EphemeralKey: o.EphemeralKey, Ciphertext: o.Ciphertext}
		n, err := enc.Decrypt(w.key)
		if err != nil {
			continue
		}
		// a note that does not open to the posted commitment is worthless
		if !bytes.Equal(n.Commitment(), o.Commitment) {
			continue
		}
		if w.find(o.Commitment) >= 0 {
			continue
		}
		w.notes = append(w.notes, n)
		found++
	}
	return found
}

// Sync drops the notes whose nullifier the ledger has seen.
func (w *Wallet) Sync(l Ledger) int {
	kept := w.notes[:0]
	for _, n := range w.notes {
		if !l.IsSpent(n.Nullifier(w.nk)) {
			kept = append(kept, n)
		}
	}
	dropped := len(w.notes) - len(kept)
	w.notes = kept
	return dropped
}

func (w *Wallet) Notes() []*types.Note {
	return append([]*types.Note(nil), w.notes...)
}

func (w *Wallet) Balance(asset [rawtx.AssetIDSize]byte) *uint256.Int {
	ret := uint256.NewInt(0)
	for _, n := range w.notes {
		if n.Asset == asset {
			ret.Add(ret, uint256.NewInt(n.Amount))
		}
	}
	return ret
}

// Payment is one output of a transaction the wallet creates. To is the
// recipient's address.
type Payment struct {
	To     string
	Asset  [rawtx.AssetIDSize]byte
	Amount uint64
	Memo   string
}

// CreateTransaction picks notes covering the payments and the fee, largest
// first and at most rawtx.MaxUTXOCount of them, and returns the raw
// transaction with their current witnesses. Change is left to the engine.
func (w *Wallet) CreateTransaction(l Ledger, payments []Payment, fee uint64, expiration *uint32) (*rawtx.RawTransaction, error) {
	need := make(map[[rawtx.AssetIDSize]byte]*uint256.Int)
	add := func(asset [rawtx.AssetIDSize]byte, v uint64) {
		if need[asset] == nil {
			need[asset] = uint256.NewInt(0)
		}
		need[asset].Add(need[asset], uint256.NewInt(v))
	}
	for _, p := range payments {
		add(p.Asset, p.Amount)
	}
	if fee > 0 {
		add(rawtx.NativeAssetID, fee)
	}

	assets := make([][rawtx.AssetIDSize]byte, 0, len(need))
	for a := range need {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return bytes.Compare(assets[i][:], assets[j][:]) < 0 })

	var spends []rawtx.Spend
	for _, asset := range assets {
		selected, err := w.selectNotes(asset, need[asset])
		if err != nil {
			return nil, err
		}
		for _, n := range selected {
			if len(spends) == rawtx.MaxUTXOCount {
				return nil, ErrTooManyNotes
			}
			witness, err := l.Witness(n.Commitment())
			if err != nil {
				return nil, fmt.Errorf("witness: %w", err)
			}
			spends = append(spends, rawtx.Spend{Note: n.Bytes(), Witness: *witness})
		}
	}

	outputs := make([]rawtx.Output, 0, len(payments))
	for i, p := range payments {
		to, err := types.Addr2Pub(p.To)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		n := types.NewNote(to, p.Amount, p.Memo, p.Asset, &w.key.PublicKey)
		outputs = append(outputs, rawtx.Output{Note: n.Bytes()})
	}

	return &rawtx.RawTransaction{
		Version:    rawtx.DefaultVersion,
		Fee:        fee,
		Expiration: expiration,
		Spends:     spends,
		Outputs:    outputs,
		Mints:      []rawtx.Mint{},
		Burns:      []rawtx.Burn{},
	}, nil
}

func (w *Wallet) selectNotes(asset [rawtx.AssetIDSize]byte, amount *uint256.Int) ([]*types.Note, error) {
	var candidates []*types.Note
	for _, n := range w.notes {
		if n.Asset == asset {
			candidates = append(candidates, n)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Amount > candidates[j].Amount })

	sum := uint256.NewInt(0)
	var selected []*types.Note
	for _, n := range candidates {
		if !sum.Lt(amount) {
			break
		}
		selected = append(selected, n)
		sum.Add(sum, uint256.NewInt(n.Amount))
	}
	if sum.Lt(amount) {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, sum.Dec(), amount.Dec())
	}
	return selected, nil
}

func (w *Wallet) find(commitment []byte) int {
	for i, n := range w.notes {
		if bytes.Equal(n.Commitment(), commitment) {
			return i
		}
	}
	return -1
}
