package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/consensys/gnark/backend/plonk"
	"github.com/rs/zerolog"

	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/merkle"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/kysee/zkrawtx/zk-rawtx/store"
	"github.com/kysee/zkrawtx/zk-rawtx/types"
)

var (
	ErrUnknownRoot        = errors.New("verifier: spend refers to an unknown root")
	ErrDoubleSpend        = errors.New("verifier: nullifier already revealed")
	ErrUnknownCommitment  = errors.New("verifier: commitment not in the tree")
	ErrDuplicateCommitted = errors.New("verifier: commitment already in the tree")
)

type ledgerOptions struct {
	log     zerolog.Logger
	store   *store.Store
	workers int
}

type Option func(*ledgerOptions)

func WithLogger(l zerolog.Logger) Option {
	return func(o *ledgerOptions) { o.log = l }
}

// WithStore makes the ledger load its state from s and write every change
// back to it.
func WithStore(s *store.Store) Option {
	return func(o *ledgerOptions) { o.store = s }
}

func WithWorkers(n int) Option {
	return func(o *ledgerOptions) { o.workers = n }
}

// Ledger is the state posted transactions are applied to. Every root the
// tree has had stays valid as a spend anchor. A Ledger is safe for
// concurrent use.
type Ledger struct {
	vk      plonk.VerifyingKey
	log     zerolog.Logger
	store   *store.Store
	workers int

	mu         sync.RWMutex
	tree       *merkle.Tree
	roots      map[string]struct{}
	nullifiers map[string]struct{}
	positions  map[string]uint64
}

func NewLedger(depth int, vk plonk.VerifyingKey, opts ...Option) (*Ledger, error) {
	o := ledgerOptions{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	tree, err := merkle.NewTree(merkle.MiMC{}, depth)
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		vk:         vk,
		log:        o.log,
		store:      o.store,
		workers:    o.workers,
		tree:       tree,
		roots:      make(map[string]struct{}),
		nullifiers: make(map[string]struct{}),
		positions:  make(map[string]uint64),
	}
	l.roots[string(tree.Root())] = struct{}{}

	if l.store != nil {
		if err := l.load(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Ledger) load() error {
	cs, err := l.store.Commitments()
	if err != nil {
		return err
	}
	for _, c := range cs {
		if err := l.push(c); err != nil {
			return fmt.Errorf("replay commitment: %w", err)
		}
	}
	nfs, err := l.store.Nullifiers()
	if err != nil {
		return err
	}
	for _, nf := range nfs {
		l.nullifiers[string(nf)] = struct{}{}
	}
	l.log.Info().Int("commitments", len(cs)).Int("nullifiers", len(nfs)).Msg("ledger loaded")
	return nil
}

func (l *Ledger) Depth() int {
	return l.tree.Depth()
}

func (l *Ledger) Size() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Size()
}

func (l *Ledger) Root() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Root()
}

// AddNoteCommitment appends a commitment outside of any transaction, e.g.
// a genesis allocation, and returns its position.
func (l *Ledger) AddNoteCommitment(c []byte) (uint64, error) {
	if len(c) != utils.HashSize {
		return 0, fmt.Errorf("%w: commitment is %d bytes", merkle.ErrHashLength, len(c))
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.positions[string(c)]; ok {
		return 0, ErrDuplicateCommitted
	}
	if !l.hasRoom(1) {
		return 0, merkle.ErrTreeFull
	}
	if l.store != nil {
		if _, err := l.store.AppendCommitment(c); err != nil {
			return 0, err
		}
	}
	if err := l.push(c); err != nil {
		return 0, err
	}
	return l.positions[string(c)], nil
}

// Witness returns the authentication path of a commitment against the
// current root.
func (l *Ledger) Witness(commitment []byte) (*rawtx.Witness, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.positions[string(commitment)]
	if !ok {
		return nil, ErrUnknownCommitment
	}
	return l.tree.Witness(idx)
}

func (l *Ledger) IsKnownRoot(root []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.roots[string(root)]
	return ok
}

func (l *Ledger) IsSpent(nullifier []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.nullifiers[string(nullifier)]
	return ok
}

// Accept verifies a posted transaction and applies it: its nullifiers are
// marked spent and its output commitments appended to the tree.
func (l *Ledger) Accept(ctx context.Context, bz []byte) (*types.PostedTransaction, error) {
	tx, err := VerifyPosted(ctx, bz, l.vk, l.tree.Depth(), l.workers)
	if err != nil {
		l.log.Warn().Err(err).Msg("posted transaction rejected")
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, s := range tx.Spends {
		if _, ok := l.roots[string(s.Root)]; !ok {
			return nil, fmt.Errorf("%w: spend %d", ErrUnknownRoot, i)
		}
		if _, ok := l.nullifiers[string(s.Nullifier)]; ok {
			l.log.Warn().Int("spend", i).Hex("nullifier", s.Nullifier).Msg("double spend")
			return nil, fmt.Errorf("%w: spend %d", ErrDoubleSpend, i)
		}
	}
	commitments := make([][]byte, len(tx.Outputs))
	seen := make(map[string]struct{}, len(tx.Outputs))
	for i, o := range tx.Outputs {
		_, dup := seen[string(o.Commitment)]
		if _, ok := l.positions[string(o.Commitment)]; ok || dup {
			return nil, fmt.Errorf("%w: output %d", ErrDuplicateCommitted, i)
		}
		seen[string(o.Commitment)] = struct{}{}
		commitments[i] = o.Commitment
	}
	if !l.hasRoom(len(commitments)) {
		return nil, merkle.ErrTreeFull
	}

	if l.store != nil {
		if _, err := l.store.ApplyPosted(bz, tx.Nullifiers(), commitments); err != nil {
			return nil, fmt.Errorf("persist: %w", err)
		}
	}
	for _, nf := range tx.Nullifiers() {
		l.nullifiers[string(nf)] = struct{}{}
	}
	for _, c := range commitments {
		if err := l.push(c); err != nil {
			return nil, err
		}
	}

	l.log.Info().
		Int("spends", len(tx.Spends)).
		Int("outputs", len(tx.Outputs)).
		Uint64("treeSize", l.tree.Size()).
		Msg("posted transaction accepted")
	return tx, nil
}

func (l *Ledger) hasRoom(n int) bool {
	return uint64(1)<<l.tree.Depth()-l.tree.Size() >= uint64(n)
}

// push appends c to the tree and records the new root. Callers hold mu.
func (l *Ledger) push(c []byte) error {
	idx, err := l.tree.Add(c)
	if err != nil {
		return err
	}
	l.positions[string(c)] = idx
	l.roots[string(l.tree.Root())] = struct{}{}
	return nil
}
