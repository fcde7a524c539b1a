package engine

import (
	"context"
	"fmt"

	"github.com/kysee/zkrawtx/zk-rawtx/merkle"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/rs/zerolog"
)

type buildOptions struct {
	log     zerolog.Logger
	workers int
}

type Option func(*buildOptions)

func WithLogger(l zerolog.Logger) Option {
	return func(o *buildOptions) { o.log = l }
}

// WithWorkers bounds the witness checks run in parallel. Zero means one per CPU.
func WithWorkers(n int) Option {
	return func(o *buildOptions) { o.workers = n }
}

// Build hands tx to e and returns the posted transaction. Every spend
// witness is checked against the commitment of its note first; one invalid
// witness rejects the whole transaction with ErrInvalidWitness.
func Build(ctx context.Context, e Engine, tx *rawtx.RawTransaction, spenderKey []byte, opts ...Option) ([]byte, error) {
	o := buildOptions{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	spendNotes := make([]Note, len(tx.Spends))
	for i := range tx.Spends {
		n, err := e.ParseNote(tx.Spends[i].Note)
		if err != nil {
			return nil, fmt.Errorf("spend %d: parse note: %w", i, err)
		}
		spendNotes[i] = n
	}

	leafOf := func(s *rawtx.Spend) ([]byte, error) {
		n, err := e.ParseNote(s.Note)
		if err != nil {
			return nil, err
		}
		return n.Commitment(), nil
	}
	valid, err := merkle.VerifySpends(ctx, e, tx.Spends, leafOf, o.workers)
	if err != nil {
		return nil, err
	}
	for i, ok := range valid {
		if !ok {
			o.log.Warn().Int("spend", i).Uint64("treeSize", tx.Spends[i].Witness.TreeSize).Msg("witness does not match root")
			return nil, fmt.Errorf("%w: spend %d", ErrInvalidWitness, i)
		}
	}

	b, err := e.NewTransaction(spenderKey, tx.Version)
	if err != nil {
		return nil, fmt.Errorf("new transaction: %w", err)
	}
	for i := range tx.Spends {
		if err := b.Spend(spendNotes[i], &tx.Spends[i].Witness); err != nil {
			return nil, fmt.Errorf("spend %d: %w", i, err)
		}
	}
	for i, out := range tx.Outputs {
		n, err := e.ParseNote(out.Note)
		if err != nil {
			return nil, fmt.Errorf("output %d: parse note: %w", i, err)
		}
		if err := b.Output(n); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
	}
	for i, m := range tx.Mints {
		if err := b.Mint(m.Name, m.Metadata, m.Value); err != nil {
			return nil, fmt.Errorf("mint %d: %w", i, err)
		}
	}
	for i, bn := range tx.Burns {
		if err := b.Burn(bn.AssetID, bn.Value); err != nil {
			return nil, fmt.Errorf("burn %d: %w", i, err)
		}
	}
	if tx.Expiration != nil {
		b.SetExpiration(*tx.Expiration)
	}

	posted, err := b.Post(spenderKey, tx.Fee)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	o.log.Debug().
		Int("spends", len(tx.Spends)).
		Int("outputs", len(tx.Outputs)).
		Uint32("expiration", tx.ExpirationOrZero()).
		Int("bytes", len(posted)).
		Msg("transaction posted")
	return posted, nil
}
