package merkle

import (
	"context"
	"fmt"
	"runtime"

	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"golang.org/x/sync/errgroup"
)

// LeafHashFunc computes the leaf a spend's witness must authenticate,
// normally the commitment of the spent note.
type LeafHashFunc func(spend *rawtx.Spend) ([]byte, error)

// VerifySpends checks the witness of every spend independently on at most
// workers goroutines. result[i] belongs to spends[i]. An error is returned
// only when a leaf cannot be computed or ctx is cancelled; an invalid
// witness is a false entry.
func VerifySpends(ctx context.Context, c Combiner, spends []rawtx.Spend, leafHash LeafHashFunc, workers int) ([]bool, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]bool, len(spends))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range spends {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			leaf, err := leafHash(&spends[i])
			if err != nil {
				return fmt.Errorf("spend %d: %w", i, err)
			}
			results[i] = Verify(c, &spends[i].Witness, leaf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
