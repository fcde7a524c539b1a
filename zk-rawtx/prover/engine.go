// Package prover is the reference proving and signing engine. It proves
// note ownership and Merkle membership with a PLONK circuit over BN254 and
// signs posted transactions with EdDSA.
package prover

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/kysee/zkrawtx/utils"
	"github.com/kysee/zkrawtx/zk-rawtx/crypto"
	"github.com/kysee/zkrawtx/zk-rawtx/engine"
	"github.com/kysee/zkrawtx/zk-rawtx/types"
)

// DefaultDepth matches the authentication paths of the chain's note tree.
const DefaultDepth = 32

type Engine struct {
	depth int
	log   zerolog.Logger

	once  sync.Once
	setup atomic.Pointer[setupResult]
}

// setupResult is published once Init has finished.
type setupResult struct {
	circuit *types.CompiledCircuit
	err     error
}

var _ engine.Engine = (*Engine)(nil)

// NewEngine returns an engine proving membership in trees of the given
// depth. Nothing is compiled until Init.
func NewEngine(depth int, log zerolog.Logger) *Engine {
	return &Engine{depth: depth, log: log}
}

// Init compiles the spend circuit and runs its setup. Only the first call
// does any work; later calls return the first result.
func (e *Engine) Init() error {
	e.once.Do(func() {
		logger.Set(e.log)

		start := time.Now()
		cc, err := types.CompileCircuit(e.depth)
		e.setup.Store(&setupResult{circuit: cc, err: err})
		if err != nil {
			e.log.Error().Err(err).Int("depth", e.depth).Msg("spend circuit setup failed")
			return
		}
		e.log.Info().
			Int("depth", e.depth).
			Int("constraints", cc.CCS.GetNbConstraints()).
			Dur("took", time.Since(start)).
			Msg("spend circuit ready")
	})
	return e.setup.Load().err
}

func (e *Engine) Depth() int {
	return e.depth
}

// Circuit returns the compiled circuit, for verifiers sharing this setup.
// It is safe to call while another goroutine runs Init.
func (e *Engine) Circuit() (*types.CompiledCircuit, error) {
	r := e.setup.Load()
	if r == nil {
		return nil, engine.ErrNotInitialized
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.circuit, nil
}

func (e *Engine) CombineHash(level int, left, right []byte) []byte {
	return utils.CombineHash(level, left, right)
}

func (e *Engine) ParseNote(bz []byte) (engine.Note, error) {
	n, err := types.ParseNote(bz)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (e *Engine) NewTransaction(spenderKey []byte, version uint8) (engine.Builder, error) {
	cc, err := e.Circuit()
	if err != nil {
		return nil, err
	}
	sk, err := crypto.ParsePrivateKey(spenderKey)
	if err != nil {
		return nil, fmt.Errorf("spender key: %w", err)
	}
	return newProposedTransaction(cc, sk, version, e.log), nil
}
