// Package engine describes the proving and signing collaborator a raw
// transaction is handed to, and drives it.
package engine

import (
	"errors"

	"github.com/kysee/zkrawtx/zk-rawtx/merkle"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
)

var (
	ErrNotInitialized = errors.New("engine: not initialized")
	ErrInvalidWitness = merkle.ErrInvalidWitness
)

// Note is a parsed note blob.
type Note interface {
	Bytes() []byte
	// Commitment is the leaf hash of the note in the note commitment tree.
	Commitment() []byte
	Value() uint64
	AssetID() [rawtx.AssetIDSize]byte
}

// Builder accumulates one transaction. Calls are positional: the order of
// Spend and Output calls is the order bound into the signature.
type Builder interface {
	Spend(note Note, witness *rawtx.Witness) error
	Output(note Note) error
	Mint(name, metadata string, value uint64) error
	Burn(assetID [rawtx.AssetIDSize]byte, value uint64) error
	SetExpiration(sequence uint32)
	// Post proves and signs the transaction and returns its serialized form.
	Post(signerKey []byte, fee uint64) ([]byte, error)
}

// Engine is the proving and signing library. Init must be called once
// before NewTransaction; it is safe to call it again.
type Engine interface {
	merkle.Combiner

	Init() error
	ParseNote(bz []byte) (Note, error)
	NewTransaction(spenderKey []byte, version uint8) (Builder, error)
}
