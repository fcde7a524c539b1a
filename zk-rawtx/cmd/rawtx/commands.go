package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kysee/zkrawtx/zk-rawtx/engine"
	"github.com/kysee/zkrawtx/zk-rawtx/merkle"
	"github.com/kysee/zkrawtx/zk-rawtx/prover"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx"
	"github.com/kysee/zkrawtx/zk-rawtx/rawtx/fixtures"
	"github.com/kysee/zkrawtx/zk-rawtx/store"
	"github.com/kysee/zkrawtx/zk-rawtx/types"
	"github.com/kysee/zkrawtx/zk-rawtx/verifier"
	"github.com/kysee/zkrawtx/zk-rawtx/wallet"
)

var (
	errUsage          = errors.New("usage")
	errInvalidWitness = errors.New("one or more witnesses are invalid")
)

type cli struct {
	opts *Opts
	cfg  *Config
	log  zerolog.Logger
	out  io.Writer
}

func (c *cli) layout() rawtx.Layout {
	if c.cfg.Unversioned {
		return rawtx.LayoutUnversioned
	}
	return rawtx.LayoutVersioned
}

// readHexFile reads a hex blob; whitespace anywhere in the file is ignored.
func readHexFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeHex(string(raw))
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.Join(strings.Fields(s), ""))
}

func (c *cli) readTx() (*rawtx.RawTransaction, error) {
	bz, err := readHexFile(c.opts.File)
	if err != nil {
		return nil, err
	}
	if c.opts.Prefix {
		tx, n, err := rawtx.DecodePrefix(bz, c.layout())
		if err != nil {
			return nil, err
		}
		c.log.Info().Int("consumed", n).Int("trailing", len(bz)-n).Msg("decoded prefix")
		return tx, nil
	}
	return rawtx.DecodeLayout(bz, c.layout())
}

func (c *cli) printJSON(v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(bz))
	return err
}

func (c *cli) decode() error {
	tx, err := c.readTx()
	if err != nil {
		return err
	}
	return c.printJSON(tx)
}

func (c *cli) size() error {
	tx, err := c.readTx()
	if err != nil {
		return err
	}
	posted, err := rawtx.Size(tx)
	if err != nil {
		return err
	}
	encoded, err := rawtx.EncodedLen(tx, c.layout())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "posted size: %d\nencoded length: %d\n", posted, encoded)
	return nil
}

// verify checks the witness of every spend against the leaf given for it,
// in order, with the MiMC combiner.
func (c *cli) verify() error {
	tx, err := c.readTx()
	if err != nil {
		return err
	}
	if len(c.opts.Leafhex) != len(tx.Spends) {
		return fmt.Errorf("%w: %d leaves given for %d spends", errUsage, len(c.opts.Leafhex), len(tx.Spends))
	}
	leaves := make(map[*rawtx.Spend][]byte, len(tx.Spends))
	for i, lh := range c.opts.Leafhex {
		leaf, err := decodeHex(lh)
		if err != nil {
			return fmt.Errorf("%w: leaf %d: %v", errUsage, i, err)
		}
		leaves[&tx.Spends[i]] = leaf
	}
	leafOf := func(s *rawtx.Spend) ([]byte, error) {
		return leaves[s], nil
	}

	valid, err := merkle.VerifySpends(context.Background(), merkle.MiMC{}, tx.Spends, leafOf, c.cfg.Workers)
	if err != nil {
		return err
	}
	allValid := true
	for i, ok := range valid {
		status := "valid"
		if !ok {
			status = "invalid"
			allValid = false
		}
		fmt.Fprintf(c.out, "spend %d: %s\n", i, status)
	}
	if !allValid {
		return errInvalidWitness
	}
	return nil
}

func (c *cli) openStore() (*store.Store, error) {
	st, err := store.Open(c.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("path", st.Path()).Msg("store opened")
	return st, nil
}

// importTx stores the transaction in the versioned layout, whatever layout
// it was read in.
func (c *cli) importTx() error {
	tx, err := c.readTx()
	if err != nil {
		return err
	}
	bz, err := rawtx.Encode(tx, rawtx.LayoutVersioned)
	if err != nil {
		return err
	}
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.PutRawTx(bz)
	if err != nil {
		return err
	}
	c.log.Info().Str("id", id).Int("bytes", len(bz)).Msg("raw transaction imported")
	fmt.Fprintln(c.out, id)
	return nil
}

func (c *cli) show() error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if c.opts.Posted {
		bz, ok, err := st.GetPosted(c.opts.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no posted transaction %s", c.opts.ID)
		}
		ptx, err := types.DecodePostedTransaction(bz)
		if err != nil {
			return err
		}
		return c.printJSON(newPostedView(c.opts.ID, ptx))
	}

	bz, ok, err := st.GetRawTx(c.opts.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no raw transaction %s", c.opts.ID)
	}
	tx, err := rawtx.Decode(bz)
	if err != nil {
		return err
	}
	return c.printJSON(tx)
}

func (c *cli) list() error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ids, err := st.RawTxIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(c.out, id)
	}
	return nil
}

// postedView is the JSON form of an accepted transaction: hashes in hex,
// values as decimal strings, the signer as an address.
type postedView struct {
	ID         string      `json:"id"`
	Version    uint8       `json:"version"`
	Fee        string      `json:"fee"`
	Expiration uint32      `json:"expiration"`
	Signer     string      `json:"signer"`
	Spends     []valueView `json:"spends"`
	Outputs    []valueView `json:"outputs"`
	Mints      []valueView `json:"mints"`
	Burns      []valueView `json:"burns"`
}

type valueView struct {
	// nullifier of a spend, commitment of an output
	Hash    string `json:"hash,omitempty"`
	AssetID string `json:"assetId"`
	Value   string `json:"value"`
}

func newPostedView(id string, tx *types.PostedTransaction) *postedView {
	v := &postedView{
		ID:         id,
		Version:    tx.Version,
		Fee:        strconv.FormatUint(tx.Fee, 10),
		Expiration: tx.Expiration,
		Signer:     types.EncodeAddress(tx.PublicKey),
		Spends:     []valueView{},
		Outputs:    []valueView{},
		Mints:      []valueView{},
		Burns:      []valueView{},
	}
	view := func(hash, asset []byte, value uint64) valueView {
		return valueView{Hash: hex.EncodeToString(hash), AssetID: hex.EncodeToString(asset), Value: strconv.FormatUint(value, 10)}
	}
	for _, s := range tx.Spends {
		v.Spends = append(v.Spends, view(s.Nullifier, s.AssetID, s.Value))
	}
	for _, o := range tx.Outputs {
		v.Outputs = append(v.Outputs, view(o.Commitment, o.AssetID, o.Value))
	}
	for _, m := range tx.Mints {
		v.Mints = append(v.Mints, view(nil, m.AssetID, m.Value))
	}
	for _, b := range tx.Burns {
		v.Burns = append(v.Burns, view(nil, b.AssetID, b.Value))
	}
	return v
}

func (c *cli) fixture() error {
	tx, err := rawtx.Decode(fixtures.Versioned())
	if err != nil {
		return err
	}
	return c.printJSON(tx)
}

// demo runs one transaction end to end: alice receives a genesis note on
// a fresh ledger, pays bob through the reference engine, and both wallets
// pick up their notes from the accepted transaction.
func (c *cli) demo() error {
	ctx := context.Background()
	depth := c.cfg.TreeDepth

	e := prover.NewEngine(depth, c.log)
	if err := e.Init(); err != nil {
		return err
	}
	cc, err := e.Circuit()
	if err != nil {
		return err
	}
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	ledger, err := verifier.NewLedger(depth, cc.VerifyingKey,
		verifier.WithLogger(c.log),
		verifier.WithWorkers(c.cfg.Workers),
		verifier.WithStore(st),
	)
	if err != nil {
		return err
	}

	alice, err := wallet.New()
	if err != nil {
		return err
	}
	bob, err := wallet.New()
	if err != nil {
		return err
	}
	genesis := types.NewNote(alice.PublicKey(), 1000, "genesis", rawtx.NativeAssetID, alice.PublicKey())
	if _, err := ledger.AddNoteCommitment(genesis.Commitment()); err != nil {
		return err
	}
	if err := alice.AddNote(genesis); err != nil {
		return err
	}

	expiration := uint32(1000)
	tx, err := alice.CreateTransaction(ledger, []wallet.Payment{
		{To: bob.Address, Asset: rawtx.NativeAssetID, Amount: 250, Memo: "demo"},
	}, 1, &expiration)
	if err != nil {
		return err
	}
	wire, err := rawtx.Encode(tx, rawtx.LayoutVersioned)
	if err != nil {
		return err
	}
	decoded, err := rawtx.Decode(wire)
	if err != nil {
		return err
	}
	size, err := rawtx.Size(decoded)
	if err != nil {
		return err
	}
	c.log.Info().Int("rawBytes", len(wire)).Uint64("postedSize", size).Msg("raw transaction encoded")

	posted, err := engine.Build(ctx, e, decoded, alice.KeyBytes(), engine.WithLogger(c.log), engine.WithWorkers(c.cfg.Workers))
	if err != nil {
		return err
	}
	ptx, err := ledger.Accept(ctx, posted)
	if err != nil {
		return err
	}
	id, err := ptx.ID()
	if err != nil {
		return err
	}

	alice.Sync(ledger)
	alice.Scan(ptx)
	bob.Scan(ptx)

	if _, err := st.PutRawTx(wire); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "posted id: %s\n", id)
	fmt.Fprintf(c.out, "posted bytes: %d\n", len(posted))
	fmt.Fprintf(c.out, "ledger root: %x\n", ledger.Root())
	fmt.Fprintf(c.out, "alice %s: %s\n", alice.Address, alice.Balance(rawtx.NativeAssetID).Dec())
	fmt.Fprintf(c.out, "bob %s: %s\n", bob.Address, bob.Balance(rawtx.NativeAssetID).Dec())
	return nil
}

// exportVerifier writes a Solidity contract verifying spend proofs of the
// configured depth.
func (c *cli) exportVerifier() error {
	cc, err := types.CompileCircuit(c.cfg.TreeDepth)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := cc.VerifyingKey.ExportSolidity(&buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.opts.Out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(c.opts.Out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	c.log.Info().Str("path", c.opts.Out).Int("depth", c.cfg.TreeDepth).Msg("solidity verifier generated")
	return nil
}
