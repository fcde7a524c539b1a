package rawtx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// JSON form: 64-bit integers are decimal strings and byte fields are hex,
// so the values survive readers without native 64-bit integers.

type jsonAuthNode struct {
	Side          string `json:"side"`
	HashOfSibling string `json:"hashOfSibling"`
}

type jsonWitness struct {
	TreeSize string         `json:"treeSize"`
	RootHash string         `json:"rootHash"`
	AuthPath []jsonAuthNode `json:"authPath"`
}

type jsonSpend struct {
	Note    string      `json:"note"`
	Witness jsonWitness `json:"witness"`
}

type jsonOutput struct {
	Note string `json:"note"`
}

type jsonMint struct {
	Name     string `json:"name"`
	Metadata string `json:"metadata"`
	Value    string `json:"value"`
}

type jsonBurn struct {
	AssetID string `json:"assetId"`
	Value   string `json:"value"`
}

type jsonRawTransaction struct {
	Version    uint8        `json:"version"`
	Fee        string       `json:"fee"`
	Expiration *uint32      `json:"expiration"`
	Spends     []jsonSpend  `json:"spends"`
	Outputs    []jsonOutput `json:"outputs"`
	Mints      []jsonMint   `json:"mints"`
	Burns      []jsonBurn   `json:"burns"`
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	side, err := parseSide(str)
	if err != nil {
		return err
	}
	*s = side
	return nil
}

func parseSide(s string) (Side, error) {
	switch s {
	case "Left":
		return Left, nil
	case "Right":
		return Right, nil
	default:
		return Left, invalidField("unknown side %q", s)
	}
}

func (tx *RawTransaction) MarshalJSON() ([]byte, error) {
	j := jsonRawTransaction{
		Version:    tx.Version,
		Fee:        strconv.FormatUint(tx.Fee, 10),
		Expiration: tx.Expiration,
		Spends:     make([]jsonSpend, 0, len(tx.Spends)),
		Outputs:    make([]jsonOutput, 0, len(tx.Outputs)),
		Mints:      make([]jsonMint, 0, len(tx.Mints)),
		Burns:      make([]jsonBurn, 0, len(tx.Burns)),
	}
	for _, s := range tx.Spends {
		path := make([]jsonAuthNode, 0, len(s.Witness.AuthPath))
		for _, node := range s.Witness.AuthPath {
			path = append(path, jsonAuthNode{
				Side:          node.Side.String(),
				HashOfSibling: hex.EncodeToString(node.HashOfSibling),
			})
		}
		j.Spends = append(j.Spends, jsonSpend{
			Note: hex.EncodeToString(s.Note),
			Witness: jsonWitness{
				TreeSize: strconv.FormatUint(s.Witness.TreeSize, 10),
				RootHash: hex.EncodeToString(s.Witness.RootHash),
				AuthPath: path,
			},
		})
	}
	for _, o := range tx.Outputs {
		j.Outputs = append(j.Outputs, jsonOutput{Note: hex.EncodeToString(o.Note)})
	}
	for _, m := range tx.Mints {
		j.Mints = append(j.Mints, jsonMint{
			Name:     m.Name,
			Metadata: m.Metadata,
			Value:    strconv.FormatUint(m.Value, 10),
		})
	}
	for _, b := range tx.Burns {
		j.Burns = append(j.Burns, jsonBurn{
			AssetID: hex.EncodeToString(b.AssetID[:]),
			Value:   strconv.FormatUint(b.Value, 10),
		})
	}
	return json.Marshal(&j)
}

func (tx *RawTransaction) UnmarshalJSON(b []byte) error {
	var j jsonRawTransaction
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}

	fee, err := parseDecimal("fee", j.Fee)
	if err != nil {
		return err
	}
	out := RawTransaction{
		Version:    j.Version,
		Fee:        fee,
		Expiration: j.Expiration,
		Spends:     make([]Spend, 0, len(j.Spends)),
		Outputs:    make([]Output, 0, len(j.Outputs)),
		Mints:      make([]Mint, 0, len(j.Mints)),
		Burns:      make([]Burn, 0, len(j.Burns)),
	}

	for i, s := range j.Spends {
		note, err := parseHex(fmt.Sprintf("spends[%d].note", i), s.Note)
		if err != nil {
			return err
		}
		treeSize, err := parseDecimal(fmt.Sprintf("spends[%d].treeSize", i), s.Witness.TreeSize)
		if err != nil {
			return err
		}
		root, err := parseHex(fmt.Sprintf("spends[%d].rootHash", i), s.Witness.RootHash)
		if err != nil {
			return err
		}
		path := make([]AuthNode, 0, len(s.Witness.AuthPath))
		for k, node := range s.Witness.AuthPath {
			side, err := parseSide(node.Side)
			if err != nil {
				return err
			}
			sib, err := parseHex(fmt.Sprintf("spends[%d].authPath[%d]", i, k), node.HashOfSibling)
			if err != nil {
				return err
			}
			path = append(path, AuthNode{Side: side, HashOfSibling: sib})
		}
		out.Spends = append(out.Spends, Spend{
			Note:    note,
			Witness: Witness{TreeSize: treeSize, RootHash: root, AuthPath: path},
		})
	}

	for i, o := range j.Outputs {
		note, err := parseHex(fmt.Sprintf("outputs[%d].note", i), o.Note)
		if err != nil {
			return err
		}
		out.Outputs = append(out.Outputs, Output{Note: note})
	}

	for i, m := range j.Mints {
		if err := checkAssetString("name", i, m.Name, AssetNameSize); err != nil {
			return err
		}
		if err := checkAssetString("metadata", i, m.Metadata, AssetMetadataSize); err != nil {
			return err
		}
		value, err := parseDecimal(fmt.Sprintf("mints[%d].value", i), m.Value)
		if err != nil {
			return err
		}
		out.Mints = append(out.Mints, Mint{Name: m.Name, Metadata: m.Metadata, Value: value})
	}

	for i, bn := range j.Burns {
		id, err := parseHex(fmt.Sprintf("burns[%d].assetId", i), bn.AssetID)
		if err != nil {
			return err
		}
		if len(id) != AssetIDSize {
			return invalidField("burns[%d].assetId is %d bytes, want %d", i, len(id), AssetIDSize)
		}
		value, err := parseDecimal(fmt.Sprintf("burns[%d].value", i), bn.Value)
		if err != nil {
			return err
		}
		burn := Burn{Value: value}
		copy(burn.AssetID[:], id)
		out.Burns = append(out.Burns, burn)
	}

	*tx = out
	return nil
}

func parseDecimal(field, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, invalidField("%s: %v", field, err)
	}
	return v, nil
}

func parseHex(field, s string) ([]byte, error) {
	bz, err := hex.DecodeString(s)
	if err != nil {
		return nil, invalidField("%s: %v", field, err)
	}
	return bz, nil
}
