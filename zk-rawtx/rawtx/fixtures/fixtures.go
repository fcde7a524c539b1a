// Package fixtures embeds raw transactions captured from the chain, stored
// as hex with optional whitespace.
package fixtures

import (
	"embed"
	"encoding/hex"
	"strings"
)

//go:embed *.hex
var files embed.FS

// Load returns the bytes of the named fixture.
func Load(name string) ([]byte, error) {
	raw, err := files.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(strings.Join(strings.Fields(string(raw)), ""))
}

// Versioned is a one-spend transaction in the layout with a version byte.
func Versioned() []byte {
	return mustLoad("versioned.hex")
}

// Unversioned is a two-spend transaction in the layout without one.
func Unversioned() []byte {
	return mustLoad("unversioned.hex")
}

func mustLoad(name string) []byte {
	bz, err := Load(name)
	if err != nil {
		panic(err)
	}
	return bz
}
