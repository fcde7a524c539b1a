package rawtx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONShape(t *testing.T) {
	tx, err := Decode(loadFixture(t, "versioned.hex"))
	require.NoError(t, err)

	bz, err := json.Marshal(tx)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(bz, &generic))
	require.Equal(t, float64(1), generic["version"])
	require.Equal(t, "1", generic["fee"])
	require.Equal(t, float64(351649), generic["expiration"])
	require.Empty(t, generic["mints"])
	require.Empty(t, generic["burns"])

	spends := generic["spends"].([]interface{})
	require.Len(t, spends, 1)
	witness := spends[0].(map[string]interface{})["witness"].(map[string]interface{})
	require.Equal(t, "8647273", witness["treeSize"])
	require.Equal(t, "79adb8b50eb4671026ce9ae6ffc27031a61849f5846d46f263d707c3a8b3af63", witness["rootHash"])
	path := witness["authPath"].([]interface{})
	require.Len(t, path, 32)
	require.Equal(t, "Left", path[0].(map[string]interface{})["side"])
	require.Equal(t, "Right", path[1].(map[string]interface{})["side"])
}

func TestJSONRoundTrip(t *testing.T) {
	for _, tx := range []*RawTransaction{sampleTx(), {Version: 1}} {
		bz, err := json.Marshal(tx)
		require.NoError(t, err)

		var back RawTransaction
		require.NoError(t, json.Unmarshal(bz, &back))

		// re-encoding both sides gives identical wire bytes
		want, err := Encode(tx, LayoutVersioned)
		require.NoError(t, err)
		got, err := Encode(&back, LayoutVersioned)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestJSONNullExpiration(t *testing.T) {
	bz, err := json.Marshal(&RawTransaction{Version: 1, Fee: 18446744073709551615})
	require.NoError(t, err)
	require.Contains(t, string(bz), `"expiration":null`)
	require.Contains(t, string(bz), `"fee":"18446744073709551615"`)
}

func TestJSONRejectsBadValues(t *testing.T) {
	for _, in := range []string{
		`{"version":1,"fee":"-1"}`,
		`{"version":1,"fee":"18446744073709551616"}`,
		`{"version":1,"fee":"0","outputs":[{"note":"zz"}]}`,
		`{"version":1,"fee":"0","burns":[{"assetId":"00","value":"1"}]}`,
		`{"version":1,"fee":"0","spends":[{"note":"","witness":{"treeSize":"1","rootHash":"","authPath":[{"side":"Up","hashOfSibling":""}]}}]}`,
	} {
		var tx RawTransaction
		err := json.Unmarshal([]byte(in), &tx)
		require.ErrorIs(t, err, ErrInvalidField, in)
	}
}

func TestSideJSON(t *testing.T) {
	bz, err := json.Marshal([]Side{Left, Right})
	require.NoError(t, err)
	require.Equal(t, `["Left","Right"]`, string(bz))

	var sides []Side
	require.NoError(t, json.Unmarshal(bz, &sides))
	require.Equal(t, []Side{Left, Right}, sides)
}
