package decode

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	err := Missing("drawing", "$[0].number")
	require.ErrorIs(t, err, ErrDecode)

	var decodeErr *Error
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, "drawing", decodeErr.Kind)
	require.Equal(t, "$[0].number", decodeErr.Path)
	require.Contains(t, err.Error(), "$[0].number")
}

func TestPath(t *testing.T) {
	require.Equal(t, "$[2].revisions", Path(Path("$", 2), "revisions"))
	require.Equal(t, "id", Path("", "id"))
}

func TestEach_SkipsMalformed(t *testing.T) {
	raw := json.RawMessage(`["1","x","3"]`)
	got := Each(raw, func(elem json.RawMessage) (int, error) {
		var s string
		if err := json.Unmarshal(elem, &s); err != nil {
			return 0, err
		}
		return strconv.Atoi(s)
	})
	require.Equal(t, []int{1, 3}, got)

	require.Empty(t, Each(json.RawMessage(`null`), func(json.RawMessage) (int, error) { return 0, nil }))
	require.Empty(t, Each(json.RawMessage(`{"a":1}`), func(json.RawMessage) (int, error) { return 0, nil }))
}

func TestAll_FailsOnFirstError(t *testing.T) {
	raw := json.RawMessage(`[1,2,3]`)
	_, err := All("num", raw, func(elem json.RawMessage, path string) (int, error) {
		if string(elem) == "2" {
			return 0, Missing("num", path)
		}
		return 0, nil
	})
	require.ErrorIs(t, err, ErrDecode)
	require.Contains(t, err.Error(), "$[1]")

	_, err = All("num", json.RawMessage(`{}`), func(json.RawMessage, string) (int, error) { return 0, nil })
	require.ErrorIs(t, err, ErrDecode)
}

func TestOptional_JSON(t *testing.T) {
	type wrapper struct {
		Status Optional[string] `json:"status"`
	}

	data, err := json.Marshal(wrapper{Status: Present("approved")})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"approved"}`, string(data))

	data, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":null}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"status":"void"}`), &w))
	v, ok := w.Status.Get()
	require.True(t, ok)
	require.Equal(t, "void", v)

	w = wrapper{}
	require.NoError(t, json.Unmarshal([]byte(`{"status":null}`), &w))
	require.False(t, w.Status.Valid)
	require.Equal(t, "none", w.Status.Or("none"))
}

func TestText(t *testing.T) {
	for raw, want := range map[string]string{`"RFI-7"`: "RFI-7", `7`: "7", `7.5`: "7.5"} {
		got, ok := Text(json.RawMessage(raw))
		require.True(t, ok, raw)
		require.Equal(t, want, got)
	}
	for _, raw := range []string{``, `null`, `{}`, `[1]`, `true`} {
		_, ok := Text(json.RawMessage(raw))
		require.False(t, ok, raw)
	}
}
