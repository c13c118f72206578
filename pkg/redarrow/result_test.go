package redarrow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func presentFields(t *testing.T, r *CommandResult) map[string]bool {
	t.Helper()
	b, err := r.Marshal()
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))

	present := make(map[string]bool, len(m))
	for k := range m {
		present[k] = true
	}
	return present
}

func TestCommandResultRoundTripShapes(t *testing.T) {
	cases := []struct {
		name   string
		result *CommandResult
		fields []string
	}{
		{"ok", OK("out", "err", 0, 0.5, 1700000000), []string{"stdout", "stderr", "exit_code", "time_cost", "start_time"}},
		{"chunked_ok", ChunkedOK(2, 1.25, 1700000001), []string{"exit_code", "time_cost", "start_time"}},
		{"err", Err("Illegal Argument: Got 2 args (1 expected)"), []string{"error"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := presentFields(t, tc.result)

			body, err := tc.result.Marshal()
			require.NoError(t, err)

			decoded, err := Unmarshal(body)
			require.NoError(t, err)

			after := presentFields(t, decoded)
			assert.Equal(t, before, after)

			for _, f := range tc.fields {
				assert.True(t, before[f], "expected field %q present", f)
			}
			assert.Len(t, before, len(tc.fields))
		})
	}
}

func TestCommandResultHelpers(t *testing.T) {
	ok := OK("hi\n", "", 0, 0.01, 1.0)
	assert.False(t, ok.IsError())
	code, present := ok.GetExitCode()
	assert.True(t, present)
	assert.EqualValues(t, 0, code)

	errRes := Err("Unknown Command: nope")
	assert.True(t, errRes.IsError())
	assert.Equal(t, "Unknown Command: nope", errRes.ErrorMessage())
	_, present = errRes.GetExitCode()
	assert.False(t, present)
}
