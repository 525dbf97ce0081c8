package responseformat

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type sampleBody struct {
	Days  int    `json:"days"`
	Label string `json:"label"`
}

func TestWriteResponseDefaultsToJSON(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/health/summary", nil)

	err := f.WriteResponse(w, req, sampleBody{Days: 7, Label: "ok"}, map[string]string{"X-Extra": "1"})

	require.NoError(t, err)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "1", w.Header().Get("X-Extra"))
	assert.JSONEq(t, `{"days":7,"label":"ok"}`, w.Body.String())
}

func TestWriteResponseMsgPackUsesJSONTags(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/health/summary?format=msgpack", nil)

	err := f.WriteResponse(w, req, sampleBody{Days: 7, Label: "ok"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "application/x-msgpack", w.Header().Get("Content-Type"))

	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &decoded))
	assert.EqualValues(t, 7, decoded["days"])
	assert.Equal(t, "ok", decoded["label"])
}

func TestWriteRawJSONPassesBytesThrough(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/health/mood", nil)

	raw := `{"days":7,"mood":[{"labels":["calm"]}]}`
	require.NoError(t, f.WriteRawJSON(w, req, []byte(raw)))

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, raw, w.Body.String())
}

func TestWriteRawJSONMsgPackReencodesStructures(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/health/mood?format=msgpack", nil)

	require.NoError(t, f.WriteRawJSON(w, req, []byte(`{"labels":["calm","content"]}`)))

	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &decoded))
	labels, ok := decoded["labels"].([]any)
	require.True(t, ok, "labels should re-encode as an array, not a string")
	assert.Equal(t, "calm", labels[0])
}
