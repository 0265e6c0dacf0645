package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alistairewj/oasis/pipeline"
	"github.com/alistairewj/oasis/types"
	"github.com/stretchr/testify/require"
)

func scoringPipeline(t *testing.T) pipeline.Pipeline {
	ppln, err := pipeline.Severity(pipeline.SeverityParams{
		Configurations: []types.Configuration{
			{Name: "severity", Pipeline: types.SeverityPipeline, Score: types.OasisScore},
		},
	})
	require.NoError(t, err)
	return ppln
}

func TestProcessData(t *testing.T) {
	handler := &Request{Pipeline: scoringPipeline(t)}

	t.Run("scores a posted table", func(t *testing.T) {
		body := `{
			"encounter_id": "enc-1",
			"measurements": {
				"prelos": [10], "age": [60], "GCS_total": [15], "hrate": [70],
				"MAP": [80], "resp_rate": [18], "temp_c": [36.5], "urine": [3000],
				"ventilated": ["y"], "admission_type": ["urgent"]
			}
		}`
		rec := httptest.NewRecorder()
		handler.ProcessData(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)

		var response map[string]types.ScoringResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		entry := response["severity"]
		require.NotNil(t, entry.Oasis)
		require.Equal(t, 21, *entry.Oasis)
	})

	t.Run("rejects non-POST methods", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ProcessData(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
