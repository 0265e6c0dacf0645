package api

import (
	"io"
	"net/http"

	"github.com/alistairewj/oasis/metrics"
	"github.com/alistairewj/oasis/pipeline"
	"github.com/google/uuid"
)

// Request handles synchronous scoring over REST: the request body is one
// measurement table payload and the response is the pipeline's JSON
// document. Counters may be nil when metrics are disabled.
type Request struct {
	Pipeline pipeline.Pipeline
	Counters *metrics.RequestCounters
}

func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r)

	if r.Method != "POST" {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		req.Counters.Record(http.StatusMethodNotAllowed)
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	table, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		req.Counters.Record(http.StatusBadRequest)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	request := pipeline.Request{
		Tid:   uuid.NewString(),
		Table: table,
	}
	logger.Info().Str("tid", request.Tid).Msg("Starting pipeline for request from API")
	resp := <-req.Pipeline(request)
	_, _ = w.Write([]byte(resp))
	req.Counters.Record(http.StatusOK)
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}
