package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alistairewj/oasis/logger"
	"github.com/alistairewj/oasis/oasis"
	"github.com/alistairewj/oasis/types"
	"github.com/alistairewj/oasis/utils"
)

type SeverityParams struct {
	Configurations []types.Configuration `json:"configurations"`
}

type Result struct {
	ConfigName string
	Data       interface{}
}

// Severity builds the severity scoring pipeline. Per request the payload is
// decoded once and every configuration produces its own response entry; the
// entries are assembled into one JSON document keyed by configuration name.
func Severity(params SeverityParams) (Pipeline, error) {
	oasisLogger := logger.NewLogger("Severity pipeline")
	oasisLogger.Info().
		Interface("params", params).
		Msg("Starting severity pipeline (see parameters in 'params' field)")

	if len(params.Configurations) == 0 {
		return nil, errors.New("no scoring configurations loaded")
	}

	return func(request Request) <-chan string {
		responseChan := make(chan string)
		pplnLog := oasisLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started severity pipeline")
		errLogger := pplnLog.With().Caller().Logger()

		go func() {
			fingerprint := fmt.Sprintf("%016x", utils.HashBytes(request.Table))

			var payload types.ScoringPayload
			decodeErr := json.Unmarshal(request.Table, &payload)
			if decodeErr != nil {
				errLogger.Err(decodeErr).Msg("Failed to decode measurement table")
			}

			resultChannel := make(chan Result)
			defer close(resultChannel)

			for _, cfg := range params.Configurations {
				go func(cfg types.Configuration) {
					if decodeErr != nil {
						resultChannel <- Result{
							ConfigName: cfg.Name,
							Data: types.ScoringError{
								Error:       decodeErr.Error(),
								Fingerprint: fingerprint,
							},
						}
						return
					}
					result := oasis.Score(payload.Measurements.Set())
					entry := types.NewScoringResponse(payload.EncounterID, result, fingerprint)
					if cfg.CheckFeature(types.SubscoresFeature) {
						entry = entry.WithSubscores(result)
					}
					if cfg.CheckFeature(types.MortalityFeature) {
						entry = entry.WithMortality(result)
					}
					resultChannel <- Result{
						ConfigName: cfg.Name,
						Data:       entry,
					}
				}(cfg)
			}

			response := make(map[string]interface{})
			for i := 0; i < len(params.Configurations); i++ {
				res := <-resultChannel
				pplnLog.Info().
					Str("config_name", res.ConfigName).
					Msg("Finished pipeline for configuration")
				response[res.ConfigName] = res.Data
			}

			buf, err := json.Marshal(response)
			if err != nil {
				errLogger.Err(err).Str("tid", request.Tid).Msg("Failed to marshall response")
			}
			pplnLog.Info().Msg("Finished severity pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}, nil
}
