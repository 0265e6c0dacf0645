package types

import (
	"math"

	"github.com/alistairewj/oasis/oasis"
)

// ScoringResponse is one configuration's entry in the pipeline response.
// Oasis is null when the total is undefined; Subscores and Mortality are
// present only when the configuration enables those features.
type ScoringResponse struct {
	EncounterID string            `json:"encounter_id"`
	Oasis       *int              `json:"oasis"`
	Subscores   map[string]*int   `json:"subscores,omitempty"`
	Mortality   *MortalitySection `json:"mortality,omitempty"`
	Missing     []string          `json:"missing"`
	Fingerprint string            `json:"fingerprint"`
}

// MortalitySection carries the published in-hospital mortality probability
// derived from a defined total score.
type MortalitySection struct {
	InHospital float64 `json:"in_hospital"`
}

// ScoringError replaces a response entry when the payload could not be
// decoded at all.
type ScoringError struct {
	EncounterID string `json:"encounter_id,omitempty"`
	Error       string `json:"error"`
	Fingerprint string `json:"fingerprint"`
}

// NewScoringResponse assembles a response entry from a scoring result.
func NewScoringResponse(encounterID string, result oasis.Result, fingerprint string) ScoringResponse {
	return ScoringResponse{
		EncounterID: encounterID,
		Oasis:       pointsValue(result.Total()),
		Missing:     result.Missing(),
		Fingerprint: fingerprint,
	}
}

// WithSubscores fills the per-variable sub-score map, preserving nulls for
// undefined variables.
func (resp ScoringResponse) WithSubscores(result oasis.Result) ScoringResponse {
	subscores := make(map[string]*int, len(oasis.Variables))
	for name, points := range result.SubScores() {
		subscores[name] = pointsValue(points)
	}
	resp.Subscores = subscores
	return resp
}

// WithMortality fills the mortality section; it stays null when the total
// is undefined.
func (resp ScoringResponse) WithMortality(result oasis.Result) ScoringResponse {
	p := oasis.MortalityProbability(result.Total())
	if math.IsNaN(p) {
		return resp
	}
	resp.Mortality = &MortalitySection{InHospital: p}
	return resp
}

func pointsValue(p oasis.Points) *int {
	v, ok := p.Value()
	if !ok {
		return nil
	}
	return &v
}
