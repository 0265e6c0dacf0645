package types

import (
	"encoding/json"

	"github.com/alistairewj/oasis/oasis"
)

// ScoringPayload is the per-encounter measurement table envelope fetched
// from object storage. Columns are independent series of observations taken
// during the first 24h of the encounter; they are not aligned row-wise and
// any of them may be absent or empty.
type ScoringPayload struct {
	EncounterID  string       `json:"encounter_id"`
	Measurements Measurements `json:"measurements"`
}

// Measurements decodes the columnar measurement table. JSON nulls inside a
// column are null observations and are skipped; a column that is missing,
// null, or empty decodes to an empty series. Unknown columns are ignored.
type Measurements struct {
	PreICUStay    FloatColumn  `json:"prelos"`
	Age           FloatColumn  `json:"age"`
	GCSTotal      FloatColumn  `json:"GCS_total"`
	HeartRate     FloatColumn  `json:"hrate"`
	MAP           FloatColumn  `json:"MAP"`
	RespRate      FloatColumn  `json:"resp_rate"`
	TempC         FloatColumn  `json:"temp_c"`
	Urine         FloatColumn  `json:"urine"`
	Ventilated    StringColumn `json:"ventilated"`
	AdmissionType StringColumn `json:"admission_type"`
}

// Set converts the decoded table into the scorer's input. Absent columns
// come through as zero observations, which the scorer propagates as an
// undefined sub-score; a payload missing a column never fails outright.
func (m Measurements) Set() oasis.MeasurementSet {
	return oasis.MeasurementSet{
		PreICUStay:    m.PreICUStay,
		Age:           m.Age,
		GCSTotal:      m.GCSTotal,
		HeartRate:     m.HeartRate,
		MAP:           m.MAP,
		RespRate:      m.RespRate,
		TempC:         m.TempC,
		Urine:         m.Urine,
		Ventilated:    m.Ventilated,
		AdmissionType: m.AdmissionType,
	}
}

type FloatColumn []float64

func (c *FloatColumn) UnmarshalJSON(b []byte) error {
	var values []*float64
	if err := json.Unmarshal(b, &values); err != nil {
		return err
	}
	column := make(FloatColumn, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		column = append(column, *v)
	}
	*c = column
	return nil
}

type StringColumn []string

func (c *StringColumn) UnmarshalJSON(b []byte) error {
	var values []*string
	if err := json.Unmarshal(b, &values); err != nil {
		return err
	}
	column := make(StringColumn, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		column = append(column, *v)
	}
	*c = column
	return nil
}
