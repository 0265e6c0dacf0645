// Package oasis computes the Oxford Acute Severity of Illness Score from
// ten clinical variables measured during the first 24 hours of an ICU
// admission. Breakpoints and reduction rules follow the published score
// definition (Johnson AE, Kramer AA, Clifford GD. Crit Care Med. 2013
// Jul;41(7):1711-8).
package oasis

import "math"

// Variable column names, as they appear in the source measurement tables.
const (
	VarPreICUStay    = "prelos"
	VarAge           = "age"
	VarGCSTotal      = "GCS_total"
	VarHeartRate     = "hrate"
	VarMAP           = "MAP"
	VarRespRate      = "resp_rate"
	VarTempC         = "temp_c"
	VarUrine         = "urine"
	VarVentilated    = "ventilated"
	VarAdmissionType = "admission_type"
)

// Variables lists the ten scored variables in the published table order.
var Variables = []string{
	VarPreICUStay,
	VarAge,
	VarGCSTotal,
	VarHeartRate,
	VarMAP,
	VarRespRate,
	VarTempC,
	VarUrine,
	VarVentilated,
	VarAdmissionType,
}

// MeasurementSet holds the observations collected for a single patient
// encounter during the scoring window. Each column may carry any number of
// rows, including zero; columns are not aligned with each other. NaN
// entries are null observations.
type MeasurementSet struct {
	PreICUStay    []float64 `json:"prelos"`
	Age           []float64 `json:"age"`
	GCSTotal      []float64 `json:"GCS_total"`
	HeartRate     []float64 `json:"hrate"`
	MAP           []float64 `json:"MAP"`
	RespRate      []float64 `json:"resp_rate"`
	TempC         []float64 `json:"temp_c"`
	Urine         []float64 `json:"urine"`
	Ventilated    []string  `json:"ventilated"`
	AdmissionType []string  `json:"admission_type"`
}

type band struct {
	points  int
	matches func(v float64) bool
}

// A table is an ordered list of bands; classification takes the first
// matching band. Bands are enumerated in the published score's order and
// must not be "normalized": the gaps and split bands are part of the score
// definition.
type table []band

// classify returns the point value of the first band matching v. NaN and
// values falling into a gap between bands classify as undefined.
func (t table) classify(v float64) Points {
	for _, b := range t {
		if b.matches(v) {
			return PointsOf(b.points)
		}
	}
	return Undefined()
}

// Pre-ICU length of stay, hours.
var preICUStayTable = table{
	{0, func(v float64) bool { return v >= 4.95 && v <= 24.0 }},
	{1, func(v float64) bool { return v > 311.8 }},
	{2, func(v float64) bool { return v > 24.0 && v <= 311.8 }},
	{3, func(v float64) bool { return v >= 0.17 && v < 4.95 }},
	{5, func(v float64) bool { return v < 0.17 }},
}

// Age, years.
var ageTable = table{
	{0, func(v float64) bool { return v < 24 }},
	{3, func(v float64) bool { return v >= 24 && v <= 53 }},
	{6, func(v float64) bool { return v > 53 && v <= 77 }},
	{9, func(v float64) bool { return v > 77 && v <= 89 }},
	{7, func(v float64) bool { return v > 89 }},
}

// Total Glasgow Coma Scale.
var gcsTotalTable = table{
	{0, func(v float64) bool { return v == 15 }},
	{3, func(v float64) bool { return v == 14 }},
	{4, func(v float64) bool { return v >= 8 && v <= 13 }},
	{10, func(v float64) bool { return v >= 3 && v <= 7 }},
}

// Heart rate, beats/min.
var heartRateTable = table{
	{0, func(v float64) bool { return v >= 33 && v <= 88 }},
	{1, func(v float64) bool { return v > 88 && v <= 106 }},
	{3, func(v float64) bool { return v > 106 && v <= 125 }},
	{4, func(v float64) bool { return v < 33 }},
	{6, func(v float64) bool { return v > 125 }},
}

// Mean arterial pressure, mmHg. The 3-point band is split around the
// 0-point band in the published table.
var mapTable = table{
	{0, func(v float64) bool { return v >= 61.33 && v <= 143.44 }},
	{2, func(v float64) bool { return v >= 51.0 && v < 61.33 }},
	{3, func(v float64) bool { return (v >= 20.65 && v < 51.0) || v > 143.44 }},
	{4, func(v float64) bool { return v < 20.65 }},
}

// Respiratory rate, breaths/min. The published bands leave (12,13) and
// (22,23) uncovered; values there classify as undefined.
var respRateTable = table{
	{0, func(v float64) bool { return v >= 13 && v <= 22 }},
	{1, func(v float64) bool { return (v >= 6 && v <= 12) || (v >= 23 && v <= 30) }},
	{6, func(v float64) bool { return v > 30 && v <= 44 }},
	{9, func(v float64) bool { return v > 44 }},
	{10, func(v float64) bool { return v < 6 }},
}

// Temperature, Celsius.
var tempCTable = table{
	{0, func(v float64) bool { return v >= 36.40 && v <= 36.88 }},
	{2, func(v float64) bool { return (v >= 35.94 && v < 36.40) || (v > 36.88 && v <= 39.88) }},
	{3, func(v float64) bool { return v < 33.22 }},
	{4, func(v float64) bool { return v >= 33.22 && v < 35.94 }},
	{6, func(v float64) bool { return v > 39.88 }},
}

// Urine output over 24h, cc.
var urineTable = table{
	{0, func(v float64) bool { return v >= 2544.0 && v <= 6896.0 }},
	{1, func(v float64) bool { return v >= 1427.0 && v < 2544.0 }},
	{5, func(v float64) bool { return v >= 671.0 && v < 1427.0 }},
	{8, func(v float64) bool { return v > 6896.0 }},
	{10, func(v float64) bool { return v < 671 }},
}

var ventilatedVocab = map[string]int{
	"n": 0,
	"y": 9,
}

var admissionTypeVocab = map[string]int{
	"elective":  0,
	"urgent":    6,
	"emergency": 6,
}

// worstOf folds a series of observations into the highest point value seen.
// Any non-null observation sets the zero base, so a reading that lands in a
// band gap never suppresses a defined maximum; a series with no non-null
// observations at all is undefined.
func worstOf(values []float64, t table) Points {
	score := Undefined()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		score = Max(score, Max(PointsOf(0), t.classify(v)))
	}
	return score
}

// dailyTotal reduces the urine column. Its observations are readings of one
// 24h cumulative total, not a series to fold point-wise, so the largest
// non-null value is classified exactly once.
func dailyTotal(values []float64, t table) Points {
	total := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(total) || v > total {
			total = v
		}
	}
	if math.IsNaN(total) {
		return Undefined()
	}
	return t.classify(total)
}

// worstCategorical mirrors worstOf for string-valued variables. Matching is
// exact; values outside the vocabulary leave the zero base in place.
func worstCategorical(values []string, vocab map[string]int) Points {
	score := Undefined()
	for _, v := range values {
		score = Max(score, PointsOf(0))
		if pts, ok := vocab[v]; ok {
			score = Max(score, PointsOf(pts))
		}
	}
	return score
}

// Result carries the per-variable sub-scores of one encounter.
type Result struct {
	PreICUStay    Points
	Age           Points
	GCSTotal      Points
	HeartRate     Points
	MAP           Points
	RespRate      Points
	TempC         Points
	Urine         Points
	Ventilated    Points
	AdmissionType Points
}

func (r Result) subScores() [10]Points {
	return [10]Points{
		r.PreICUStay,
		r.Age,
		r.GCSTotal,
		r.HeartRate,
		r.MAP,
		r.RespRate,
		r.TempC,
		r.Urine,
		r.Ventilated,
		r.AdmissionType,
	}
}

// Total sums the ten sub-scores. A single undefined sub-score makes the
// total undefined; missing variables are never skipped over.
func (r Result) Total() Points {
	total := PointsOf(0)
	for _, p := range r.subScores() {
		total = total.Add(p)
	}
	return total
}

// SubScores maps each variable name to its sub-score.
func (r Result) SubScores() map[string]Points {
	scores := r.subScores()
	m := make(map[string]Points, len(scores))
	for i, name := range Variables {
		m[name] = scores[i]
	}
	return m
}

// Missing lists the variables whose sub-score is undefined, in table order.
func (r Result) Missing() []string {
	var missing []string
	scores := r.subScores()
	for i, name := range Variables {
		if !scores[i].Defined() {
			missing = append(missing, name)
		}
	}
	return missing
}

// Score computes the OASIS sub-scores for one encounter. It is a pure
// function of its input and safe for concurrent use.
func Score(m MeasurementSet) Result {
	return Result{
		PreICUStay:    worstOf(m.PreICUStay, preICUStayTable),
		Age:           worstOf(m.Age, ageTable),
		GCSTotal:      worstOf(m.GCSTotal, gcsTotalTable),
		HeartRate:     worstOf(m.HeartRate, heartRateTable),
		MAP:           worstOf(m.MAP, mapTable),
		RespRate:      worstOf(m.RespRate, respRateTable),
		TempC:         worstOf(m.TempC, tempCTable),
		Urine:         dailyTotal(m.Urine, urineTable),
		Ventilated:    worstCategorical(m.Ventilated, ventilatedVocab),
		AdmissionType: worstCategorical(m.AdmissionType, admissionTypeVocab),
	}
}
