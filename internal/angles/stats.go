package angles

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// JointSummary holds distribution statistics for one joint's angle series.
type JointSummary struct {
	Joint  string  `json:"joint"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P50    float64 `json:"p50"`
	P85    float64 `json:"p85"`
	P98    float64 `json:"p98"`
}

// Summarize computes per-joint statistics over samples, in Joints order.
// An empty input yields summaries with Count 0 and zero values.
func Summarize(samples []Sample) []JointSummary {
	out := make([]JointSummary, len(Joints))
	for i, j := range Joints {
		out[i].Joint = j.Name
		if len(samples) == 0 {
			continue
		}

		x := make([]float64, len(samples))
		for k, s := range samples {
			x[k] = s.Values()[i]
		}
		sort.Float64s(x)

		out[i].Count = len(x)
		out[i].Mean = stat.Mean(x, nil)
		if len(x) > 1 {
			out[i].StdDev = stat.StdDev(x, nil)
		}
		out[i].Min = floats.Min(x)
		out[i].Max = floats.Max(x)
		out[i].P50 = stat.Quantile(0.50, stat.Empirical, x, nil)
		out[i].P85 = stat.Quantile(0.85, stat.Empirical, x, nil)
		out[i].P98 = stat.Quantile(0.98, stat.Empirical, x, nil)
	}
	return out
}
