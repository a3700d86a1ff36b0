package history

// TrendPoint is a run with its change against the previous (older) run.
type TrendPoint struct {
	Run           Run
	DeltaErrors   int
	DeltaWarnings int
	DeltaFiles    int
}

// Trend pairs each run with the one before it. runs must be newest first,
// as LoadRuns returns them; the oldest run has zero deltas.
func Trend(runs []Run) []TrendPoint {
	out := make([]TrendPoint, len(runs))
	for i, r := range runs {
		out[i].Run = r
		if i+1 < len(runs) {
			prev := runs[i+1]
			out[i].DeltaErrors = r.ErrorCount - prev.ErrorCount
			out[i].DeltaWarnings = r.WarningCount - prev.WarningCount
			out[i].DeltaFiles = r.FileCount - prev.FileCount
		}
	}
	return out
}
