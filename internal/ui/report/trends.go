package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kite/internal/data/history"
)

type trendRow struct {
	ID            string    `json:"id"`
	Started       time.Time `json:"started"`
	DurationMS    int64     `json:"duration_ms"`
	Files         int       `json:"files"`
	Errors        int       `json:"errors"`
	Warnings      int       `json:"warnings"`
	Cycles        int       `json:"cycles"`
	DeltaFiles    int       `json:"delta_files"`
	DeltaErrors   int       `json:"delta_errors"`
	DeltaWarnings int       `json:"delta_warnings"`
}

func rows(points []history.TrendPoint) []trendRow {
	out := make([]trendRow, 0, len(points))
	for _, p := range points {
		out = append(out, trendRow{
			ID:            p.Run.ID,
			Started:       p.Run.Started.UTC(),
			DurationMS:    p.Run.Duration.Milliseconds(),
			Files:         p.Run.FileCount,
			Errors:        p.Run.ErrorCount,
			Warnings:      p.Run.WarningCount,
			Cycles:        p.Run.CycleCount,
			DeltaFiles:    p.DeltaFiles,
			DeltaErrors:   p.DeltaErrors,
			DeltaWarnings: p.DeltaWarnings,
		})
	}
	return out
}

func RenderTrendTSV(points []history.TrendPoint) []byte {
	var buf strings.Builder
	buf.WriteString("ID\tStarted\tDurationMS\tFiles\tErrors\tWarnings\tCycles\tDeltaFiles\tDeltaErrors\tDeltaWarnings\n")
	for _, r := range rows(points) {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.ID,
			r.Started.Format(time.RFC3339),
			r.DurationMS,
			r.Files,
			r.Errors,
			r.Warnings,
			r.Cycles,
			r.DeltaFiles,
			r.DeltaErrors,
			r.DeltaWarnings,
		))
	}
	return []byte(buf.String())
}

func RenderTrendJSON(points []history.TrendPoint) ([]byte, error) {
	return json.MarshalIndent(rows(points), "", "  ")
}
