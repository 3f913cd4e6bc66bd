package dmarc

import "fmt"

// Summary holds the report level statistics shown next to the records.
type Summary struct {
	TotalMessages int
	UniqueSources int
	// Pass rates are percentages in the range 0..100.
	DKIMPassRate float64
	SPFPassRate  float64
	// Dispositions counts messages per evaluated disposition.
	Dispositions map[Policy]int
}

// Summarize computes the Summary of r. Both pass rates are 0 when the report
// contains no messages.
func Summarize(r *Report) Summary {
	s := Summary{
		Dispositions: make(map[Policy]int),
	}
	sources := make(map[string]struct{}, len(r.Records))
	dkimPass, spfPass := 0, 0

	for _, record := range r.Records {
		s.TotalMessages += record.Count
		sources[record.SourceIP] = struct{}{}
		if record.DKIM.IsPass() {
			dkimPass += record.Count
		}
		if record.SPF.IsPass() {
			spfPass += record.Count
		}
		s.Dispositions[record.Disposition] += record.Count
	}

	s.UniqueSources = len(sources)
	s.DKIMPassRate = rate(dkimPass, s.TotalMessages)
	s.SPFPassRate = rate(spfPass, s.TotalMessages)
	return s
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// FormatRate formats a pass rate with one decimal place, e.g. 66.7%.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}
