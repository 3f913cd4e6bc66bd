// Package render turns a parsed report into titled tables and draws them on
// a terminal.
package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/firefart/dmarcreport/internal/dmarc"
)

const (
	TitlePolicy   = "DMARC Policy Details"
	TitleMetadata = "DMARC Report Metadata"
	TitleSummary  = "Summary"
	TitleRecords  = "Message Records"
)

// Section is one titled table. Sections without headers are key/value tables.
type Section struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Sections builds the policy, metadata, summary and record tables of a
// report. hostnames maps source IPs to reverse DNS names and may be nil.
func Sections(report *dmarc.Report, summary dmarc.Summary, hostnames map[string][]string) []Section {
	return []Section{
		policySection(report.Policy),
		metadataSection(report.Metadata),
		summarySection(summary),
		recordsSection(report.Records, hostnames),
	}
}

func policySection(p dmarc.PolicyPublished) Section {
	rows := [][]string{
		{"Domain", p.Domain},
		{"DKIM Alignment", string(p.ADKIM)},
		{"SPF Alignment", string(p.ASPF)},
		{"Policy", string(p.P)},
		{"Subdomain Policy", string(p.SP)},
		{"Percent", fmt.Sprintf("%d%%", p.Pct)},
	}
	if p.FO != "" {
		rows = append(rows, []string{"Failure Options", p.FO})
	}
	return Section{Title: TitlePolicy, Rows: rows}
}

func metadataSection(m dmarc.ReportMetadata) Section {
	rows := [][]string{
		{"Org name", m.OrgName},
		{"Email", m.Email},
	}
	if m.ExtraContactInfo != "" {
		rows = append(rows, []string{"Extra contact info", m.ExtraContactInfo})
	}
	rows = append(rows,
		[]string{"Report ID", m.ReportID},
		[]string{"Date range", FormatDateRange(m.DateRange)},
	)
	if len(m.Errors) > 0 {
		rows = append(rows, []string{"Errors", strings.Join(m.Errors, "\n")})
	}
	return Section{Title: TitleMetadata, Rows: rows}
}

func summarySection(s dmarc.Summary) Section {
	rows := [][]string{
		{"Total Messages", strconv.Itoa(s.TotalMessages)},
		{"Unique Sources", strconv.Itoa(s.UniqueSources)},
		{"DKIM Pass Rate", dmarc.FormatRate(s.DKIMPassRate)},
		{"SPF Pass Rate", dmarc.FormatRate(s.SPFPassRate)},
	}
	if len(s.Dispositions) > 0 {
		rows = append(rows, []string{"Dispositions", formatDispositions(s.Dispositions)})
	}
	return Section{Title: TitleSummary, Rows: rows}
}

func recordsSection(records []dmarc.Record, hostnames map[string][]string) Section {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		source := r.SourceIP
		if names := hostnames[r.SourceIP]; len(names) > 0 {
			source += "\n" + strings.Join(names, "\n")
		}
		rows = append(rows, []string{
			source,
			strconv.Itoa(r.Count),
			string(r.DKIM),
			string(r.SPF),
			FormatAuthResults(r.AuthResults),
		})
	}
	return Section{
		Title:   TitleRecords,
		Headers: []string{"Source IP", "Count", "DKIM", "SPF", "Auth Results"},
		Rows:    rows,
	}
}

// FormatAuthResults lists each result on its own line as
// "<mechanism>: <domain> (<result>)".
func FormatAuthResults(results []dmarc.AuthResult) string {
	lines := make([]string, len(results))
	for i, ar := range results {
		lines[i] = fmt.Sprintf("%s: %s (%s)", ar.Mechanism, ar.Domain, ar.Result)
	}
	return strings.Join(lines, "\n")
}

func FormatDateRange(dr dmarc.DateRange) string {
	return dmarc.FormatTime(dr.Begin) + " to " + dmarc.FormatTime(dr.End)
}

func formatDispositions(m map[dmarc.Policy]int) string {
	keys := make([]string, 0, len(m))
	for p := range m {
		keys = append(keys, string(p))
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, m[dmarc.Policy(k)])
	}
	return strings.Join(parts, ", ")
}
