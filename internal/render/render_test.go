package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firefart/dmarcreport/internal/config"
	"github.com/firefart/dmarcreport/internal/dmarc"
)

func testReport() *dmarc.Report {
	return &dmarc.Report{
		Policy: dmarc.PolicyPublished{
			Domain: "example.org",
			ADKIM:  dmarc.AlignmentRelaxed,
			ASPF:   dmarc.AlignmentStrict,
			P:      dmarc.PolicyReject,
			SP:     dmarc.PolicyNone,
			Pct:    100,
			FO:     "1",
		},
		Metadata: dmarc.ReportMetadata{
			OrgName:  "Example Receiver",
			Email:    "dmarc@receiver.example",
			ReportID: "r-1",
			DateRange: dmarc.DateRange{
				Begin: time.Unix(1700000000, 0).UTC(),
				End:   time.Unix(1700086399, 0).UTC(),
			},
		},
		Records: []dmarc.Record{
			{
				SourceIP:    "192.0.2.1",
				Count:       2,
				Disposition: dmarc.PolicyNone,
				DKIM:        dmarc.ResultPass,
				SPF:         dmarc.ResultFail,
				AuthResults: []dmarc.AuthResult{
					{Mechanism: dmarc.MechanismDKIM, Domain: "example.org", Result: dmarc.ResultPass},
					{Mechanism: dmarc.MechanismDKIM, Domain: "esp.example", Result: dmarc.ResultPass},
					{Mechanism: dmarc.MechanismSPF, Domain: "bounce.example.net", Result: dmarc.ResultFail},
				},
			},
		},
	}
}

func TestSections(t *testing.T) {
	t.Parallel()

	report := testReport()
	sections := Sections(report, dmarc.Summarize(report), map[string][]string{"192.0.2.1": {"mail.example.org"}})
	require.Len(t, sections, 4)

	assert.Equal(t, TitlePolicy, sections[0].Title)
	assert.Empty(t, sections[0].Headers)
	assert.Contains(t, sections[0].Rows, []string{"Percent", "100%"})
	assert.Contains(t, sections[0].Rows, []string{"SPF Alignment", "strict"})
	assert.Contains(t, sections[0].Rows, []string{"Failure Options", "1"})

	assert.Equal(t, TitleMetadata, sections[1].Title)
	assert.Contains(t, sections[1].Rows, []string{"Date range", "2023-11-14 22:13:20 UTC to 2023-11-15 22:13:19 UTC"})
	for _, row := range sections[1].Rows {
		assert.NotEqual(t, "Extra contact info", row[0], "empty extra contact info is omitted")
	}

	assert.Equal(t, TitleSummary, sections[2].Title)
	assert.Equal(t, [][]string{
		{"Total Messages", "2"},
		{"Unique Sources", "1"},
		{"DKIM Pass Rate", "100.0%"},
		{"SPF Pass Rate", "0.0%"},
		{"Dispositions", "none: 2"},
	}, sections[2].Rows)

	records := sections[3]
	assert.Equal(t, TitleRecords, records.Title)
	assert.Equal(t, []string{"Source IP", "Count", "DKIM", "SPF", "Auth Results"}, records.Headers)
	assert.Equal(t, [][]string{{
		"192.0.2.1\nmail.example.org",
		"2",
		"pass",
		"fail",
		"dkim: example.org (pass)\ndkim: esp.example (pass)\nspf: bounce.example.net (fail)",
	}}, records.Rows)
}

func TestSectionsNoRecords(t *testing.T) {
	t.Parallel()

	report := testReport()
	report.Records = nil
	sections := Sections(report, dmarc.Summarize(report), nil)
	assert.Empty(t, sections[3].Rows)
	assert.Contains(t, sections[2].Rows, []string{"DKIM Pass Rate", "0.0%"})
}

func TestRender(t *testing.T) {
	t.Parallel()

	report := testReport()
	var buf bytes.Buffer
	err := New(&buf, config.ColorNever).Render(report, dmarc.Summarize(report), nil)
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no escape sequences without colors")
	for _, want := range []string{
		"DMARC Report for example.org",
		TitlePolicy,
		TitleMetadata,
		TitleSummary,
		TitleRecords,
		"Example Receiver",
		"2023-11-14 22:13:20 UTC to 2023-11-15 22:13:19 UTC",
		"100.0%",
		"192.0.2.1",
		"spf: bounce.example.net (fail)",
		"╭",
	} {
		assert.Contains(t, out, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestRenderWriteError(t *testing.T) {
	t.Parallel()

	report := testReport()
	err := New(failingWriter{}, config.ColorNever).Render(report, dmarc.Summarize(report), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}
