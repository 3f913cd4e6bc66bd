package dmarc

import (
	"encoding/json"
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToJSON(t *testing.T) {
	t.Parallel()

	report, err := Parse(readTestdata(t, "report.xml"))
	require.NoError(t, err)
	hostnames := map[string][]string{"209.85.220.41": {"mail-sor-f41.google.com"}}

	b, err := ConvertToJSON(report, Summarize(report), hostnames)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))

	md := doc["report_metadata"].(map[string]any)
	assert.Equal(t, "2023-11-15 00:00:00 UTC", md["date_begin_parsed"])
	assert.EqualValues(t, 1700006400, md["date_begin"])

	summary := doc["summary"].(map[string]any)
	assert.EqualValues(t, 4, summary["total_messages"])
	assert.Equal(t, "75.0%", summary["dkim_pass_rate"])

	records := doc["records"].([]any)
	require.Len(t, records, 2)
	first := records[0].(map[string]any)
	assert.Equal(t, []any{"mail-sor-f41.google.com"}, first["source_dns"])
	assert.Len(t, first["auth_results"], 3)
	_, hasDNS := records[1].(map[string]any)["source_dns"]
	assert.False(t, hasDNS)
}

func TestConvertToXML(t *testing.T) {
	t.Parallel()

	report, err := Parse(readTestdata(t, "minimal.xml"))
	require.NoError(t, err)

	b, err := ConvertToXML(report, Summarize(report), nil)
	require.NoError(t, err)
	assert.Contains(t, string(b), `<disposition name="none">2</disposition>`)
	assert.Contains(t, string(b), `<result mechanism="dkim">`)

	var doc struct {
		XMLName xml.Name `xml:"dmarc_report"`
		Domain  string   `xml:"policy_published>domain"`
		Pct     int      `xml:"policy_published>pct"`
		Begin   string   `xml:"report_metadata>date_begin_parsed"`
		Total   int      `xml:"summary>total_messages"`
	}
	require.NoError(t, xml.Unmarshal(b, &doc))
	assert.Equal(t, "example.org", doc.Domain)
	assert.Equal(t, 100, doc.Pct)
	assert.Equal(t, "2023-11-14 22:13:20 UTC", doc.Begin)
	assert.Equal(t, 2, doc.Total)
}
