package dmarc

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
	"time"
)

// TimeLayout is the layout used for every rendered timestamp.
const TimeLayout = "2006-01-02 15:04:05 UTC"

// FormatTime formats t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

type CustomTime time.Time

func (t CustomTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatTime(time.Time(t)))
}

func (t CustomTime) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(FormatTime(time.Time(t)), start)
}

type ExportDocument struct {
	XMLName  xml.Name       `xml:"dmarc_report" json:"-"` // for xml serialisation
	Version  string         `xml:"version,omitempty" json:"version,omitempty"`
	Policy   ExportPolicy   `xml:"policy_published" json:"policy_published"`
	Metadata ExportMetadata `xml:"report_metadata" json:"report_metadata"`
	Summary  ExportSummary  `xml:"summary" json:"summary"`
	Records  []ExportRecord `xml:"records>record" json:"records"`
}

type ExportPolicy struct {
	Domain string `xml:"domain" json:"domain"`
	Adkim  string `xml:"adkim" json:"adkim"`
	Aspf   string `xml:"aspf" json:"aspf"`
	P      string `xml:"p" json:"p"`
	Sp     string `xml:"sp" json:"sp"`
	Pct    int    `xml:"pct" json:"pct"`
	Fo     string `xml:"fo,omitempty" json:"fo,omitempty"`
}

type ExportMetadata struct {
	OrgName          string     `xml:"org_name" json:"org_name"`
	Email            string     `xml:"email" json:"email"`
	ExtraContactInfo string     `xml:"extra_contact_info,omitempty" json:"extra_contact_info,omitempty"`
	ReportID         string     `xml:"report_id" json:"report_id"`
	DateBegin        int64      `xml:"date_begin" json:"date_begin"`
	DateEnd          int64      `xml:"date_end" json:"date_end"`
	DateBeginParsed  CustomTime `xml:"date_begin_parsed" json:"date_begin_parsed"`
	DateEndParsed    CustomTime `xml:"date_end_parsed" json:"date_end_parsed"`
	Errors           []string   `xml:"errors>error,omitempty" json:"errors,omitempty"`
}

type ExportSummary struct {
	TotalMessages int                 `xml:"total_messages" json:"total_messages"`
	UniqueSources int                 `xml:"unique_sources" json:"unique_sources"`
	DKIMPassRate  string              `xml:"dkim_pass_rate" json:"dkim_pass_rate"`
	SPFPassRate   string              `xml:"spf_pass_rate" json:"spf_pass_rate"`
	Dispositions  []ExportDisposition `xml:"dispositions>disposition" json:"dispositions"`
}

type ExportDisposition struct {
	Disposition string `xml:"name,attr" json:"disposition"`
	Count       int    `xml:",chardata" json:"count"`
}

type ExportRecord struct {
	SourceIP     string             `xml:"source_ip" json:"source_ip"`
	SourceDNS    []string           `xml:"source_dns>dns,omitempty" json:"source_dns,omitempty"`
	Count        int                `xml:"count" json:"count"`
	Disposition  string             `xml:"disposition" json:"disposition"`
	DKIM         string             `xml:"dkim" json:"dkim"`
	SPF          string             `xml:"spf" json:"spf"`
	Reasons      []ExportReason     `xml:"reason,omitempty" json:"reasons,omitempty"`
	HeaderFrom   string             `xml:"header_from" json:"header_from"`
	EnvelopeFrom string             `xml:"envelope_from,omitempty" json:"envelope_from,omitempty"`
	EnvelopeTo   string             `xml:"envelope_to,omitempty" json:"envelope_to,omitempty"`
	AuthResults  []ExportAuthResult `xml:"auth_results>result" json:"auth_results"`
}

type ExportReason struct {
	Type    string `xml:"type" json:"type"`
	Comment string `xml:"comment,omitempty" json:"comment,omitempty"`
}

type ExportAuthResult struct {
	Mechanism   string `xml:"mechanism,attr" json:"mechanism"`
	Domain      string `xml:"domain" json:"domain"`
	Result      string `xml:"result" json:"result"`
	Selector    string `xml:"selector,omitempty" json:"selector,omitempty"`
	Scope       string `xml:"scope,omitempty" json:"scope,omitempty"`
	HumanResult string `xml:"human_result,omitempty" json:"human_result,omitempty"`
}

// ConvertToJSON serialises the report, its summary and the optional reverse
// DNS names of the source IPs as an indented JSON document.
func ConvertToJSON(report *Report, summary Summary, hostnames map[string][]string) ([]byte, error) {
	doc := NewExportDocument(report, summary, hostnames)
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not marshal JSON: %w", err)
	}
	return b, nil
}

// ConvertToXML is the XML counterpart of ConvertToJSON.
func ConvertToXML(report *Report, summary Summary, hostnames map[string][]string) ([]byte, error) {
	doc := NewExportDocument(report, summary, hostnames)
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not marshal XML: %w", err)
	}
	return append([]byte(xml.Header), b...), nil
}

func NewExportDocument(report *Report, summary Summary, hostnames map[string][]string) ExportDocument {
	md := report.Metadata
	doc := ExportDocument{
		Version: report.Version,
		Policy: ExportPolicy{
			Domain: report.Policy.Domain,
			Adkim:  string(report.Policy.ADKIM),
			Aspf:   string(report.Policy.ASPF),
			P:      string(report.Policy.P),
			Sp:     string(report.Policy.SP),
			Pct:    report.Policy.Pct,
			Fo:     report.Policy.FO,
		},
		Metadata: ExportMetadata{
			OrgName:          md.OrgName,
			Email:            md.Email,
			ExtraContactInfo: md.ExtraContactInfo,
			ReportID:         md.ReportID,
			DateBegin:        md.DateRange.Begin.Unix(),
			DateEnd:          md.DateRange.End.Unix(),
			DateBeginParsed:  CustomTime(md.DateRange.Begin),
			DateEndParsed:    CustomTime(md.DateRange.End),
			Errors:           md.Errors,
		},
		Summary: ExportSummary{
			TotalMessages: summary.TotalMessages,
			UniqueSources: summary.UniqueSources,
			DKIMPassRate:  FormatRate(summary.DKIMPassRate),
			SPFPassRate:   FormatRate(summary.SPFPassRate),
			Dispositions:  exportDispositions(summary.Dispositions),
		},
		Records: make([]ExportRecord, len(report.Records)),
	}

	for i, record := range report.Records {
		var reasons []ExportReason
		for _, r := range record.Reasons {
			reasons = append(reasons, ExportReason{Type: r.Type, Comment: r.Comment})
		}
		authResults := make([]ExportAuthResult, len(record.AuthResults))
		for j, ar := range record.AuthResults {
			authResults[j] = ExportAuthResult{
				Mechanism:   string(ar.Mechanism),
				Domain:      ar.Domain,
				Result:      string(ar.Result),
				Selector:    ar.Selector,
				Scope:       ar.Scope,
				HumanResult: ar.HumanResult,
			}
		}
		doc.Records[i] = ExportRecord{
			SourceIP:     record.SourceIP,
			SourceDNS:    hostnames[record.SourceIP],
			Count:        record.Count,
			Disposition:  string(record.Disposition),
			DKIM:         string(record.DKIM),
			SPF:          string(record.SPF),
			Reasons:      reasons,
			HeaderFrom:   record.Identifiers.HeaderFrom,
			EnvelopeFrom: record.Identifiers.EnvelopeFrom,
			EnvelopeTo:   record.Identifiers.EnvelopeTo,
			AuthResults:  authResults,
		}
	}
	return doc
}

// exportDispositions returns the disposition counts sorted by name so the
// output does not depend on map order.
func exportDispositions(m map[Policy]int) []ExportDisposition {
	ret := make([]ExportDisposition, 0, len(m))
	for p, count := range m {
		ret = append(ret, ExportDisposition{Disposition: string(p), Count: count})
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Disposition < ret[j].Disposition
	})
	return ret
}
