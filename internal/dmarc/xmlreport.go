package dmarc

import "encoding/xml"

// XMLReport represents the top element of a DMARC report
// https://tools.ietf.org/html/rfc7489#appendix-C
//
// Numeric values are kept as text so invalid numbers can be reported with the
// element path instead of a generic decoder error. The validate tags mark the
// elements a report can't be rendered without.
type XMLReport struct {
	XMLName        xml.Name `xml:"feedback"`
	Version        string   `xml:"version"`
	ReportMetadata struct {
		OrgName          string `xml:"org_name" validate:"notblank"`
		Email            string `xml:"email" validate:"notblank"`
		ExtraContactInfo string `xml:"extra_contact_info"`
		ReportID         string `xml:"report_id" validate:"notblank"`
		DateRange        struct {
			Begin string `xml:"begin" validate:"notblank,number"`
			End   string `xml:"end" validate:"notblank,number"`
		} `xml:"date_range"`
		Error []string `xml:"error"`
	} `xml:"report_metadata"`
	PolicyPublished struct {
		Domain string `xml:"domain" validate:"notblank"`
		Adkim  string `xml:"adkim"`
		Aspf   string `xml:"aspf"`
		P      string `xml:"p" validate:"notblank"`
		Sp     string `xml:"sp"`
		Pct    string `xml:"pct" validate:"omitempty,number"`
		Fo     string `xml:"fo"`
	} `xml:"policy_published"`
	Records []XMLRecord `xml:"record" validate:"dive"`
}

// XMLRecord represents the record element of a DMARC report
type XMLRecord struct {
	Row struct {
		SourceIP        string `xml:"source_ip" validate:"notblank"`
		Count           string `xml:"count" validate:"notblank,number"`
		PolicyEvaluated struct {
			Disposition string                    `xml:"disposition" validate:"notblank"`
			Dkim        string                    `xml:"dkim" validate:"notblank"`
			Spf         string                    `xml:"spf" validate:"notblank"`
			Reason      []XMLPolicyOverrideReason `xml:"reason"`
		} `xml:"policy_evaluated"`
	} `xml:"row"`
	Identifiers struct {
		EnvelopeTo   string `xml:"envelope_to"`
		HeaderFrom   string `xml:"header_from" validate:"notblank"`
		EnvelopeFrom string `xml:"envelope_from"`
	} `xml:"identifiers"`
	AuthResults struct {
		Dkim []XMLDKIMResult `xml:"dkim" validate:"dive"`
		Spf  []XMLSPFResult  `xml:"spf" validate:"dive"`
	} `xml:"auth_results"`
}

type XMLDKIMResult struct {
	Domain      string `xml:"domain" validate:"notblank"`
	Selector    string `xml:"selector"`
	Result      string `xml:"result" validate:"notblank"`
	HumanResult string `xml:"human_result"`
}

type XMLSPFResult struct {
	Domain      string `xml:"domain" validate:"notblank"`
	Scope       string `xml:"scope"`
	Result      string `xml:"result" validate:"notblank"`
	HumanResult string `xml:"human_result"`
}

// XMLPolicyOverrideReason represents the reason element of a DMARC report
type XMLPolicyOverrideReason struct {
	Type    string `xml:"type"`
	Comment string `xml:"comment"`
}
