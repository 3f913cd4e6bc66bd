package dmarc

import (
	"strings"
	"time"
)

// AlignmentMode is the DKIM or SPF identifier alignment published by the domain.
type AlignmentMode string

const (
	AlignmentRelaxed AlignmentMode = "relaxed"
	AlignmentStrict  AlignmentMode = "strict"
)

// parseAlignment maps the short report form to the long one. Unknown values
// are kept as reported.
func parseAlignment(s string) AlignmentMode {
	switch strings.ToLower(s) {
	case "", "r", "relaxed":
		return AlignmentRelaxed
	case "s", "strict":
		return AlignmentStrict
	default:
		return AlignmentMode(s)
	}
}

// Policy is a published DMARC policy or an evaluated disposition.
type Policy string

const (
	PolicyNone       Policy = "none"
	PolicyQuarantine Policy = "quarantine"
	PolicyReject     Policy = "reject"
)

// Result is a DKIM or SPF evaluation result (pass, fail, neutral, softfail, ...).
type Result string

const (
	ResultPass Result = "pass"
	ResultFail Result = "fail"
)

// IsPass reports whether r is a passing result.
func (r Result) IsPass() bool {
	return strings.EqualFold(string(r), string(ResultPass))
}

// Mechanism names the authentication mechanism of an AuthResult.
type Mechanism string

const (
	MechanismDKIM Mechanism = "dkim"
	MechanismSPF  Mechanism = "spf"
)

type DateRange struct {
	Begin time.Time
	End   time.Time
}

type PolicyPublished struct {
	Domain string
	ADKIM  AlignmentMode
	ASPF   AlignmentMode
	P      Policy
	SP     Policy
	Pct    int
	// Failure reporting options, empty when not published.
	FO string
}

type ReportMetadata struct {
	OrgName          string
	Email            string
	ExtraContactInfo string
	ReportID         string
	DateRange        DateRange
	Errors           []string
}

type Identifiers struct {
	HeaderFrom   string
	EnvelopeFrom string
	EnvelopeTo   string
}

// AuthResult is a single entry of a record's auth_results block.
type AuthResult struct {
	Mechanism Mechanism
	Domain    string
	Result    Result
	// Selector is only set for DKIM, Scope only for SPF.
	Selector    string
	Scope       string
	HumanResult string
}

type PolicyOverrideReason struct {
	Type    string
	Comment string
}

// Record is one row of a report, one per source IP and disposition combination.
type Record struct {
	SourceIP    string
	Count       int
	Disposition Policy
	DKIM        Result
	SPF         Result
	Reasons     []PolicyOverrideReason
	Identifiers Identifiers
	AuthResults []AuthResult
}

// Report is a parsed DMARC aggregate report. It is not modified after Parse
// returns.
type Report struct {
	Version  string
	Policy   PolicyPublished
	Metadata ReportMetadata
	Records  []Record
}
