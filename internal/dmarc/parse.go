package dmarc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/hashicorp/go-multierror"
)

const xsTag = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://dmarc.org/dmarc-xml/0.1">`

const rootElement = "feedback"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// report element names instead of go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("xml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseFile reads filename with ReadFile and parses the contained document.
// The extracted File is returned alongside the report.
func ParseFile(filename string) (*Report, *File, error) {
	f, err := ReadFile(filename)
	if err != nil {
		return nil, nil, err
	}
	report, err := Parse(f.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filename, err)
	}
	return report, f, nil
}

// Parse parses a DMARC aggregate report document. Document type declarations
// are rejected and only the predefined XML entities are expanded, reports come
// from third parties and are not trusted.
func Parse(content []byte) (*Report, error) {
	// some xmls contain invalid XML by adding an unclosed xs tag
	content = bytes.ReplaceAll(content, []byte(xsTag), []byte(""))

	raw, err := decode(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}

	var merr *multierror.Error
	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("could not validate report: %w", err)
		}
		for _, fe := range verrs {
			merr = multierror.Append(merr, &FieldError{
				Path:   fieldPath(fe.Namespace()),
				Reason: describe(fe),
			})
		}
	}

	c := converter{merr: merr}
	report := c.report(raw)
	if c.merr != nil {
		c.merr.ErrorFormat = joinErrors
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, c.merr)
	}
	return report, nil
}

func decode(content []byte) (*XMLReport, error) {
	d := xml.NewDecoder(bytes.NewReader(content))
	d.Strict = true
	d.CharsetReader = charset.Reader

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("document has no root element")
		} else if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.Directive:
			directive := strings.ToUpper(strings.TrimSpace(string(t)))
			if strings.HasPrefix(directive, "DOCTYPE") || strings.HasPrefix(directive, "ENTITY") {
				return nil, errors.New("document type declarations are not allowed")
			}
		case xml.StartElement:
			if t.Name.Local != rootElement {
				return nil, fmt.Errorf("unexpected root element <%s>, expected <%s>", t.Name.Local, rootElement)
			}
			var report XMLReport
			if err := d.DecodeElement(&report, &t); err != nil {
				return nil, err
			}
			trimNumbers(&report)
			return &report, nil
		}
	}
}

func trimNumbers(r *XMLReport) {
	dr := &r.ReportMetadata.DateRange
	dr.Begin = strings.TrimSpace(dr.Begin)
	dr.End = strings.TrimSpace(dr.End)
	r.PolicyPublished.Pct = strings.TrimSpace(r.PolicyPublished.Pct)
	for i := range r.Records {
		r.Records[i].Row.Count = strings.TrimSpace(r.Records[i].Row.Count)
	}
}

// fieldPath turns a validator namespace like XMLReport.record[0].row.count
// into feedback/record[0]/row/count.
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return rootElement
	}
	return rootElement + "/" + strings.ReplaceAll(rest, ".", "/")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "missing required field"
	case "number":
		return fmt.Sprintf("invalid integer %q", fe.Value())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

func joinErrors(es []error) string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// converter maps the validated document to a Report. Numeric conversion
// problems not already reported by the validator are collected in merr.
type converter struct {
	merr *multierror.Error
}

func (c *converter) fail(path, format string, args ...any) {
	c.merr = multierror.Append(c.merr, &FieldError{Path: path, Reason: fmt.Sprintf(format, args...)})
}

// parseInt parses s. Blank or non numeric values were already reported by the
// validator so only range errors are added here.
func (c *converter) parseInt(path, s string, bitSize int) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, bitSize)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			c.fail(path, "integer %q out of range", s)
		}
		return 0
	}
	return v
}

func (c *converter) report(x *XMLReport) *Report {
	md := x.ReportMetadata
	pp := x.PolicyPublished

	pct := 100
	if pp.Pct != "" {
		pct = int(c.parseInt("feedback/policy_published/pct", pp.Pct, 32))
		if pct < 0 || pct > 100 {
			c.fail("feedback/policy_published/pct", "percent %d not within 0..100", pct)
		}
	}

	sp := PolicyNone
	if s := strings.TrimSpace(pp.Sp); s != "" {
		sp = Policy(strings.ToLower(s))
	}

	report := &Report{
		Version: strings.TrimSpace(x.Version),
		Policy: PolicyPublished{
			Domain: strings.TrimSpace(pp.Domain),
			ADKIM:  parseAlignment(strings.TrimSpace(pp.Adkim)),
			ASPF:   parseAlignment(strings.TrimSpace(pp.Aspf)),
			P:      Policy(strings.ToLower(strings.TrimSpace(pp.P))),
			SP:     sp,
			Pct:    pct,
			FO:     strings.TrimSpace(pp.Fo),
		},
		Metadata: ReportMetadata{
			OrgName:          strings.TrimSpace(md.OrgName),
			Email:            strings.TrimSpace(md.Email),
			ExtraContactInfo: strings.TrimSpace(md.ExtraContactInfo),
			ReportID:         strings.TrimSpace(md.ReportID),
			DateRange: DateRange{
				Begin: time.Unix(c.parseInt("feedback/report_metadata/date_range/begin", md.DateRange.Begin, 64), 0).UTC(),
				End:   time.Unix(c.parseInt("feedback/report_metadata/date_range/end", md.DateRange.End, 64), 0).UTC(),
			},
			Errors: md.Error,
		},
		Records: make([]Record, 0, len(x.Records)),
	}

	for i, r := range x.Records {
		report.Records = append(report.Records, c.record(i, r))
	}
	return report
}

func (c *converter) record(i int, r XMLRecord) Record {
	pe := r.Row.PolicyEvaluated
	rec := Record{
		SourceIP:    strings.TrimSpace(r.Row.SourceIP),
		Count:       int(c.parseInt(fmt.Sprintf("feedback/record[%d]/row/count", i), r.Row.Count, 32)),
		Disposition: Policy(strings.ToLower(strings.TrimSpace(pe.Disposition))),
		DKIM:        normalizeResult(pe.Dkim),
		SPF:         normalizeResult(pe.Spf),
		Identifiers: Identifiers{
			HeaderFrom:   strings.TrimSpace(r.Identifiers.HeaderFrom),
			EnvelopeFrom: strings.TrimSpace(r.Identifiers.EnvelopeFrom),
			EnvelopeTo:   strings.TrimSpace(r.Identifiers.EnvelopeTo),
		},
	}

	for _, reason := range pe.Reason {
		rec.Reasons = append(rec.Reasons, PolicyOverrideReason{
			Type:    strings.TrimSpace(reason.Type),
			Comment: strings.TrimSpace(reason.Comment),
		})
	}

	for _, d := range r.AuthResults.Dkim {
		rec.AuthResults = append(rec.AuthResults, AuthResult{
			Mechanism:   MechanismDKIM,
			Domain:      strings.TrimSpace(d.Domain),
			Result:      normalizeResult(d.Result),
			Selector:    strings.TrimSpace(d.Selector),
			HumanResult: strings.TrimSpace(d.HumanResult),
		})
	}
	for _, s := range r.AuthResults.Spf {
		rec.AuthResults = append(rec.AuthResults, AuthResult{
			Mechanism:   MechanismSPF,
			Domain:      strings.TrimSpace(s.Domain),
			Result:      normalizeResult(s.Result),
			Scope:       strings.TrimSpace(s.Scope),
			HumanResult: strings.TrimSpace(s.HumanResult),
		})
	}

	return rec
}

func normalizeResult(s string) Result {
	return Result(strings.ToLower(strings.TrimSpace(s)))
}
