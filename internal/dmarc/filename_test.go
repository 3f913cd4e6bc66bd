package dmarc

import (
	"testing"
	"time"
)

func TestParseReportFilename(t *testing.T) {
	t.Parallel()

	f, err := ParseReportFilename("/tmp/google.com!example.com!1700006400!1700092799.xml.gz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Receiver != "google.com" {
		t.Fatalf("wrong receiver %q", f.Receiver)
	}
	if f.PolicyDomain != "example.com" {
		t.Fatalf("wrong policy domain %q", f.PolicyDomain)
	}
	if !f.Begin.Equal(time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("wrong begin %s", f.Begin)
	}
	if f.UniqueID != "" {
		t.Fatalf("unexpected unique id %q", f.UniqueID)
	}

	f, err = ParseReportFilename("enterprise.protection.outlook.com!example.com!1700006400!1700092799!abc123.zip")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.UniqueID != "abc123" {
		t.Fatalf("wrong unique id %q", f.UniqueID)
	}
}

func TestParseReportFilenameErrors(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		"report.xml",
		"a!b!c.xml",
		"google.com!example.com!begin!1700092799.xml",
		"google.com!example.com!1700006400!end.xml",
		"a!b!1!2!3!4.xml",
	} {
		if _, err := ParseReportFilename(name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}
