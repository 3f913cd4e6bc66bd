package dmarc

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ReportFilename holds the parts of a report file name as recommended by
// RFC 7489 section 7.2.1.1.
type ReportFilename struct {
	Receiver     string
	PolicyDomain string
	Begin        time.Time
	End          time.Time
	UniqueID     string
}

// ParseReportFilename splits a file name of the form
// receiver "!" policy-domain "!" begin-timestamp "!" end-timestamp [ "!" unique-id ] "." extension
func ParseReportFilename(filename string) (*ReportFilename, error) {
	filename = filepath.Base(filename)
	// strip the extensions, .xml.gz has two
	for _, ext := range []string{".gz", ".zip", ".xml"} {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			filename = filename[:len(filename)-len(ext)]
		}
	}
	parts := strings.Split(filename, "!")
	if len(parts) < 4 || len(parts) > 5 {
		return nil, fmt.Errorf("filename %q does not match RFC", filename)
	}
	begin, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("filename %q has invalid begin timestamp: %w", filename, err)
	}
	end, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("filename %q has invalid end timestamp: %w", filename, err)
	}
	ret := &ReportFilename{
		Receiver:     parts[0],
		PolicyDomain: parts[1],
		Begin:        time.Unix(begin, 0).UTC(),
		End:          time.Unix(end, 0).UTC(),
	}
	if len(parts) == 5 {
		ret.UniqueID = parts[4]
	}
	return ret, nil
}
