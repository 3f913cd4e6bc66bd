package dmarc

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/firefart/dmarcreport/internal/helper"
)

// upper bound for a decompressed report so a crafted archive can't exhaust memory
const maxReportSize = 64 << 20

var errTooLarge = fmt.Errorf("content exceeds %d bytes", maxReportSize)

// File is the raw XML document extracted from a report file.
type File struct {
	// Name is the name of the XML document. For zip archives this is the
	// name of the selected entry.
	Name    string
	Content []byte
}

type fileType int

const (
	fileTypeUnknown fileType = iota
	fileTypeXML
	fileTypeGzip
	fileTypeZip
)

func detectFileType(filename string) fileType {
	lower := strings.ToLower(filename)

	switch {
	case strings.HasSuffix(lower, ".xml.gz"):
		return fileTypeGzip
	case strings.HasSuffix(lower, ".xml"):
		return fileTypeXML
	case strings.HasSuffix(lower, ".zip"):
		return fileTypeZip
	default:
		return fileTypeUnknown
	}
}

func readAllLimited(r io.Reader) ([]byte, error) {
	content, err := io.ReadAll(io.LimitReader(r, maxReportSize+1))
	if err != nil {
		return nil, err
	}
	if len(content) > maxReportSize {
		return nil, errTooLarge
	}
	return content, nil
}

func readGZ(content []byte) ([]byte, error) {
	if kind := helper.DetectArchive(content); kind != helper.ArchiveGzip {
		return nil, fmt.Errorf("content is not gzip compressed (detected %s)", kind)
	}

	gz, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("could not gzip read: %w", err)
	}
	defer gz.Close()

	xmlContent, err := readAllLimited(gz)
	if err != nil {
		return nil, fmt.Errorf("could not read: %w", err)
	}
	return xmlContent, nil
}

// readZIP returns the first entry ending in .xml in archive order. Archive
// order is whatever the writing tool chose, so with several xml entries the
// pick is not guaranteed to be stable across tools.
func readZIP(content []byte) ([]byte, string, error) {
	if kind := helper.DetectArchive(content); kind != helper.ArchiveZip {
		return nil, "", fmt.Errorf("%w: content is not a zip archive (detected %s)", ErrDecompression, kind)
	}

	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, "", fmt.Errorf("%w: could not open zip: %w", ErrDecompression, err)
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			continue
		}
		x, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("%w: could not open file %s inside zip: %w", ErrDecompression, f.Name, err)
		}
		xmlContent, err := readAllLimited(x)
		x.Close()
		if err != nil {
			return nil, "", fmt.Errorf("%w: could not read file %s inside zip: %w", ErrDecompression, f.Name, err)
		}
		return xmlContent, path.Base(f.Name), nil
	}
	return nil, "", ErrNoXMLInZip
}

// ReadFile returns the XML document contained in a .xml, .xml.gz or .zip
// report file. The extension is matched case-insensitively.
func ReadFile(filename string) (*File, error) {
	info, err := os.Stat(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, fmt.Errorf("could not stat %s: %w", filename, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFileType, filename)
	}

	ft := detectFileType(filename)
	if ft == fileTypeUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}

	content, err := os.ReadFile(filename) // nolint: gosec
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, fmt.Errorf("could not read %s: %w", filename, err)
	}

	base := filepath.Base(filename)
	switch ft {
	case fileTypeGzip:
		xmlContent, err := readGZ(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecompression, filename, err)
		}
		return &File{Name: base[:len(base)-len(".gz")], Content: xmlContent}, nil
	case fileTypeZip:
		xmlContent, name, err := readZIP(content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return &File{Name: name, Content: xmlContent}, nil
	default:
		return &File{Name: base, Content: content}, nil
	}
}
