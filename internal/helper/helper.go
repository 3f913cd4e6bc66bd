package helper

import (
	"bytes"
)

// ArchiveKind is the container format detected from the leading bytes of a file.
type ArchiveKind string

const (
	ArchiveNone ArchiveKind = "none"
	ArchiveGzip ArchiveKind = "gzip"
	ArchiveZip  ArchiveKind = "zip"
)

type magic struct {
	kind  ArchiveKind
	bytes []byte
}

// https://en.wikipedia.org/wiki/List_of_file_signatures
var magicTable = []magic{
	{ArchiveGzip, []byte{31, 139}},     // .gz "\x1f\x8b"
	{ArchiveZip, []byte{80, 75, 3, 4}}, // .zip "\x50\x4B\x03\x04"
	{ArchiveZip, []byte{80, 75, 5, 6}}, // .zip "\x50\x4B\x05\x06" (empty archive)
	{ArchiveZip, []byte{80, 75, 7, 8}}, // .zip "\x50\x4B\x07\x08" (spanned)
}

// DetectArchive returns the archive kind of content based on its magic bytes.
func DetectArchive(content []byte) ArchiveKind {
	sliceEnd := 10
	if len(content) < sliceEnd {
		sliceEnd = len(content)
	}
	head := content[0:sliceEnd]

	for _, m := range magicTable {
		if bytes.HasPrefix(head, m.bytes) {
			return m.kind
		}
	}

	return ArchiveNone
}
