// Package content normalizes uploaded bytes into lowercase text the
// classifier and validators can work with. Binary office formats are not
// parsed; for those the lowercased filename stands in as a weak proxy so
// filename keyword matches still work.
package content

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

// Kind tags how the normalized text was obtained.
type Kind string

const (
	// KindText means the bytes were decoded directly as text.
	KindText Kind = "text"
	// KindFilenameProxy means the format is binary and the filename was
	// used in place of the content.
	KindFilenameProxy Kind = "filename-proxy"
)

// ErrUnsupportedFormat short-circuits the pipeline before classification.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var textExtensions = map[string]bool{
	"txt": true,
}

var binaryExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"xls":  true,
	"xlsx": true,
}

// pageDescriptionExtensions are binary formats whose internal structure
// cannot be checked from text; they pass through the integrity gate.
var pageDescriptionExtensions = map[string]bool{
	"pdf": true,
}

// Extracted is the normalized view of an upload.
type Extracted struct {
	Text string
	Ext  string
	Kind Kind
}

// SupportedExtensions lists the accepted upload formats, sorted, for use in
// user-facing rejection messages.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(textExtensions)+len(binaryExtensions))
	for e := range textExtensions {
		exts = append(exts, e)
	}
	for e := range binaryExtensions {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}

// IsPageDescription reports whether the extension denotes a page-description
// binary format (subject to the structural integrity gate).
func IsPageDescription(ext string) bool {
	return pageDescriptionExtensions[ext]
}

// Extract derives the file extension from the filename and yields normalized
// lowercase text. Unknown extensions return ErrUnsupportedFormat.
func Extract(raw []byte, filename string) (Extracted, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	switch {
	case textExtensions[ext]:
		return Extracted{
			Text: strings.ToLower(string(raw)),
			Ext:  ext,
			Kind: KindText,
		}, nil
	case binaryExtensions[ext]:
		return Extracted{
			Text: strings.ToLower(filename),
			Ext:  ext,
			Kind: KindFilenameProxy,
		}, nil
	default:
		return Extracted{Ext: ext}, ErrUnsupportedFormat
	}
}
