package dictionary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrUnknownFormat is returned for files that are not bucket files.
var ErrUnknownFormat = errors.New("unknown dictionary format")

// FileFormat represents different bucket file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatTOML               // [[entry]] tables
	FormatMsgpack            // Array of entries
	FormatText               // id<TAB>text[<TAB>weight] lines
)

// FormatInfo contains metadata about a bucket file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64
	MaxSize     int64
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatTOML: {
		Format:      FormatTOML,
		Description: "TOML Bucket",
		Extensions:  []string{".toml"},
		MinSize:     0,
		MaxSize:     64 << 20,
	},
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Description: "MessagePack Bucket",
		Extensions:  []string{".msgpack", ".mp"},
		MinSize:     1, // At least an array header
		MaxSize:     256 << 20,
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Bucket",
		Extensions:  []string{".txt", ".tsv"},
		MinSize:     0,
		MaxSize:     64 << 20,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// DetectFormat returns the format of filename from its extension.
func DetectFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		for _, e := range info.Extensions {
			if e == ext {
				return format, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
}

// ValidateFile checks that filename is a readable bucket file of a sane size.
func ValidateFile(filename string) (FileFormat, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return FormatUnknown, err
	}
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return format, fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	if fileInfo.IsDir() {
		return format, fmt.Errorf("%s is a directory", filename)
	}

	info := supportedFormats[format]
	if fileInfo.Size() < info.MinSize {
		return format, fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), info.Description, info.MinSize)
	}
	if fileInfo.Size() > info.MaxSize {
		return format, fmt.Errorf("file %s is too large (%d bytes) for format %s (maximum: %d bytes)",
			filename, fileInfo.Size(), info.Description, info.MaxSize)
	}

	log.Debugf("Bucket file %s validated as %s", filename, info.Description)
	return format, nil
}

// BucketName returns the bucket a file belongs to: its base name without
// extension.
func BucketName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsBucketFile reports whether filename has a supported extension and is not
// hidden.
func IsBucketFile(filename string) bool {
	if strings.HasPrefix(filepath.Base(filename), ".") {
		return false
	}
	_, err := DetectFormat(filename)
	return err == nil
}

// ListSupportedFormats returns all supported formats
func ListSupportedFormats() []FormatInfo {
	formats := make([]FormatInfo, 0, len(supportedFormats))
	for _, info := range supportedFormats {
		formats = append(formats, info)
	}
	sort.Slice(formats, func(i, j int) bool {
		return formats[i].Format < formats[j].Format
	})
	return formats
}
