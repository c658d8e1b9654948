// Package attachment classifies, validates, and resolves chat attachments.
//
// The portal stores an attachment as an opaque string that may be a stored
// file path, an inline base64 payload, or an absolute URL. Classification is
// a pure function of the string; resolving a stored path to a fetchable URL
// is a separate network step owned by the portal client.
package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind tags the classified form of an attachment value.
type Kind int

const (
	// KindNone means the message carries no attachment.
	KindNone Kind = iota

	// KindRemotePath is a stored file path that must be exchanged for a
	// short-lived URL before use.
	KindRemotePath

	// KindInline is an embedded base64 payload.
	KindInline

	// KindDirectURL is an absolute http(s) or data: URL, usable as-is.
	KindDirectURL
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRemotePath:
		return "remote-path"
	case KindInline:
		return "inline"
	case KindDirectURL:
		return "direct-url"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// inlineMinLength separates short stored tokens from embedded payloads.
// Base64 payloads worth embedding are always longer than this.
const inlineMinLength = 100

// Info is the classified view of one attachment value.
type Info struct {
	Kind Kind

	// Value is the raw attachment string: path, payload, or URL per Kind.
	Value string

	// FileName is the display name, falling back to "attachment" plus an
	// extension inferred from the payload when the portal sent none.
	FileName string

	// MIMEType is set for inline payloads, sniffed from the leading bytes.
	MIMEType string
}

// signatures maps base64 payload prefixes to sniffed types. The prefixes are
// the base64 renderings of the magic bytes (PNG, JPEG, GIF, PDF, ZIP).
var signatures = []struct {
	prefix    string
	mimeType  string
	extension string
}{
	{"iVBORw0KGgo", "image/png", "png"},
	{"/9j/", "image/jpeg", "jpg"},
	{"R0lGOD", "image/gif", "gif"},
	{"JVBER", "application/pdf", "pdf"},
	{"UEs", "application/zip", "zip"},
}

// Classify tags an attachment value. It performs no I/O and is deterministic
// in the value and filename hint alone.
func Classify(value, fileNameHint string) Info {
	if value == "" {
		return Info{Kind: KindNone}
	}

	direct := strings.HasPrefix(value, "http") || strings.HasPrefix(value, "data:")
	if !direct {
		// Signature check first: base64 payloads routinely contain '/' in
		// their interior, so a path test alone would misfile them.
		if mimeType, extension, ok := sniff(value); ok && len(value) > inlineMinLength {
			return Info{
				Kind:     KindInline,
				Value:    value,
				FileName: fallbackName(fileNameHint, extension),
				MIMEType: mimeType,
			}
		}

		if strings.Contains(value, "/") {
			return Info{
				Kind:     KindRemotePath,
				Value:    value,
				FileName: fallbackName(fileNameHint, ""),
			}
		}

		if len(value) > inlineMinLength {
			return Info{
				Kind:     KindInline,
				Value:    value,
				FileName: fallbackName(fileNameHint, "bin"),
				MIMEType: "application/octet-stream",
			}
		}
	}

	return Info{
		Kind:     KindDirectURL,
		Value:    value,
		FileName: fallbackName(fileNameHint, ""),
	}
}

func sniff(value string) (mimeType, extension string, ok bool) {
	for _, sig := range signatures {
		if strings.HasPrefix(value, sig.prefix) {
			return sig.mimeType, sig.extension, true
		}
	}
	return "", "", false
}

func fallbackName(hint, extension string) string {
	if hint != "" {
		return hint
	}
	if extension != "" {
		return "attachment." + extension
	}
	return "attachment"
}

// Decode returns the binary payload of an inline attachment.
func (i Info) Decode() ([]byte, error) {
	if i.Kind != KindInline {
		return nil, fmt.Errorf("attachment is %s, not inline", i.Kind)
	}
	data, err := base64.StdEncoding.DecodeString(i.Value)
	if err != nil {
		return nil, fmt.Errorf("decode inline attachment: %w", err)
	}
	return data, nil
}

// DataURL renders an inline attachment as a data: URL for direct viewing.
func (i Info) DataURL() (string, error) {
	if i.Kind != KindInline {
		return "", fmt.Errorf("attachment is %s, not inline", i.Kind)
	}
	return "data:" + i.MIMEType + ";base64," + i.Value, nil
}

// MaxFileSize is the portal's upload cap.
const MaxFileSize = 5 * 1024 * 1024

// allowedExtensions is the portal's upload allow-list.
var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".xlsx": {},
	".docx": {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".zip":  {},
}

// Validation errors.
var (
	ErrFileTooLarge    = errors.New("file size exceeds 5MB limit")
	ErrFileTypeInvalid = errors.New("invalid file type; allowed: pdf, xlsx, docx, jpg, jpeg, png, zip")
)

// ValidateFile checks an upload candidate against the portal's size cap and
// extension allow-list. A file of exactly MaxFileSize passes.
func ValidateFile(name string, size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%w: %.2fMB", ErrFileTooLarge, float64(size)/(1024*1024))
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %s", ErrFileTypeInvalid, ext)
	}
	return nil
}

// Encode renders file bytes as the base64 payload the send endpoint expects.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DownloadName derives a collision-resistant filename for a saved
// attachment: the original base name plus a timestamp, keeping the
// extension. Matches the portal UI's convention so repeated downloads of the
// same attachment never overwrite each other.
func DownloadName(original string, now time.Time) string {
	stamp := strings.ReplaceAll(now.UTC().Format("2006-01-02T15:04:05"), ":", "-")
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)
	if base == "" {
		base = "attachment"
	}
	return base + "_" + stamp + ext
}

// Preview classes by filename extension, used by view/preview surfaces.
var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
}

var textExtensions = map[string]struct{}{
	".txt": {}, ".csv": {}, ".json": {}, ".xml": {}, ".html": {}, ".css": {}, ".js": {}, ".md": {},
}

// IsImage reports whether the filename looks like an image.
func IsImage(fileName string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// IsPDF reports whether the filename looks like a PDF.
func IsPDF(fileName string) bool {
	return strings.ToLower(filepath.Ext(fileName)) == ".pdf"
}

// IsText reports whether the filename looks like a previewable text file.
func IsText(fileName string) bool {
	_, ok := textExtensions[strings.ToLower(filepath.Ext(fileName))]
	return ok
}
