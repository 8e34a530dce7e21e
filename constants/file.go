package constants

import "strings"

// Format is the coarse file format a receipt upload resolves to.
type Format string

const (
	IMAGE   Format = "IMAGE"
	PDF     Format = "PDF"
	TXT     Format = "TXT"
	UNKNOWN Format = "UNKNOWN"
)

// AllowedExtensions holds the file extensions accepted for receipt uploads.
var AllowedExtensions = map[string]struct{}{
	"jpg": {},
	"png": {},
	"pdf": {},
	"txt": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether a (possibly dotted, mixed-case) extension is
// one of the supported upload types.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat resolves a file extension to its extraction format.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "jpg", "png":
		return IMAGE
	case "pdf":
		return PDF
	case "txt":
		return TXT
	default:
		return UNKNOWN
	}
}
