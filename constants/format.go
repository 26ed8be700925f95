package constants

import "strings"

// Format is the closed set of document formats the pipeline understands.
// Resolution happens once at ingestion time; everything downstream switches
// on the variant, never on the raw filename.
type Format string

const (
	PDF         Format = "PDF"
	DOCX        Format = "DOCX"
	TEXT        Format = "TEXT"
	DICOM       Format = "DICOM"
	IMAGE       Format = "IMAGE"
	UNSUPPORTED Format = "UNSUPPORTED"
)

// AllowedExtensions holds the default allowed file extensions for ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"doc":  {},
	"docx": {},
	"txt":  {},
	"csv":  {},
	"md":   {},
	"dcm":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tiff": {},
	"tif":  {},
	"bmp":  {},
	"gif":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat resolves a normalized extension to its format variant.
// Unknown extensions resolve to UNSUPPORTED rather than falling through.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "doc", "docx":
		return DOCX
	case "txt", "csv", "md":
		return TEXT
	case "dcm":
		return DICOM
	case "png", "jpg", "jpeg", "tiff", "tif", "bmp", "gif":
		return IMAGE
	default:
		return UNSUPPORTED
	}
}

// IsRasterExt reports whether the extension is a pass-through raster image.
func IsRasterExt(ext string) bool {
	return MapExtToFormat(ext) == IMAGE
}
