package constants

import "testing"

func TestMapExtToFormat(t *testing.T) {
	cases := []struct {
		ext  string
		want Format
	}{
		{".PDF", PDF},
		{"pdf", PDF},
		{".docx", DOCX},
		{"doc", DOCX},
		{"txt", TEXT},
		{"md", TEXT},
		{".dcm", DICOM},
		{"JPEG", IMAGE},
		{"tif", IMAGE},
		{"zip", UNSUPPORTED},
		{"", UNSUPPORTED},
	}
	for _, tc := range cases {
		if got := MapExtToFormat(tc.ext); got != tc.want {
			t.Errorf("MapExtToFormat(%q) = %s, want %s", tc.ext, got, tc.want)
		}
	}
}

func TestAllowedExtensionsMatchFormats(t *testing.T) {
	for ext := range AllowedExtensions {
		if MapExtToFormat(ext) == UNSUPPORTED {
			t.Errorf("allowed extension %q has no format variant", ext)
		}
	}
}
