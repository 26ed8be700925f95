package extract

import "strings"

// decodeText reads plain text, CSV, or Markdown, replacing undecodable
// bytes instead of failing.
func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
