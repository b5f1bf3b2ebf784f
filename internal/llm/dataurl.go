package llm

import (
	"encoding/base64"
	"net/http"
)

// DataURL encodes bytes as a data: URL. An empty mimeType is sniffed.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
