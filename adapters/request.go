package adapters

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/abema/probe/core"
)

const redacted = "[REDACTED]"

var sensitiveHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie"}

// RequestPrinter writes the request line and headers to w with credentials redacted.
func RequestPrinter(w io.Writer) core.OnRequestHandler {
	return func(req *http.Request) {
		fmt.Fprintf(w, "> %s %s\n", req.Method, req.URL)
		header := redactHeader(req.Header)
		keys := make([]string, 0, len(header))
		for key := range header {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			for _, value := range header[key] {
				fmt.Fprintf(w, "> %s: %s\n", key, value)
			}
		}
	}
}

func redactHeader(header http.Header) http.Header {
	copied := header.Clone()
	for _, key := range sensitiveHeaders {
		values := copied.Values(key)
		if len(values) == 0 {
			continue
		}
		masked := make([]string, len(values))
		for i := range values {
			masked[i] = redacted
		}
		copied[http.CanonicalHeaderKey(key)] = masked
	}
	return copied
}
