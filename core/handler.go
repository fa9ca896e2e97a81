package core

import (
	"io"
	"net/http"
)

type (
	OnRequestHandler func(req *http.Request)
	OnResultHandler  func(result *Result)
	// Formatter rewrites a body before it is echoed. An error means "print verbatim".
	Formatter func(body []byte) ([]byte, error)
)

// Recorder persists bodies and metadata in storage mode.
type Recorder interface {
	Create(endpoint string) (Recording, error)
	// RecordFailure is called for every attempt that did not receive a 2xx status,
	// including transport failures (status 000).
	RecordFailure(meta *Meta) error
}

// Recording receives one body. Nothing is visible to readers until Commit.
type Recording interface {
	io.Writer
	Commit(meta *Meta) (path string, err error)
	Discard() error
}

func MergeOnResultHandlers(handlers ...OnResultHandler) OnResultHandler {
	return func(result *Result) {
		for _, handler := range handlers {
			handler(result)
		}
	}
}
