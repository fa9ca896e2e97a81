package core

import (
	"context"
	"io"
	"net/http"
	"time"
)

type client interface {
	// Get streams the response body of url into w.
	// Transport failures are reported in Meta.Err; the returned error is reserved for failures of w.
	Get(ctx context.Context, endpoint, url string, w io.Writer) (*Meta, error)
}

type simpleClient struct {
	bare        *http.Client
	header      http.Header
	credentials Credentials
	onRequest   OnRequestHandler
}

func newClient(bareClient *http.Client, header http.Header, credentials Credentials, onRequest OnRequestHandler) client {
	return &simpleClient{
		bare:        bareClient,
		header:      header,
		credentials: credentials,
		onRequest:   onRequest,
	}
}

func (c *simpleClient) Get(ctx context.Context, endpoint, url string, w io.Writer) (*Meta, error) {
	meta := &Meta{
		Endpoint:         endpoint,
		URL:              url,
		RequestTimestamp: time.Now(),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		meta.Err = err
		return meta, nil
	}
	req.Header = c.header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if c.credentials != nil {
		if login, password, ok := c.credentials.Lookup(req.URL.Hostname()); ok {
			req.SetBasicAuth(login, password)
		}
	}
	if c.onRequest != nil {
		c.onRequest(req)
	}

	resp, err := c.bare.Do(req)
	if err != nil {
		meta.Elapsed = time.Since(meta.RequestTimestamp)
		meta.Err = err
		return meta, nil
	}
	defer resp.Body.Close()
	meta.StatusCode = resp.StatusCode

	sw := &stickyWriter{w: w}
	n, err := io.Copy(sw, resp.Body)
	meta.Size = n
	meta.Elapsed = time.Since(meta.RequestTimestamp)
	if sw.err != nil {
		return meta, sw.err
	}
	if err != nil {
		meta.Err = err
	}
	return meta, nil
}

// stickyWriter remembers the first write error so it can be told apart from read errors.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (w *stickyWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil && w.err == nil {
		w.err = err
	}
	return n, err
}
