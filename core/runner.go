package core

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/abema/probe/internal/thread"
	"github.com/abema/probe/internal/url"
)

type Runner struct {
	config *Config
	client client
}

// NewRunner validates config and loads the credential file.
func NewRunner(config *Config) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	credentials, err := LoadNetrc(config.NetrcPath)
	if err != nil {
		return nil, &ConfigError{parent: err}
	}
	return &Runner{
		config: config,
		client: newClient(config.HTTPClient, config.RequestHeader, credentials, config.OnRequest),
	}, nil
}

// Run requests every endpoint of the endpoints file in order, one at a time.
// Failed requests do not stop the run; only output errors and cancellation of ctx do.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	endpoints, err := LoadEndpoints(r.config.EndpointsFile)
	if err != nil {
		return nil, &ConfigError{parent: fmt.Errorf("failed to read endpoints file: %w", err)}
	}
	summary := &Summary{}
	for _, endpoint := range endpoints {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		var result *Result
		err := thread.Run(func() error {
			var err error
			result, err = r.runEndpoint(ctx, endpoint)
			return err
		})
		if err != nil {
			return summary, fmt.Errorf("%s: %w", endpoint, err)
		}
		summary.Total++
		if !result.OK() {
			summary.Failed++
		}
	}
	return summary, nil
}

func (r *Runner) runEndpoint(ctx context.Context, endpoint string) (*Result, error) {
	reqCtx := ctx
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}
	u := url.Join(r.config.BaseURL, endpoint)

	if r.config.Recorder == nil {
		meta, err := r.client.Get(reqCtx, endpoint, u, r.config.Stdout)
		if err != nil {
			return nil, fmt.Errorf("failed to write response body: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := &Result{Meta: *meta}
		r.onResult(result)
		return result, nil
	}

	rec, err := r.config.Recorder.Create(endpoint)
	if err != nil {
		return nil, err
	}
	body := bytes.NewBuffer(nil)
	meta, err := r.client.Get(reqCtx, endpoint, u, io.MultiWriter(rec, body))
	if err != nil {
		rec.Discard()
		return nil, fmt.Errorf("failed to store response body: %w", err)
	}
	if err := ctx.Err(); err != nil {
		rec.Discard()
		return nil, err
	}
	path, err := rec.Commit(meta)
	if err != nil {
		return nil, err
	}
	if err := r.echo(body.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write response body: %w", err)
	}
	result := &Result{Meta: *meta, Path: path}
	r.onResult(result)
	// A 2xx whose body was cut short is reported as ERROR but is not a non-2xx line.
	if meta.StatusCode < 200 || meta.StatusCode >= 300 {
		if err := r.config.Recorder.RecordFailure(meta); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *Runner) echo(body []byte) error {
	if r.config.Formatter != nil {
		if formatted, err := r.config.Formatter(body); err == nil {
			body = formatted
		}
	}
	_, err := r.config.Stdout.Write(body)
	return err
}

func (r *Runner) onResult(result *Result) {
	if r.config.OnResult != nil {
		r.config.OnResult(result)
	}
}
