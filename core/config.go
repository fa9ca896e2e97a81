package core

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultOutDir  = "responses"
)

// ConfigError is returned for problems detected before any request is sent.
type ConfigError struct {
	parent error
}

func newConfigError(format string, args ...interface{}) error {
	return &ConfigError{parent: fmt.Errorf(format, args...)}
}

func (err *ConfigError) Error() string {
	return err.parent.Error()
}

func (err *ConfigError) Unwrap() error {
	return err.parent
}

func IsConfigError(err error) bool {
	var cerr *ConfigError
	return errors.As(err, &cerr)
}

type Config struct {
	EndpointsFile string
	BaseURL       string
	NetrcPath     string
	HTTPClient    *http.Client
	RequestHeader http.Header
	// Timeout bounds each request. Zero leaves it to HTTPClient.
	Timeout time.Duration
	// Stdout receives response bodies and nothing else.
	Stdout io.Writer
	// Recorder enables storage mode. When nil, bodies are streamed to Stdout and no file is written.
	Recorder Recorder
	// Formatter is applied to the storage mode echo only. Stored files keep the raw body.
	Formatter Formatter
	OnRequest OnRequestHandler
	OnResult  OnResultHandler
}

func NewConfig(endpointsFile string) *Config {
	netrcPath, _ := DefaultNetrcPath()
	return &Config{
		EndpointsFile: endpointsFile,
		BaseURL:       DefaultBaseURL,
		NetrcPath:     netrcPath,
		HTTPClient:    http.DefaultClient,
		RequestHeader: http.Header{
			"Accept": []string{"application/json"},
		},
		Stdout: os.Stdout,
	}
}

// Validate runs the pre-flight checks. Every failure is a *ConfigError.
func (c *Config) Validate() error {
	if c.EndpointsFile == "" {
		return newConfigError("endpoints file must be specified")
	}
	if info, err := os.Stat(c.EndpointsFile); err != nil {
		return newConfigError("endpoints file not found: %s", c.EndpointsFile)
	} else if info.IsDir() {
		return newConfigError("endpoints file is a directory: %s", c.EndpointsFile)
	}
	if c.NetrcPath == "" {
		return newConfigError("credential file location is unknown")
	}
	if _, err := os.Stat(c.NetrcPath); err != nil {
		return newConfigError("credential file not found: %s", c.NetrcPath)
	}
	if c.BaseURL == "" {
		return newConfigError("base URL must not be empty")
	}
	if c.Stdout == nil {
		return newConfigError("stdout writer must be set")
	}
	return nil
}
