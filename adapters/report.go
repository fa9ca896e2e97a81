package adapters

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/abema/probe/core"
	"github.com/abema/probe/internal/file"
)

type ResultLogConfig struct {
	// Flag is log flag defined standard log package.
	// When JSON option is true, this option is ignored.
	Flag int
	JSON bool
}

// ResultLogger writes one status line per result to w.
func ResultLogger(config *ResultLogConfig, w io.Writer) core.OnResultHandler {
	return func(result *core.Result) {
		writeResult(config, w, result)
	}
}

func FileResultLogger(config *ResultLogConfig, name string) core.OnResultHandler {
	return func(result *core.Result) {
		f, err := file.Append(name)
		if err != nil {
			log.Printf("failed to open log file: %s: %s", name, err)
			return
		}
		defer f.Close()
		writeResult(config, f, result)
	}
}

func writeResult(config *ResultLogConfig, w io.Writer, result *core.Result) {
	if config.JSON {
		writeResultJSON(w, result)
	} else {
		writeResultDefault(config, w, result)
	}
}

func resultValues(result *core.Result) core.Values {
	values := core.Values{
		"time": fmt.Sprintf("%.6fs", result.Elapsed.Seconds()),
		"size": result.Size,
	}
	if result.Path != "" {
		values["file"] = result.Path
	}
	if result.Err != nil {
		values["error"] = result.Err
	}
	return values
}

func writeResultDefault(config *ResultLogConfig, w io.Writer, result *core.Result) {
	logger := log.New(w, "", config.Flag)
	logger.Printf("%s: %s %s: %s", result.Severity(), result.Status(), result.Endpoint, resultValues(result))
}

func writeResultJSON(w io.Writer, result *core.Result) {
	entry := map[string]interface{}{
		"severity": result.Severity(),
		"status":   result.StatusCode,
		"endpoint": result.Endpoint,
		"url":      result.URL,
		"time":     result.Elapsed.Seconds(),
		"size":     result.Size,
		"at":       result.RequestTimestamp.Format(time.RFC3339Nano),
	}
	if result.Path != "" {
		entry["file"] = result.Path
	}
	if result.Err != nil {
		entry["error"] = result.Err.Error()
	}
	json.NewEncoder(w).Encode(entry)
}
