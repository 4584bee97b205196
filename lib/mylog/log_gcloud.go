package mylog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rajuvisuals/storefront/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = newGcloudLogger
	}
}

type gcloudLogger struct {
	componentName string
}

func newGcloudLogger(componentName string) Logger {
	return gcloudLogger{
		componentName: componentName,
	}
}

// structuredEntry is understood by the GCP logging agent
type structuredEntry struct {
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Component string `json:"component,omitempty"`
	Trace     string `json:"logging.googleapis.com/trace,omitempty"`
}

func (l gcloudLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...interface{}) {
	trace, _ := ctx.Value(mycontext.CtxTraceContext{}).(string)

	entry := structuredEntry{
		Severity:  string(severity),
		Message:   fmt.Sprintf("%s: %s", traceLabel, fmt.Sprintf(format, a...)),
		Component: l.componentName,
		Trace:     trace,
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshalling log entry: %s", err)
		return
	}

	fmt.Fprintln(os.Stdout, string(jsonBytes))
}
