package cmd

import (
	"context"

	"github.com/liuxd6825/extdriver/lib/consts"
	"github.com/liuxd6825/extdriver/trace"
)

// setupTracing returns the tracer for the configured traces output and a
// function flushing and stopping its exporter.
func setupTracing(ctx context.Context, conf Config) (*trace.Tracer, func(context.Context) error, error) {
	tp, err := trace.TracerProviderFromConfigLine(ctx, conf.TracesOutput.String)
	if err != nil {
		return nil, nil, err
	}
	tracer := trace.NewTracer(tp, map[string]string{
		"extdriver.driver":  conf.Driver.String,
		"extdriver.version": consts.Version,
	})
	return tracer, tp.Shutdown, nil
}
