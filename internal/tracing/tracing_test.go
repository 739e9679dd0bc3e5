package tracing

import (
	"context"
	"testing"

	"github.com/monitoring-tools/thanos/config"
)

func TestTracerDisabled(t *testing.T) {
	tracer, err := New(config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new tracer: %v", err)
	}
	if tracer.IsEnabled() {
		t.Error("tracer should be disabled")
	}

	ctx, span := tracer.StartSpan(context.Background(), "store_series")
	if ctx == nil || span == nil {
		t.Fatal("disabled tracer must still hand back a usable context and span")
	}
	// Must be safe to use even with no provider configured.
	span.AddEvent("first series sent")
	span.End()

	if err := tracer.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
