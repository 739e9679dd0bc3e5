package tracing

import (
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/monitoring-tools/thanos/internal/store/storepb"
)

// SeriesStats accumulates byte-volume and count statistics for one Series
// stream and emits them on the bound span. One instance serves exactly one
// stream; it is created at stream open and discarded after Report.
//
// Observe may race with Report (a deadline or watchdog path can ask for a
// live snapshot), so the counters are guarded by a read/write lock.
type SeriesStats struct {
	span trace.Span

	mu         sync.RWMutex
	firstSent  bool
	seriesSent int64
	raw        int64
	count      int64
	sum        int64
	min        int64
	max        int64
	counter    int64
}

// NewSeriesStats returns a stats accumulator bound to the given span.
func NewSeriesStats(span trace.Span) *SeriesStats {
	return &SeriesStats{span: span}
}

// LogRequest records the immutable request facts on the span. It never
// fails; a tracing backend that drops the write is not this code's concern.
func (ss *SeriesStats) LogRequest(r *storepb.SeriesRequest) {
	ss.span.SetAttributes(attribute.String("page.type", "thanos.query"))
	ss.span.AddEvent("series request", trace.WithAttributes(
		attribute.Int64("min_time", r.MinTime),
		attribute.Int64("max_time", r.MaxTime),
		attribute.String("duration", fmt.Sprintf("%ds", (r.MaxTime-r.MinTime)/1000)),
		attribute.Int64("max_resolution_window", r.MaxResolutionWindow),
		attribute.String("matchers", storepb.MatchersToString(r.Matchers)),
		attribute.String("aggregates", aggrsToString(r.Aggregates)),
		attribute.String("partial_response_strategy", r.PartialResponseStrategy.String()),
		attribute.Bool("skip_chunks", r.SkipChunks),
	))
}

// Observe counts one outbound series. The first call per instance emits a
// "first series sent" event on the span, exactly once even under concurrent
// calls. For every chunk, each aggregate payload that is set contributes the
// length of its encoded data to the matching counter. A set payload with
// empty data counts as present and contributes zero bytes.
func (ss *SeriesStats) Observe(s *storepb.Series) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.firstSent {
		ss.span.AddEvent("first series sent")
		ss.firstSent = true
	}

	ss.seriesSent++

	for _, chunk := range s.Chunks {
		if chunk.Raw != nil {
			ss.raw += int64(len(chunk.Raw.Data))
		}

		if chunk.Count != nil {
			ss.count += int64(len(chunk.Count.Data))
		}

		if chunk.Sum != nil {
			ss.sum += int64(len(chunk.Sum.Data))
		}

		if chunk.Min != nil {
			ss.min += int64(len(chunk.Min.Data))
		}

		if chunk.Max != nil {
			ss.max += int64(len(chunk.Max.Data))
		}

		if chunk.Counter != nil {
			ss.counter += int64(len(chunk.Counter.Data))
		}
	}
}

// Report emits the accumulated totals on the span. It can be called again
// after further Observe calls and will reflect the updated state; nothing is
// reset or released.
func (ss *SeriesStats) Report() {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	ss.span.AddEvent("series stats", trace.WithAttributes(
		attribute.String("total_sent", ByteCountIEC(ss.raw+ss.count+ss.sum+ss.min+ss.max+ss.counter)),
		attribute.String("raw_aggr_sent", ByteCountIEC(ss.raw)),
		attribute.String("count_aggr_sent", ByteCountIEC(ss.count)),
		attribute.String("sum_aggr_sent", ByteCountIEC(ss.sum)),
		attribute.String("min_aggr_sent", ByteCountIEC(ss.min)),
		attribute.String("max_aggr_sent", ByteCountIEC(ss.max)),
		attribute.String("counter_aggr_sent", ByteCountIEC(ss.counter)),
		attribute.Int64("series_sent", ss.seriesSent),
	))
}

// StatsSnapshot is a point-in-time copy of the accumulated counters.
type StatsSnapshot struct {
	SeriesSent int64
	Raw        int64
	Count      int64
	Sum        int64
	Min        int64
	Max        int64
	Counter    int64
}

// TotalBytes sums the six per-aggregate byte counters.
func (s StatsSnapshot) TotalBytes() int64 {
	return s.Raw + s.Count + s.Sum + s.Min + s.Max + s.Counter
}

// Snapshot returns a consistent copy of the current counters.
func (ss *SeriesStats) Snapshot() StatsSnapshot {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	return StatsSnapshot{
		SeriesSent: ss.seriesSent,
		Raw:        ss.raw,
		Count:      ss.count,
		Sum:        ss.sum,
		Min:        ss.min,
		Max:        ss.max,
		Counter:    ss.counter,
	}
}

// ByteCountIEC renders a byte count in binary (IEC) units, e.g. "1.5 KiB".
func ByteCountIEC(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB",
		float64(b)/float64(div), "KMGTPE"[exp])
}

func aggrsToString(aggrs []storepb.Aggr) string {
	names := make([]string, 0, len(aggrs))
	for _, a := range aggrs {
		names = append(names, a.String())
	}
	return "[" + strings.Join(names, ",") + "]"
}

// SeriesServer decorates a Series stream so every outbound frame passes
// through the stats accumulator before being forwarded. It changes neither
// message content nor forwarding order, and it surfaces only the errors the
// underlying stream produces.
type SeriesServer struct {
	storepb.Store_SeriesServer

	stats *SeriesStats
}

// NewSeriesServer wraps server with a fresh accumulator bound to span and
// logs the request metadata right away. The returned reportFn emits the
// final stats; the owner of the stream must call it exactly once after the
// last message, whether the stream succeeded or failed.
func NewSeriesServer(server storepb.Store_SeriesServer, req *storepb.SeriesRequest, span trace.Span) (srv *SeriesServer, reportFn func()) {
	stats := NewSeriesStats(span)
	stats.LogRequest(req)

	return &SeriesServer{
		Store_SeriesServer: server,
		stats:              stats,
	}, stats.Report
}

// Send forwards r unmodified to the underlying stream. Frames carrying a
// series payload are observed first; warning-only frames pass through
// uncounted.
func (ss *SeriesServer) Send(r *storepb.SeriesResponse) error {
	if s := r.GetSeries(); s != nil {
		ss.stats.Observe(s)
	}

	return ss.Store_SeriesServer.Send(r)
}

// Stats exposes the live accumulator, e.g. for bridging a completed
// stream's totals into process-wide metrics.
func (ss *SeriesServer) Stats() *SeriesStats {
	return ss.stats
}
