package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/monitoring-tools/thanos/config"
	"github.com/monitoring-tools/thanos/internal/metrics"
	"github.com/monitoring-tools/thanos/internal/store/storepb"
	"github.com/monitoring-tools/thanos/internal/tracing"
)

// Server implements the Store gRPC API on top of a MemStore.
type Server struct {
	storepb.UnimplementedStoreServer

	store   *MemStore
	tracer  *tracing.Tracer
	metrics *metrics.Metrics

	extLabels []*storepb.Label

	// limits can be swapped at runtime by the config watcher.
	mu        sync.RWMutex
	limiter   *rate.Limiter
	maxSeries int
	regexes   *regexCache
}

// NewServer builds the Store service.
func NewServer(st *MemStore, tracer *tracing.Tracer, m *metrics.Metrics, limits config.LimitsConfig, externalLabels map[string]string) (*Server, error) {
	s := &Server{
		store:     st,
		tracer:    tracer,
		metrics:   m,
		extLabels: sortedLabels(externalLabels),
	}
	if err := s.ApplyLimits(limits); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyLimits installs new request limits. Safe to call while serving.
func (s *Server) ApplyLimits(limits config.LimitsConfig) error {
	regexes, err := newRegexCache(limits.MatcherCacheSize)
	if err != nil {
		return err
	}

	var limiter *rate.Limiter
	if limits.RequestRate > 0 {
		burst := limits.RequestBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(limits.RequestRate), burst)
	}

	s.mu.Lock()
	s.limiter = limiter
	s.maxSeries = limits.MaxSeriesPerRequest
	s.regexes = regexes
	s.mu.Unlock()
	return nil
}

// Info implements storepb.StoreServer.
func (s *Server) Info(_ context.Context, _ *storepb.InfoRequest) (*storepb.InfoResponse, error) {
	minTime, maxTime := s.store.TimeRange()
	return &storepb.InfoResponse{
		MinTime: minTime,
		MaxTime: maxTime,
		Labels:  s.extLabels,
	}, nil
}

// Series implements storepb.StoreServer. Every outbound frame passes
// through the stats decorator; the stream's stats are reported on the span
// when the call finishes and folded into the process-wide counters.
func (s *Server) Series(req *storepb.SeriesRequest, srv storepb.Store_SeriesServer) error {
	start := time.Now()

	_, span := s.tracer.StartSpan(srv.Context(), "store_series")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", uuid.NewString()))

	seriesSrv, reportFn := tracing.NewSeriesServer(srv, req, span)
	defer reportFn()

	err := s.series(req, seriesSrv)

	snap := seriesSrv.Stats().Snapshot()
	s.metrics.SeriesSent.Add(float64(snap.SeriesSent))
	s.metrics.SentBytes.WithLabelValues("raw").Add(float64(snap.Raw))
	s.metrics.SentBytes.WithLabelValues("count").Add(float64(snap.Count))
	s.metrics.SentBytes.WithLabelValues("sum").Add(float64(snap.Sum))
	s.metrics.SentBytes.WithLabelValues("min").Add(float64(snap.Min))
	s.metrics.SentBytes.WithLabelValues("max").Add(float64(snap.Max))
	s.metrics.SentBytes.WithLabelValues("counter").Add(float64(snap.Counter))
	s.metrics.SeriesRequests.WithLabelValues(status.Code(err).String()).Inc()
	s.metrics.RequestDuration.Observe(time.Since(start).Seconds())

	return err
}

func (s *Server) series(req *storepb.SeriesRequest, srv storepb.Store_SeriesServer) error {
	if req.MinTime > req.MaxTime {
		return status.Errorf(codes.InvalidArgument, "min_time %d is after max_time %d", req.MinTime, req.MaxTime)
	}

	s.mu.RLock()
	limiter := s.limiter
	maxSeries := s.maxSeries
	regexes := s.regexes
	s.mu.RUnlock()

	if limiter != nil && !limiter.Allow() {
		return status.Error(codes.ResourceExhausted, "series request rate limit exceeded")
	}

	compiled, err := compileMatchers(req.Matchers, regexes)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	matched := s.store.Select(req.MinTime, req.MaxTime, req.MaxResolutionWindow, func(lset []*storepb.Label) bool {
		return matchesLabels(compiled, lset)
	})

	truncated := false
	if maxSeries > 0 && len(matched) > maxSeries {
		if req.PartialResponseStrategy == storepb.PartialResponseStrategy_ABORT {
			return status.Errorf(codes.ResourceExhausted, "matched %d series, limit is %d", len(matched), maxSeries)
		}
		matched = matched[:maxSeries]
		truncated = true
	}

	for _, sel := range matched {
		series := &storepb.Series{
			Labels: s.externalizeLabels(sel.lset),
		}
		if !req.SkipChunks {
			series.Chunks = filterChunks(sel.chunks, req.Aggregates)
		}
		if err := srv.Send(storepb.NewSeriesResponse(series)); err != nil {
			return err
		}
	}

	if truncated {
		err := fmt.Errorf("response truncated to %d series by max_series_per_request", maxSeries)
		if sendErr := srv.Send(storepb.NewWarnSeriesResponse(err)); sendErr != nil {
			return sendErr
		}
	}

	return nil
}

// externalizeLabels merges the store's external labels into a series label
// set. Series-local labels win on conflict. The input is not mutated.
func (s *Server) externalizeLabels(lset []*storepb.Label) []*storepb.Label {
	if len(s.extLabels) == 0 {
		return lset
	}

	merged := make([]*storepb.Label, 0, len(lset)+len(s.extLabels))
	merged = append(merged, lset...)
	for _, ext := range s.extLabels {
		conflict := false
		for _, l := range lset {
			if l.Name == ext.Name {
				conflict = true
				break
			}
		}
		if !conflict {
			merged = append(merged, ext)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Name < merged[j].Name })
	return merged
}

// filterChunks keeps only the requested aggregate payloads. An empty
// aggregate list means everything the store has.
func filterChunks(chunks []*storepb.AggrChunk, aggrs []storepb.Aggr) []*storepb.AggrChunk {
	if len(aggrs) == 0 {
		return chunks
	}

	want := make(map[storepb.Aggr]bool, len(aggrs))
	for _, a := range aggrs {
		want[a] = true
	}

	out := make([]*storepb.AggrChunk, 0, len(chunks))
	for _, c := range chunks {
		fc := &storepb.AggrChunk{MinTime: c.MinTime, MaxTime: c.MaxTime}
		if want[storepb.Aggr_RAW] {
			fc.Raw = c.Raw
		}
		if want[storepb.Aggr_COUNT] {
			fc.Count = c.Count
		}
		if want[storepb.Aggr_SUM] {
			fc.Sum = c.Sum
		}
		if want[storepb.Aggr_MIN] {
			fc.Min = c.Min
		}
		if want[storepb.Aggr_MAX] {
			fc.Max = c.Max
		}
		if want[storepb.Aggr_COUNTER] {
			fc.Counter = c.Counter
		}
		// Raw data is always served when nothing downsampled was asked for
		// on a chunk that only has raw payload.
		if fc.Raw == nil && fc.Count == nil && fc.Sum == nil && fc.Min == nil && fc.Max == nil && fc.Counter == nil {
			fc.Raw = c.Raw
		}
		out = append(out, fc)
	}
	return out
}
