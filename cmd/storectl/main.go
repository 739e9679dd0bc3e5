// Command storectl queries a running store over the Store gRPC API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/monitoring-tools/thanos/internal/store/storepb"
	"github.com/monitoring-tools/thanos/internal/tracing"
)

type matcherFlags []*storepb.LabelMatcher

func (m *matcherFlags) String() string {
	return storepb.MatchersToString(*m)
}

func (m *matcherFlags) Set(value string) error {
	lm, err := parseMatcher(value)
	if err != nil {
		return err
	}
	*m = append(*m, lm)
	return nil
}

// parseMatcher turns a single selector term like job=~"node.*" (quotes
// optional) into a LabelMatcher. The longest operators are tried first so
// "!=" is not misread as "=".
func parseMatcher(s string) (*storepb.LabelMatcher, error) {
	ops := []struct {
		symbol string
		typ    storepb.MatcherType
	}{
		{"!~", storepb.MatcherType_NRE},
		{"=~", storepb.MatcherType_RE},
		{"!=", storepb.MatcherType_NEQ},
		{"=", storepb.MatcherType_EQ},
	}
	for _, op := range ops {
		idx := strings.Index(s, op.symbol)
		if idx <= 0 {
			continue
		}
		name := s[:idx]
		value := strings.Trim(s[idx+len(op.symbol):], `"`)
		return &storepb.LabelMatcher{Type: op.typ, Name: name, Value: value}, nil
	}
	return nil, fmt.Errorf("invalid matcher %q, expected name=value, name!=value, name=~regex or name!~regex", s)
}

func main() {
	var matchers matcherFlags
	addr := flag.String("addr", "localhost:10901", "Store gRPC address")
	minTime := flag.Int64("min-time", 0, "Range start, milliseconds since epoch")
	maxTime := flag.Int64("max-time", time.Now().UnixMilli(), "Range end, milliseconds since epoch")
	window := flag.Int64("max-resolution-window", 0, "Largest acceptable downsampling resolution in ms (0 = raw)")
	skipChunks := flag.Bool("skip-chunks", false, "Fetch label sets only")
	info := flag.Bool("info", false, "Print store info and exit")
	timeout := flag.Duration("timeout", 30*time.Second, "Total request timeout, including retries")
	flag.Var(&matchers, "match", "Series matcher, repeatable (e.g. -match '__name__=up' -match 'job=~\"node.*\"')")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, "request-id", uuid.NewString())

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()
	client := storepb.NewStoreClient(conn)

	if *info {
		if err := runInfo(ctx, client); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	req := &storepb.SeriesRequest{
		MinTime:             *minTime,
		MaxTime:             *maxTime,
		MaxResolutionWindow: *window,
		Matchers:            matchers,
		SkipChunks:          *skipChunks,
	}

	// Transient failures (store restarting, rate limited) are retried with
	// exponential backoff until the context deadline wins.
	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err = backoff.Retry(func() error {
		err := runSeries(ctx, client, req)
		if isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, bo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func isRetryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted:
		return true
	}
	return false
}

func runInfo(ctx context.Context, client storepb.StoreClient) error {
	resp, err := client.Info(ctx, &storepb.InfoRequest{})
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	fmt.Printf("min_time:\t%d\nmax_time:\t%d\nlabels:\t%s\n", resp.MinTime, resp.MaxTime, resp.Labels)
	return nil
}

func runSeries(ctx context.Context, client storepb.StoreClient, req *storepb.SeriesRequest) error {
	sc, err := client.Series(ctx, req)
	if err != nil {
		return fmt.Errorf("series: %w", err)
	}

	var (
		count      int64
		totalBytes int64
	)
	for {
		resp, err := sc.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("recv: %w", err)
		}
		if w := resp.GetWarning(); w != "" {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			continue
		}

		s := resp.GetSeries()
		count++
		var bytes int64
		for _, c := range s.Chunks {
			for _, chk := range []*storepb.Chunk{c.Raw, c.Count, c.Sum, c.Min, c.Max, c.Counter} {
				if chk != nil {
					bytes += int64(len(chk.Data))
				}
			}
		}
		totalBytes += bytes
		fmt.Printf("%s\t%d chunks\t%s\n", labelsString(s.Labels), len(s.Chunks), tracing.ByteCountIEC(bytes))
	}

	fmt.Printf("\n%d series, %s total\n", count, tracing.ByteCountIEC(totalBytes))
	return nil
}

func labelsString(ls []*storepb.Label) string {
	parts := make([]string, 0, len(ls))
	for _, l := range ls {
		parts = append(parts, fmt.Sprintf("%s=%q", l.Name, l.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
