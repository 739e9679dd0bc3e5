package store

import (
	"strings"
	"testing"

	"github.com/monitoring-tools/thanos/internal/store/storepb"
)

func mustCache(t *testing.T) *regexCache {
	t.Helper()
	rc, err := newRegexCache(16)
	if err != nil {
		t.Fatalf("new regex cache: %v", err)
	}
	return rc
}

func TestCompileAndMatch(t *testing.T) {
	lset := []*storepb.Label{
		{Name: "__name__", Value: "http_requests_total"},
		{Name: "instance", Value: "10.0.0.1:9090"},
		{Name: "job", Value: "node-exporter"},
	}

	tests := []struct {
		name     string
		matchers []*storepb.LabelMatcher
		want     bool
	}{
		{
			"eq match",
			[]*storepb.LabelMatcher{{Type: storepb.MatcherType_EQ, Name: "job", Value: "node-exporter"}},
			true,
		},
		{
			"eq mismatch",
			[]*storepb.LabelMatcher{{Type: storepb.MatcherType_EQ, Name: "job", Value: "prometheus"}},
			false,
		},
		{
			"neq",
			[]*storepb.LabelMatcher{{Type: storepb.MatcherType_NEQ, Name: "job", Value: "prometheus"}},
			true,
		},
		{
			"regex anchored",
			[]*storepb.LabelMatcher{{Type: storepb.MatcherType_RE, Name: "job", Value: "node.*"}},
			true,
		},
		{
			"regex must match whole value",
			[]*storepb.LabelMatcher{{Type: storepb.MatcherType_RE, Name: "job", Value: "node"}},
			false,
		},
		{
			"negated regex",
			[]*storepb.LabelMatcher{{Type: storepb.MatcherType_NRE, Name: "job", Value: "node.*"}},
			false,
		},
		{
			"absent label matches empty string",
			[]*storepb.LabelMatcher{{Type: storepb.MatcherType_EQ, Name: "env", Value: ""}},
			true,
		},
		{
			"absent label fails non-empty eq",
			[]*storepb.LabelMatcher{{Type: storepb.MatcherType_EQ, Name: "env", Value: "prod"}},
			false,
		},
		{
			"all matchers must hold",
			[]*storepb.LabelMatcher{
				{Type: storepb.MatcherType_EQ, Name: "job", Value: "node-exporter"},
				{Type: storepb.MatcherType_RE, Name: "instance", Value: `10\..*`},
				{Type: storepb.MatcherType_NEQ, Name: "__name__", Value: "up"},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled, err := compileMatchers(tt.matchers, mustCache(t))
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if got := matchesLabels(compiled, lset); got != tt.want {
				t.Errorf("matchesLabels: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileMatchersBadRegex(t *testing.T) {
	_, err := compileMatchers([]*storepb.LabelMatcher{
		{Type: storepb.MatcherType_RE, Name: "job", Value: "(unclosed"},
	}, mustCache(t))
	if err == nil {
		t.Fatal("expected error for unparsable regex")
	}
	if !strings.Contains(err.Error(), "invalid matcher") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRegexCacheReuse(t *testing.T) {
	rc := mustCache(t)

	first, err := rc.get("node.*")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := rc.get("node.*")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first != second {
		t.Error("expected cached regex to be reused")
	}
}
