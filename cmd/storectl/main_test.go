package main

import (
	"testing"

	"github.com/monitoring-tools/thanos/internal/store/storepb"
)

func TestParseMatcher(t *testing.T) {
	tests := []struct {
		in       string
		wantType storepb.MatcherType
		wantName string
		wantVal  string
	}{
		{`__name__=up`, storepb.MatcherType_EQ, "__name__", "up"},
		{`job="node"`, storepb.MatcherType_EQ, "job", "node"},
		{`env!=dev`, storepb.MatcherType_NEQ, "env", "dev"},
		{`job=~"node.*"`, storepb.MatcherType_RE, "job", "node.*"},
		{`instance!~10\..*`, storepb.MatcherType_NRE, "instance", `10\..*`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := parseMatcher(tt.in)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if m.Type != tt.wantType || m.Name != tt.wantName || m.Value != tt.wantVal {
				t.Errorf("got %s %q %q", m.Type, m.Name, m.Value)
			}
		})
	}
}

func TestParseMatcherInvalid(t *testing.T) {
	for _, in := range []string{"", "noop", "=value", "~broken"} {
		if _, err := parseMatcher(in); err == nil {
			t.Errorf("parseMatcher(%q): expected error", in)
		}
	}
}
