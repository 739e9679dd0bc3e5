package store

import (
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/monitoring-tools/thanos/internal/store/storepb"
)

// regexCache caches compiled, anchored matcher regexes across requests.
// Dashboards re-issue the same selectors constantly, so the hit rate is high.
type regexCache struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

func newRegexCache(size int) (*regexCache, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		return nil, err
	}
	return &regexCache{cache: c}, nil
}

func (rc *regexCache) get(pattern string) (*regexp.Regexp, error) {
	if re, ok := rc.cache.Get(pattern); ok {
		return re, nil
	}
	// Fully anchored, same as Prometheus matcher semantics.
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, err
	}
	rc.cache.Add(pattern, re)
	return re, nil
}

// matcherFunc reports whether a label value satisfies one matcher.
type matcherFunc func(value string) bool

// compileMatchers turns the request matchers into executable predicates.
// An unparsable regex fails the whole request; there is no meaningful
// partial answer to a selector that cannot be evaluated.
func compileMatchers(ms []*storepb.LabelMatcher, rc *regexCache) (map[string][]matcherFunc, error) {
	compiled := make(map[string][]matcherFunc, len(ms))
	for _, m := range ms {
		var fn matcherFunc
		switch m.Type {
		case storepb.MatcherType_EQ:
			v := m.Value
			fn = func(value string) bool { return value == v }
		case storepb.MatcherType_NEQ:
			v := m.Value
			fn = func(value string) bool { return value != v }
		case storepb.MatcherType_RE:
			re, err := rc.get(m.Value)
			if err != nil {
				return nil, fmt.Errorf("invalid matcher %s: %w", m, err)
			}
			fn = re.MatchString
		case storepb.MatcherType_NRE:
			re, err := rc.get(m.Value)
			if err != nil {
				return nil, fmt.Errorf("invalid matcher %s: %w", m, err)
			}
			fn = func(value string) bool { return !re.MatchString(value) }
		default:
			return nil, fmt.Errorf("unknown matcher type %d", m.Type)
		}
		compiled[m.Name] = append(compiled[m.Name], fn)
	}
	return compiled, nil
}

// matchesLabels evaluates compiled matchers against a sorted label set.
// A matcher on an absent label sees the empty string, as in Prometheus.
func matchesLabels(compiled map[string][]matcherFunc, lset []*storepb.Label) bool {
	for name, fns := range compiled {
		value := ""
		for _, l := range lset {
			if l.Name == name {
				value = l.Value
				break
			}
		}
		for _, fn := range fns {
			if !fn(value) {
				return false
			}
		}
	}
	return true
}
