// Package storepb holds the wire types for the Store API.
//
// The message structs are hand-maintained mirrors of storepb.proto. They
// carry legacy protobuf struct tags and implement protoadapt.MessageV1, so
// the standard gRPC proto codec (de)serializes them without generated code.
package storepb

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/protoadapt"
)

// Aggr identifies one of the six aggregation kinds a chunk can carry.
type Aggr int32

const (
	Aggr_RAW     Aggr = 0
	Aggr_COUNT   Aggr = 1
	Aggr_SUM     Aggr = 2
	Aggr_MIN     Aggr = 3
	Aggr_MAX     Aggr = 4
	Aggr_COUNTER Aggr = 5
)

var aggrName = map[Aggr]string{
	Aggr_RAW:     "RAW",
	Aggr_COUNT:   "COUNT",
	Aggr_SUM:     "SUM",
	Aggr_MIN:     "MIN",
	Aggr_MAX:     "MAX",
	Aggr_COUNTER: "COUNTER",
}

func (a Aggr) String() string {
	if n, ok := aggrName[a]; ok {
		return n
	}
	return fmt.Sprintf("AGGR(%d)", int32(a))
}

// MatcherType is the comparison operator of a LabelMatcher.
type MatcherType int32

const (
	MatcherType_EQ  MatcherType = 0 // =
	MatcherType_NEQ MatcherType = 1 // !=
	MatcherType_RE  MatcherType = 2 // =~
	MatcherType_NRE MatcherType = 3 // !~
)

var matcherTypeSymbol = map[MatcherType]string{
	MatcherType_EQ:  "=",
	MatcherType_NEQ: "!=",
	MatcherType_RE:  "=~",
	MatcherType_NRE: "!~",
}

func (t MatcherType) String() string {
	if s, ok := matcherTypeSymbol[t]; ok {
		return s
	}
	return fmt.Sprintf("MATCHER(%d)", int32(t))
}

// PartialResponseStrategy controls how the server reacts to non-fatal
// failures while serving a stream.
type PartialResponseStrategy int32

const (
	// PartialResponseStrategy_WARN reports failures as warning frames and
	// keeps streaming.
	PartialResponseStrategy_WARN PartialResponseStrategy = 0
	// PartialResponseStrategy_ABORT fails the whole request.
	PartialResponseStrategy_ABORT PartialResponseStrategy = 1
)

func (s PartialResponseStrategy) String() string {
	switch s {
	case PartialResponseStrategy_WARN:
		return "WARN"
	case PartialResponseStrategy_ABORT:
		return "ABORT"
	}
	return fmt.Sprintf("STRATEGY(%d)", int32(s))
}

// InfoRequest asks a store for its time range and external labels.
type InfoRequest struct{}

func (m *InfoRequest) Reset()         { *m = InfoRequest{} }
func (m *InfoRequest) String() string { return "InfoRequest{}" }
func (*InfoRequest) ProtoMessage()    {}

// InfoResponse describes the data a store can serve.
type InfoResponse struct {
	MinTime int64    `protobuf:"varint,1,opt,name=min_time,json=minTime,proto3" json:"min_time,omitempty"`
	MaxTime int64    `protobuf:"varint,2,opt,name=max_time,json=maxTime,proto3" json:"max_time,omitempty"`
	Labels  []*Label `protobuf:"bytes,3,rep,name=labels,proto3" json:"labels,omitempty"`
}

func (m *InfoResponse) Reset() { *m = InfoResponse{} }
func (m *InfoResponse) String() string {
	return fmt.Sprintf("InfoResponse{min_time=%d, max_time=%d, labels=%s}", m.MinTime, m.MaxTime, labelsToString(m.Labels))
}
func (*InfoResponse) ProtoMessage() {}

// SeriesRequest selects series by matchers over a time range.
type SeriesRequest struct {
	MinTime  int64           `protobuf:"varint,1,opt,name=min_time,json=minTime,proto3" json:"min_time,omitempty"`
	MaxTime  int64           `protobuf:"varint,2,opt,name=max_time,json=maxTime,proto3" json:"max_time,omitempty"`
	Matchers []*LabelMatcher `protobuf:"bytes,3,rep,name=matchers,proto3" json:"matchers,omitempty"`

	// MaxResolutionWindow is the largest acceptable downsampling resolution
	// in milliseconds. Zero selects raw data only.
	MaxResolutionWindow int64  `protobuf:"varint,4,opt,name=max_resolution_window,json=maxResolutionWindow,proto3" json:"max_resolution_window,omitempty"`
	Aggregates          []Aggr `protobuf:"varint,5,rep,packed,name=aggregates,proto3" json:"aggregates,omitempty"`

	PartialResponseStrategy PartialResponseStrategy `protobuf:"varint,6,opt,name=partial_response_strategy,json=partialResponseStrategy,proto3" json:"partial_response_strategy,omitempty"`

	// SkipChunks requests label sets only, with no chunk data attached.
	SkipChunks bool `protobuf:"varint,7,opt,name=skip_chunks,json=skipChunks,proto3" json:"skip_chunks,omitempty"`
}

func (m *SeriesRequest) Reset() { *m = SeriesRequest{} }
func (m *SeriesRequest) String() string {
	return fmt.Sprintf("SeriesRequest{min_time=%d, max_time=%d, matchers=%s}", m.MinTime, m.MaxTime, MatchersToString(m.Matchers))
}
func (*SeriesRequest) ProtoMessage() {}

// Label is one name/value pair of a series' identity.
type Label struct {
	Name  string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Value string `protobuf:"bytes,2,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *Label) Reset()         { *m = Label{} }
func (m *Label) String() string { return fmt.Sprintf("%s=%q", m.Name, m.Value) }
func (*Label) ProtoMessage()    {}

// LabelMatcher is a single selection condition on one label.
type LabelMatcher struct {
	Type  MatcherType `protobuf:"varint,1,opt,name=type,proto3" json:"type,omitempty"`
	Name  string      `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Value string      `protobuf:"bytes,3,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *LabelMatcher) Reset()         { *m = LabelMatcher{} }
func (m *LabelMatcher) String() string { return fmt.Sprintf("%s%s%q", m.Name, m.Type, m.Value) }
func (*LabelMatcher) ProtoMessage()    {}

// Chunk is one encoded chunk payload. The store never decodes Data; it is
// forwarded exactly as stored.
type Chunk struct {
	Type int32  `protobuf:"varint,1,opt,name=type,proto3" json:"type,omitempty"`
	Data []byte `protobuf:"bytes,2,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *Chunk) Reset()         { *m = Chunk{} }
func (m *Chunk) String() string { return fmt.Sprintf("Chunk{type=%d, %d bytes}", m.Type, len(m.Data)) }
func (*Chunk) ProtoMessage()    {}

// AggrChunk bundles the encoded chunks of one time window. Any subset of the
// six aggregate fields may be set; a set field with empty data still counts
// as present.
type AggrChunk struct {
	MinTime int64 `protobuf:"varint,1,opt,name=min_time,json=minTime,proto3" json:"min_time,omitempty"`
	MaxTime int64 `protobuf:"varint,2,opt,name=max_time,json=maxTime,proto3" json:"max_time,omitempty"`

	Raw     *Chunk `protobuf:"bytes,3,opt,name=raw,proto3" json:"raw,omitempty"`
	Count   *Chunk `protobuf:"bytes,4,opt,name=count,proto3" json:"count,omitempty"`
	Sum     *Chunk `protobuf:"bytes,5,opt,name=sum,proto3" json:"sum,omitempty"`
	Min     *Chunk `protobuf:"bytes,6,opt,name=min,proto3" json:"min,omitempty"`
	Max     *Chunk `protobuf:"bytes,7,opt,name=max,proto3" json:"max,omitempty"`
	Counter *Chunk `protobuf:"bytes,8,opt,name=counter,proto3" json:"counter,omitempty"`
}

func (m *AggrChunk) Reset() { *m = AggrChunk{} }
func (m *AggrChunk) String() string {
	return fmt.Sprintf("AggrChunk{min_time=%d, max_time=%d}", m.MinTime, m.MaxTime)
}
func (*AggrChunk) ProtoMessage() {}

// Series is one labeled series with its chunks for the requested range.
type Series struct {
	Labels []*Label     `protobuf:"bytes,1,rep,name=labels,proto3" json:"labels,omitempty"`
	Chunks []*AggrChunk `protobuf:"bytes,2,rep,name=chunks,proto3" json:"chunks,omitempty"`
}

func (m *Series) Reset() { *m = Series{} }
func (m *Series) String() string {
	return fmt.Sprintf("Series{labels=%s, %d chunks}", labelsToString(m.Labels), len(m.Chunks))
}
func (*Series) ProtoMessage() {}

// SeriesResponse is one stream frame: either a series or a warning.
type SeriesResponse struct {
	Series  *Series `protobuf:"bytes,1,opt,name=series,proto3" json:"series,omitempty"`
	Warning string  `protobuf:"bytes,2,opt,name=warning,proto3" json:"warning,omitempty"`
}

func (m *SeriesResponse) Reset() { *m = SeriesResponse{} }
func (m *SeriesResponse) String() string {
	if m.Warning != "" {
		return fmt.Sprintf("SeriesResponse{warning=%q}", m.Warning)
	}
	return fmt.Sprintf("SeriesResponse{%s}", m.Series)
}
func (*SeriesResponse) ProtoMessage() {}

// GetSeries returns the series payload, or nil for warning-only frames.
func (m *SeriesResponse) GetSeries() *Series {
	if m == nil {
		return nil
	}
	return m.Series
}

// GetWarning returns the warning text, or "" for series frames.
func (m *SeriesResponse) GetWarning() string {
	if m == nil {
		return ""
	}
	return m.Warning
}

// NewSeriesResponse wraps a series into a stream frame.
func NewSeriesResponse(s *Series) *SeriesResponse {
	return &SeriesResponse{Series: s}
}

// NewWarnSeriesResponse wraps a non-fatal error into a warning frame.
func NewWarnSeriesResponse(err error) *SeriesResponse {
	return &SeriesResponse{Warning: err.Error()}
}

// MatchersToString renders matchers in the usual {a="b",c=~"d"} selector form.
func MatchersToString(ms []*LabelMatcher) string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, m := range ms {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(m.String())
	}
	sb.WriteString("}")
	return sb.String()
}

func labelsToString(ls []*Label) string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, l := range ls {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(l.String())
	}
	sb.WriteString("}")
	return sb.String()
}

var (
	_ protoadapt.MessageV1 = (*InfoRequest)(nil)
	_ protoadapt.MessageV1 = (*InfoResponse)(nil)
	_ protoadapt.MessageV1 = (*SeriesRequest)(nil)
	_ protoadapt.MessageV1 = (*SeriesResponse)(nil)
	_ protoadapt.MessageV1 = (*Series)(nil)
	_ protoadapt.MessageV1 = (*AggrChunk)(nil)
	_ protoadapt.MessageV1 = (*Chunk)(nil)
	_ protoadapt.MessageV1 = (*Label)(nil)
	_ protoadapt.MessageV1 = (*LabelMatcher)(nil)
)
