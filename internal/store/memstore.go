// Package store serves time series over the Store gRPC API from
// in-memory blocks.
package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/s2"

	"github.com/monitoring-tools/thanos/internal/store/storepb"
)

// seriesEntry is one stored series at one downsampling resolution.
type seriesEntry struct {
	lset       []*storepb.Label // sorted by name
	hash       uint64           // xxhash of the sorted label set
	resolution int64            // 0 = raw
	chunks     []*storepb.AggrChunk
}

// MemStore holds series with pre-encoded chunks. Chunk payloads are opaque;
// they are served exactly as ingested. The same label set may be stored at
// several resolutions (raw plus downsampled).
type MemStore struct {
	mu      sync.RWMutex
	entries []*seriesEntry
	byKey   map[string]int // hash|resolution -> index into entries
	minTime int64
	maxTime int64
	blocks  int
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		byKey:   make(map[string]int),
		minTime: math.MaxInt64,
		maxTime: math.MinInt64,
	}
}

// Add ingests one series at the given resolution. Chunks for an already
// known (label set, resolution) pair are appended to the existing entry.
func (m *MemStore) Add(labels map[string]string, resolution int64, chunks []*storepb.AggrChunk) error {
	if len(labels) == 0 {
		return fmt.Errorf("series must carry at least one label")
	}
	if resolution < 0 {
		return fmt.Errorf("resolution must not be negative, got %d", resolution)
	}

	lset := sortedLabels(labels)
	hash := hashLabels(lset)
	key := fmt.Sprintf("%x|%d", hash, resolution)

	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.byKey[key]
	if !ok {
		idx = len(m.entries)
		m.entries = append(m.entries, &seriesEntry{
			lset:       lset,
			hash:       hash,
			resolution: resolution,
		})
		m.byKey[key] = idx
	}

	entry := m.entries[idx]
	entry.chunks = append(entry.chunks, chunks...)
	sort.Slice(entry.chunks, func(i, j int) bool {
		return entry.chunks[i].MinTime < entry.chunks[j].MinTime
	})

	for _, c := range chunks {
		if c.MinTime < m.minTime {
			m.minTime = c.MinTime
		}
		if c.MaxTime > m.maxTime {
			m.maxTime = c.MaxTime
		}
	}
	return nil
}

// TimeRange returns the inclusive time bounds of all stored chunks,
// or (0, 0) for an empty store.
func (m *MemStore) TimeRange() (int64, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return 0, 0
	}
	return m.minTime, m.maxTime
}

// BlockCount returns how many block files have been loaded.
func (m *MemStore) BlockCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blocks
}

// selected is one series picked by a query, with only overlapping chunks.
type selected struct {
	lset   []*storepb.Label
	chunks []*storepb.AggrChunk
}

// Select returns the series matching the predicate whose chunks overlap
// [minTime, maxTime], ordered by label set. For label sets stored at
// several resolutions, the coarsest resolution not above maxResolution
// wins; raw data (resolution 0) is always acceptable.
func (m *MemStore) Select(minTime, maxTime, maxResolution int64, match func([]*storepb.Label) bool) []selected {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := make(map[uint64]*seriesEntry)
	for _, e := range m.entries {
		if e.resolution > maxResolution {
			continue
		}
		if !overlaps(e.chunks, minTime, maxTime) {
			continue
		}
		if !match(e.lset) {
			continue
		}
		if cur, ok := best[e.hash]; !ok || e.resolution > cur.resolution {
			best[e.hash] = e
		}
	}

	out := make([]selected, 0, len(best))
	for _, e := range best {
		var chunks []*storepb.AggrChunk
		for _, c := range e.chunks {
			if c.MaxTime >= minTime && c.MinTime <= maxTime {
				chunks = append(chunks, c)
			}
		}
		out = append(out, selected{lset: e.lset, chunks: chunks})
	}

	sort.Slice(out, func(i, j int) bool {
		return compareLabels(out[i].lset, out[j].lset) < 0
	})
	return out
}

func overlaps(chunks []*storepb.AggrChunk, minTime, maxTime int64) bool {
	for _, c := range chunks {
		if c.MaxTime >= minTime && c.MinTime <= maxTime {
			return true
		}
	}
	return false
}

// BlockFile is the on-disk block format: one s2-compressed JSON document.
type BlockFile struct {
	Resolution int64         `json:"resolution"`
	Series     []BlockSeries `json:"series"`
}

type BlockSeries struct {
	Labels map[string]string `json:"labels"`
	Chunks []BlockChunk      `json:"chunks"`
}

type BlockChunk struct {
	MinTime int64  `json:"min_time"`
	MaxTime int64  `json:"max_time"`
	Raw     []byte `json:"raw,omitempty"`
	Count   []byte `json:"count,omitempty"`
	Sum     []byte `json:"sum,omitempty"`
	Min     []byte `json:"min,omitempty"`
	Max     []byte `json:"max,omitempty"`
	Counter []byte `json:"counter,omitempty"`
}

// LoadBlocks ingests every *.json.s2 file under dir. It returns the number
// of blocks loaded; a file that fails to parse aborts the load.
func (m *MemStore) LoadBlocks(dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json.s2"))
	if err != nil {
		return 0, err
	}
	sort.Strings(paths)

	loaded := 0
	for _, path := range paths {
		if err := m.loadBlock(path); err != nil {
			return loaded, fmt.Errorf("load block %s: %w", filepath.Base(path), err)
		}
		loaded++
	}

	m.mu.Lock()
	m.blocks += loaded
	m.mu.Unlock()
	return loaded, nil
}

func (m *MemStore) loadBlock(path string) error {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	data, err := s2.Decode(nil, compressed)
	if err != nil {
		return fmt.Errorf("s2 decode: %w", err)
	}

	var block BlockFile
	if err := json.Unmarshal(data, &block); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	for _, bs := range block.Series {
		chunks := make([]*storepb.AggrChunk, 0, len(bs.Chunks))
		for _, bc := range bs.Chunks {
			chunks = append(chunks, &storepb.AggrChunk{
				MinTime: bc.MinTime,
				MaxTime: bc.MaxTime,
				Raw:     chunkFromData(bc.Raw),
				Count:   chunkFromData(bc.Count),
				Sum:     chunkFromData(bc.Sum),
				Min:     chunkFromData(bc.Min),
				Max:     chunkFromData(bc.Max),
				Counter: chunkFromData(bc.Counter),
			})
		}
		if err := m.Add(bs.Labels, block.Resolution, chunks); err != nil {
			return err
		}
	}
	return nil
}

// WriteBlock renders series into the on-disk block format, for tooling and
// tests.
func WriteBlock(path string, block BlockFile) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}
	return os.WriteFile(path, s2.Encode(nil, data), 0o644)
}

func chunkFromData(data []byte) *storepb.Chunk {
	if data == nil {
		return nil
	}
	return &storepb.Chunk{Data: data}
}

func sortedLabels(labels map[string]string) []*storepb.Label {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	lset := make([]*storepb.Label, 0, len(names))
	for _, name := range names {
		lset = append(lset, &storepb.Label{Name: name, Value: labels[name]})
	}
	return lset
}

func hashLabels(lset []*storepb.Label) uint64 {
	h := xxhash.New()
	for _, l := range lset {
		h.WriteString(l.Name)
		h.Write([]byte{0xff})
		h.WriteString(l.Value)
		h.Write([]byte{0xff})
	}
	return h.Sum64()
}

func compareLabels(a, b []*storepb.Label) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].Name, b[i].Name); c != 0 {
			return c
		}
		if c := strings.Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
