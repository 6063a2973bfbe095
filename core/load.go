package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
)

// Load kinds accepted by LoadCSV.
const (
	LoadObservations = "observations"
	LoadModel        = "model"
	LoadNeighbors    = "neighbors"
)

// loadBatchSize bounds the rows written per store call.
const loadBatchSize = 1000

// loadHeaders is the required header row of each load kind.
var loadHeaders = map[string][]string{
	LoadObservations: {"station_id", "param_id", "obstime", "original", "corrected", "status"},
	LoadModel:        {"station_id", "param_id", "obstime", "value"},
	LoadNeighbors:    {"station_id", "param_id", "neighbor_id", "rank", "offset", "slope", "sigma"},
}

// LoadKinds returns the accepted load kinds in a stable order.
func LoadKinds() []string {
	return []string{LoadObservations, LoadModel, LoadNeighbors}
}

// ExecuteLoad reads a CSV file into the series store and reports the row count.
func ExecuteLoad(ctx context.Context, mgr contract.StoreManager, kind, path string) error {
	store := mgr.GetSeriesStore()
	if store == nil {
		return errors.New("series store is not configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	n, err := LoadCSV(ctx, store, kind, f)
	if err != nil {
		return fmt.Errorf("failed to load %s from %s: %w", kind, path, err)
	}
	fmt.Printf("Loaded %d %s rows from %s\n", n, kind, path)
	return nil
}

// LoadCSV upserts the rows of r into store. The first record must be the
// header row of kind.
func LoadCSV(ctx context.Context, store contract.SeriesStore, kind string, r io.Reader) (int, error) {
	header, ok := loadHeaders[kind]
	if !ok {
		return 0, fmt.Errorf("unknown load kind %q (must be one of %s)", kind, strings.Join(LoadKinds(), ", "))
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	cr.TrimLeadingSpace = true

	got, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range got {
		got[i] = strings.ToLower(strings.TrimSpace(got[i]))
	}
	if !slices.Equal(got, header) {
		return 0, fmt.Errorf("unexpected header %q, want %q", strings.Join(got, ","), strings.Join(header, ","))
	}

	loader := newRowLoader(kind)
	total := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, err
		}
		line, _ := cr.FieldPos(0)
		if err := loader.add(rec); err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}
		if loader.len() >= loadBatchSize {
			n, err := loader.flush(ctx, store)
			total += n
			if err != nil {
				return total, err
			}
		}
	}
	n, err := loader.flush(ctx, store)
	return total + n, err
}

// rowLoader buffers parsed rows of one kind.
type rowLoader struct {
	kind         string
	observations []schema.Observation
	model        []schema.ModelValue
	neighbors    []schema.NeighborCorrelation
}

func newRowLoader(kind string) *rowLoader {
	return &rowLoader{kind: kind}
}

func (l *rowLoader) len() int {
	return len(l.observations) + len(l.model) + len(l.neighbors)
}

func (l *rowLoader) add(rec []string) error {
	p := fieldParser{rec: rec}
	switch l.kind {
	case LoadObservations:
		o := schema.Observation{
			StationID: p.intAt(0),
			ParamID:   p.intAt(1),
			ObsTime:   p.timeAt(2),
			Original:  p.floatAt(3),
			Corrected: p.floatAt(4),
			Status:    schema.ObservationStatus(strings.ToLower(strings.TrimSpace(rec[5]))),
		}
		if p.err == nil {
			if _, ok := schema.ValidObservationStatuses[o.Status]; !ok {
				p.err = fmt.Errorf("invalid status %q", rec[5])
			}
		}
		if p.err == nil {
			l.observations = append(l.observations, o)
		}
	case LoadModel:
		mv := schema.ModelValue{StationID: p.intAt(0), ParamID: p.intAt(1), ObsTime: p.timeAt(2), Value: p.floatAt(3)}
		if p.err == nil {
			l.model = append(l.model, mv)
		}
	case LoadNeighbors:
		nc := schema.NeighborCorrelation{
			StationID:  p.intAt(0),
			ParamID:    p.intAt(1),
			NeighborID: p.intAt(2),
			Rank:       p.intAt(3),
			Offset:     p.floatAt(4),
			Slope:      p.floatAt(5),
			Sigma:      p.floatAt(6),
		}
		if p.err == nil && !(nc.Sigma > 0) {
			p.err = fmt.Errorf("sigma must be positive (received %v)", nc.Sigma)
		}
		if p.err == nil {
			l.neighbors = append(l.neighbors, nc)
		}
	}
	return p.err
}

func (l *rowLoader) flush(ctx context.Context, store contract.SeriesStore) (int, error) {
	n := l.len()
	if n == 0 {
		return 0, nil
	}
	var err error
	switch l.kind {
	case LoadObservations:
		err = store.PutObservations(ctx, l.observations)
		l.observations = l.observations[:0]
	case LoadModel:
		err = store.PutModelValues(ctx, l.model)
		l.model = l.model[:0]
	case LoadNeighbors:
		err = store.PutNeighbors(ctx, l.neighbors)
		l.neighbors = l.neighbors[:0]
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// fieldParser parses columns of one record and keeps the first error.
type fieldParser struct {
	rec []string
	err error
}

func (p *fieldParser) intAt(i int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(p.rec[i]))
	if err != nil {
		p.err = fmt.Errorf("column %d: %w", i+1, err)
	}
	return v
}

func (p *fieldParser) floatAt(i int) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(p.rec[i]), 64)
	if err != nil {
		p.err = fmt.Errorf("column %d: %w", i+1, err)
	}
	return v
}

func (p *fieldParser) timeAt(i int) time.Time {
	if p.err != nil {
		return time.Time{}
	}
	t, err := parseObsTime(p.rec[i])
	if err != nil {
		p.err = fmt.Errorf("column %d: %w", i+1, err)
	}
	return t
}

// obsTimeLayouts are the accepted observation time forms. Times without a zone are UTC.
var obsTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", contract.HourFormat}

// parseObsTime parses a whole-hour observation time.
func parseObsTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range obsTimeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		if !t.Equal(t.Truncate(time.Hour)) {
			return time.Time{}, fmt.Errorf("observation time %q is not on a whole hour", s)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid observation time %q", s)
}
