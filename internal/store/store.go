// Package store persists per-instrument daily bar series as one CSV file per
// symbol. It owns freshness checks and serializes access per symbol so two
// requests refreshing the same instrument cannot interleave merge-then-save.
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"Kronos/internal/domain/models"
	applogger "Kronos/pkg/logger"
	"Kronos/pkg/util"
)

// canonicalHeader is the only scheme ever written.
var canonicalHeader = []string{"date", "open", "high", "low", "close", "volume", "amount"}

// headerAliases maps the two legacy on-disk column schemes onto canonical
// names: capitalized English headers from early exports and the Chinese
// headers written by the upstream data vendor.
var headerAliases = map[string]string{
	"Date": "date", "Open": "open", "High": "high", "Low": "low",
	"Close": "close", "Volume": "volume", "Amount": "amount",
	"日期": "date", "开盘": "open", "最高": "high", "最低": "low",
	"收盘": "close", "成交量": "volume", "成交额": "amount",
}

// Store is a file-backed cache of PriceSeries, one CSV per instrument.
type Store struct {
	dir    string
	logger *applogger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// now is swappable for freshness tests.
	now func() time.Time
}

// New creates the cache directory if needed.
func New(dir string, logger *applogger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}, nil
}

// SetNow overrides the clock used by freshness checks.
func (s *Store) SetNow(now func() time.Time) { s.now = now }

// Lock returns the per-symbol mutex. Callers hold it across a whole
// load-merge-save cycle; operations on different symbols never contend.
func (s *Store) Lock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[symbol]
	if !ok {
		l = &sync.Mutex{}
		s.locks[symbol] = l
	}
	return l
}

func (s *Store) path(symbol string) string {
	return filepath.Join(s.dir, symbol+".csv")
}

// Exists reports whether a cache record is present for symbol.
func (s *Store) Exists(symbol string) bool {
	_, err := os.Stat(s.path(symbol))
	return err == nil
}

// Load reads the cached series for symbol. Malformed rows are dropped, never
// fatal; a missing file returns (nil, nil) so callers treat it as a miss.
func (s *Store) Load(symbol string) (models.PriceSeries, error) {
	f, err := os.Open(s.path(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open cache %s: %w", symbol, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read cache header %s: %w", symbol, err)
	}
	cols := resolveColumns(header)
	if _, ok := cols["date"]; !ok {
		return nil, fmt.Errorf("cache %s: no recognizable date column", symbol)
	}

	var series models.PriceSeries
	dropped := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}
		bar, ok := parseBar(rec, cols)
		if !ok {
			dropped++
			continue
		}
		series = append(series, bar)
	}
	if dropped > 0 && s.logger != nil {
		s.logger.Warn("cache rows dropped",
			applogger.String("symbol", symbol), applogger.Int("dropped", dropped))
	}
	series.SortByDate()
	return series, nil
}

// Save writes the full series in canonical form, ascending by date. Partial
// updates never happen: the file is replaced atomically via a temp file.
func (s *Store) Save(symbol string, series models.PriceSeries) error {
	sorted := make(models.PriceSeries, len(series))
	copy(sorted, series)
	sorted.SortByDate()

	tmp, err := os.CreateTemp(s.dir, symbol+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(canonicalHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache header: %w", err)
	}
	for _, b := range sorted {
		rec := []string{
			b.Date.Format(util.DateLayout),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
			formatFloat(b.Amount),
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("write cache row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(symbol)); err != nil {
		return fmt.Errorf("replace cache %s: %w", symbol, err)
	}
	return nil
}

// LastDate reads only the tail of the cache file and returns the final row's
// date. It does not inspect gaps in the middle of the series.
func (s *Store) LastDate(symbol string) (time.Time, bool) {
	f, err := os.Open(s.path(symbol))
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	line, ok := tailLine(f)
	if !ok {
		return time.Time{}, false
	}
	field := line
	if i := strings.IndexByte(line, ','); i >= 0 {
		field = line[:i]
	}
	return util.ParseDate(strings.TrimSpace(field))
}

// IsFresh reports whether the cached series already covers the most recent
// non-weekend date on or before today. Saturday and Sunday are the only
// non-trading days modeled.
func (s *Store) IsFresh(symbol string) bool {
	last, ok := s.LastDate(symbol)
	if !ok {
		return false
	}
	return !last.Before(util.LatestTradingDay(s.now()))
}

// ListSymbols returns the sorted instrument codes with a cache record.
func (s *Store) ListSymbols() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(out)
	return out
}

// tailLine returns the last non-empty line of f without reading the whole file.
func tailLine(f *os.File) (string, bool) {
	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return "", false
	}
	const chunk = 4096
	size := info.Size()
	off := size - chunk
	if off < 0 {
		off = 0
	}
	buf := make([]byte, size-off)
	if _, err := f.ReadAt(buf, off); err != nil && err != io.EOF {
		return "", false
	}
	lines := strings.Split(strings.ReplaceAll(string(buf), "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l, true
		}
	}
	return "", false
}

func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if canon, ok := headerAliases[name]; ok {
			name = canon
		} else {
			name = strings.ToLower(name)
		}
		cols[name] = i
	}
	return cols
}

func parseBar(rec []string, cols map[string]int) (models.PriceBar, bool) {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}

	ds, ok := field("date")
	if !ok {
		return models.PriceBar{}, false
	}
	date, ok := util.ParseDate(ds)
	if !ok {
		return models.PriceBar{}, false
	}

	var bar models.PriceBar
	bar.Date = date
	for name, dst := range map[string]*float64{
		"open": &bar.Open, "high": &bar.High, "low": &bar.Low,
		"close": &bar.Close, "volume": &bar.Volume,
	} {
		raw, ok := field(name)
		if !ok {
			return models.PriceBar{}, false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.PriceBar{}, false
		}
		*dst = v
	}
	// Turnover is imputed when the column is absent or blank.
	if raw, ok := field("amount"); ok && raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			bar.Amount = v
		} else {
			return models.PriceBar{}, false
		}
	} else {
		bar.Amount = bar.Close * bar.Volume
	}
	if !bar.Valid() {
		return models.PriceBar{}, false
	}
	return bar, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
