// Package dataio loads end-of-day price data from CSV datasets laid
// out as one SYMBOL.csv per tradable asset. Files may be plain .csv
// or xz-compressed .csv.xz; whole datasets can be shipped as a zip
// bundle.
package dataio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"

	"github.com/rustyeddy/portsim/market"
)

const dateLayout = "2006-01-02"

// LoadBars reads one OHLCV file. The header row must name at least
// date and close; open, high, low, and volume are optional and default
// to zero.
func LoadBars(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xzReader, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("dataio: open xz stream %s: %w", path, err)
		}
		reader = xzReader
	}
	return readBars(reader, path)
}

func readBars(reader io.Reader, path string) ([]market.Bar, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataio: read header of %s: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateCol, ok := col["date"]
	if !ok {
		return nil, fmt.Errorf("dataio: %s has no date column", path)
	}
	closeCol, ok := col["close"]
	if !ok {
		return nil, fmt.Errorf("dataio: %s has no close column", path)
	}

	field := func(row []string, name string) float64 {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return 0
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return 0
		}
		return v
	}

	var bars []market.Bar
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataio: read %s: %w", path, err)
		}
		if len(row) == 0 || dateCol >= len(row) || closeCol >= len(row) {
			continue
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(row[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("dataio: bad date %q in %s: %w", row[dateCol], path, err)
		}
		closePx, err := strconv.ParseFloat(strings.TrimSpace(row[closeCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("dataio: bad close %q in %s: %w", row[closeCol], path, err)
		}

		bars = append(bars, market.Bar{
			Date:   market.Day(date),
			Open:   field(row, "open"),
			High:   field(row, "high"),
			Low:    field(row, "low"),
			Close:  closePx,
			Volume: field(row, "volume"),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// symbolPath finds SYMBOL.csv or SYMBOL.csv.xz under dir.
func symbolPath(dir, symbol string) (string, error) {
	for _, name := range []string{symbol + ".csv", symbol + ".csv.xz"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("dataio: no data file for %s under %s", symbol, dir)
}

// LoadSymbolCloses loads one symbol's close series from dir.
func LoadSymbolCloses(dir, symbol string) (*market.Series, error) {
	path, err := symbolPath(dir, symbol)
	if err != nil {
		return nil, err
	}
	bars, err := LoadBars(path)
	if err != nil {
		return nil, err
	}
	return market.Closes(bars), nil
}

// LoadPriceMatrix assembles the date-by-symbol close price frame for
// a symbol universe. Column order follows the symbols argument.
func LoadPriceMatrix(dir string, symbols []string) (*market.Frame, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("dataio: no symbols requested")
	}
	columns := make(map[string]*market.Series, len(symbols))
	for _, sym := range symbols {
		closes, err := LoadSymbolCloses(dir, sym)
		if err != nil {
			return nil, err
		}
		columns[sym] = closes
	}
	return market.FrameFromColumns(symbols, columns)
}

// LoadBenchmark loads the benchmark close series from a single file
// path, e.g. an SPY dataset.
func LoadBenchmark(path string) (*market.Series, error) {
	bars, err := LoadBars(path)
	if err != nil {
		return nil, err
	}
	return market.Closes(bars), nil
}

// ListSymbols returns the symbols with data files under dir, sorted.
func ListSymbols(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".csv.xz"):
			symbols = append(symbols, strings.TrimSuffix(name, ".csv.xz"))
		case strings.HasSuffix(name, ".csv"):
			symbols = append(symbols, strings.TrimSuffix(name, ".csv"))
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ExtractBundle unpacks a zipped dataset next to destDir and returns
// the directory holding the CSV files.
func ExtractBundle(zipPath, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	if err := unzip.Extract(zipPath, destDir); err != nil {
		return "", fmt.Errorf("dataio: extract %s: %w", zipPath, err)
	}
	return destDir, nil
}

// ResolveDataDir accepts either a directory of CSV files or a .zip
// bundle. Bundles are extracted into cacheDir once; repeated calls
// reuse the extraction.
func ResolveDataDir(path, cacheDir string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return path, nil
	}
	if strings.HasSuffix(path, ".zip") {
		dest := filepath.Join(cacheDir, strings.TrimSuffix(filepath.Base(path), ".zip"))
		if _, err := os.Stat(dest); err == nil {
			return dest, nil
		}
		return ExtractBundle(path, dest)
	}
	return "", fmt.Errorf("dataio: %s is neither a directory nor a zip bundle", path)
}
