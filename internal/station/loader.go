// Package station loads the fuel-station feed. The feed is a geocoded
// OPIS price export; rows that fail to parse are skipped, never fatal,
// so a partially bad export still produces a usable index.
package station

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fuelroute/fuelroute/internal/models"
)

// Expected feed columns. latitude/longitude are appended by the geocode
// tool; the rest come straight from the OPIS export.
const (
	colID    = "OPIS Truckstop ID"
	colName  = "Truckstop Name"
	colCity  = "City"
	colState = "State"
	colPrice = "Retail Price"
	colLat   = "latitude"
	colLon   = "longitude"
)

// Source yields the station list an index is built from.
type Source interface {
	Load(ctx context.Context) ([]models.Station, error)
}

// FileSource reads the geocoded CSV from local disk.
type FileSource struct {
	Path string
}

func (s *FileSource) Load(_ context.Context) ([]models.Station, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening station feed %q: %w", s.Path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Error closing station feed")
		}
	}()

	return ParseCSV(f)
}

// ParseCSV maps raw feed rows into Station values. Rows with missing or
// unparseable fields are dropped individually; only a broken header or
// an unreadable stream aborts the load.
func ParseCSV(r io.Reader) ([]models.Station, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading station feed header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{colLat, colLon} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("station feed missing %q column", required)
		}
	}

	var stations []models.Station
	skipped := 0

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line, not a broken stream: skip the row.
			skipped++
			continue
		}

		s, ok := parseRow(record, cols)
		if !ok {
			skipped++
			continue
		}
		stations = append(stations, s)
	}

	log.Info().
		Int("loaded", len(stations)).
		Int("skipped", skipped).
		Msg("Station feed parsed")

	return stations, nil
}

func parseRow(record []string, cols map[string]int) (models.Station, bool) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	lat, err := strconv.ParseFloat(field(colLat), 64)
	if err != nil {
		return models.Station{}, false
	}
	lon, err := strconv.ParseFloat(field(colLon), 64)
	if err != nil {
		return models.Station{}, false
	}

	loc := models.Point{Lat: lat, Lon: lon}
	if loc.IsZero() || !loc.Valid() {
		return models.Station{}, false
	}

	price := 0.0
	if raw := field(colPrice); raw != "" {
		price, err = strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return models.Station{}, false
		}
	}

	name := field(colName)
	if name == "" {
		name = "Unknown"
	}

	return models.Station{
		ID:       field(colID),
		Name:     name,
		City:     field(colCity),
		State:    field(colState),
		Price:    price,
		Location: loc,
	}, true
}
