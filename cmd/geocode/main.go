// Command geocode joins a raw truck-stop price CSV against a city
// gazetteer to attach coordinates, producing the geocoded CSV the server
// loads at startup. Rows whose city/state pair is not in the gazetteer
// can optionally be resolved through the OpenRouteService geocoder.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fuelroute/fuelroute/internal/routing"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Free-tier ORS allows about 100 geocode requests per minute.
const orsRequestInterval = 700 * time.Millisecond

func main() {
	inPath := flag.String("in", "data/fuel_prices.csv", "raw truck-stop price CSV")
	citiesPath := flag.String("cities", "data/uscities.csv", "city gazetteer CSV")
	outPath := flag.String("out", "data/fuel_stations_geocoded.csv", "output CSV with coordinates")
	useORS := flag.Bool("ors", false, "geocode gazetteer misses through OpenRouteService")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	gazetteer, err := loadGazetteer(*citiesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *citiesPath).Msg("loading gazetteer")
	}
	log.Info().Int("cities", len(gazetteer)).Msg("gazetteer loaded")

	var geocoder *routing.Client
	if *useORS {
		geocoder, err = routing.NewClient(routing.Options{APIKey: os.Getenv("ORS_API_KEY")})
		if err != nil {
			log.Fatal().Err(err).Msg("initializing geocoder")
		}
	}

	stats, err := geocodeFile(*inPath, *outPath, gazetteer, geocoder)
	if err != nil {
		log.Fatal().Err(err).Msg("geocoding failed")
	}
	log.Info().
		Int("total", stats.total).
		Int("matched", stats.matched).
		Int("geocoded", stats.geocoded).
		Int("unresolved", stats.unresolved).
		Str("out", *outPath).
		Msg("done")
}

// cityKey normalizes a city/state pair for gazetteer lookup.
func cityKey(city, state string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + strings.ToUpper(strings.TrimSpace(state))
}

type coordinates struct {
	lat string
	lon string
}

func loadGazetteer(path string) (map[string]coordinates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing gazetteer file")
		}
	}()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	gazetteer := map[string]coordinates{}
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		city := record[cols["city"]]
		state := record[cols["state_id"]]
		key := cityKey(city, state)
		if _, exists := gazetteer[key]; exists {
			// First entry wins; the gazetteer lists larger cities first.
			continue
		}
		gazetteer[key] = coordinates{lat: record[cols["lat"]], lon: record[cols["lng"]]}
	}
	return gazetteer, nil
}

type geocodeStats struct {
	total      int
	matched    int
	geocoded   int
	unresolved int
}

func geocodeFile(inPath, outPath string, gazetteer map[string]coordinates, geocoder *routing.Client) (geocodeStats, error) {
	var stats geocodeStats

	in, err := os.Open(inPath)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing input file")
		}
	}()

	out, err := os.Create(outPath)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing output file")
		}
	}()

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	writer := csv.NewWriter(out)
	defer writer.Flush()

	header, err := reader.Read()
	if err != nil {
		return stats, err
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if err := writer.Write(append(header, "latitude", "longitude")); err != nil {
		return stats, err
	}

	ctx := context.Background()
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		stats.total++

		city := field(record, cols, "City")
		state := field(record, cols, "State")

		coords, ok := gazetteer[cityKey(city, state)]
		if ok {
			stats.matched++
		} else if geocoder != nil {
			coords, ok = lookupORS(ctx, geocoder, city, state)
			if ok {
				stats.geocoded++
			}
		}
		if !ok {
			// Zero coordinates mark the row as unresolved; the loader
			// drops such rows at startup.
			coords = coordinates{lat: "0", lon: "0"}
			stats.unresolved++
		}

		if err := writer.Write(append(record, coords.lat, coords.lon)); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func lookupORS(ctx context.Context, geocoder *routing.Client, city, state string) (coordinates, bool) {
	time.Sleep(orsRequestInterval)
	point, err := geocoder.Geocode(ctx, city+", "+state)
	if err != nil {
		log.Warn().Err(err).Str("city", city).Str("state", state).Msg("geocoding miss")
		return coordinates{}, false
	}
	return coordinates{
		lat: strconv.FormatFloat(point.Lat, 'f', 6, 64),
		lon: strconv.FormatFloat(point.Lon, 'f', 6, 64),
	}, true
}
