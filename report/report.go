// Package report aggregates persisted readings into chart-ready buckets and
// a simple frequency table for naive status prediction. Everything here is a
// plain reduction over rows the store already holds.
package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/minsoo-dev/libcrowd/gate"
	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/parser"
	"github.com/minsoo-dev/libcrowd/store"
)

// LocationBucket summarizes all readings for one location.
type LocationBucket struct {
	Location  string  `json:"location"`
	Count     int     `json:"count"`
	MeanLevel float64 `json:"mean_level"`
}

// HourBucket summarizes all readings taken in one hour-of-day.
type HourBucket struct {
	Hour      int     `json:"hour"`
	Count     int     `json:"count"`
	MeanLevel float64 `json:"mean_level"`
}

// Key addresses one cell of the frequency table.
type Key struct {
	Floor    string
	Location string
	Weekday  string
	Hour     int
}

// Frequencies counts observed status tokens per (floor, location, weekday,
// hour) cell.
type Frequencies map[Key]map[string]int

// ByLocation buckets readings per location, sorted by location name.
func ByLocation(readings []*models.Reading) []LocationBucket {
	counts := make(map[string]int)
	levels := make(map[string]int)
	for _, r := range readings {
		counts[r.Location]++
		levels[r.Location] += level(r)
	}

	buckets := make([]LocationBucket, 0, len(counts))
	for location, count := range counts {
		buckets = append(buckets, LocationBucket{
			Location:  location,
			Count:     count,
			MeanLevel: float64(levels[location]) / float64(count),
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Location < buckets[j].Location })
	return buckets
}

// ByHour buckets readings per hour-of-day, sorted by hour. Readings whose
// timestamp cannot be parsed are skipped.
func ByHour(readings []*models.Reading) []HourBucket {
	counts := make(map[int]int)
	levels := make(map[int]int)
	for _, r := range readings {
		at, ok := parseTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		hour := at.Hour()
		counts[hour]++
		levels[hour] += level(r)
	}

	buckets := make([]HourBucket, 0, len(counts))
	for hour, count := range counts {
		buckets = append(buckets, HourBucket{
			Hour:      hour,
			Count:     count,
			MeanLevel: float64(levels[hour]) / float64(count),
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Hour < buckets[j].Hour })
	return buckets
}

// Frequency builds the per-cell status counts backing prediction.
func Frequency(readings []*models.Reading) Frequencies {
	freq := make(Frequencies)
	for _, r := range readings {
		at, ok := parseTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		key := Key{
			Floor:    r.Floor,
			Location: r.Location,
			Weekday:  at.Weekday().String(),
			Hour:     at.Hour(),
		}
		if freq[key] == nil {
			freq[key] = make(map[string]int)
		}
		freq[key][r.Status]++
	}
	return freq
}

// Predict returns the most frequently observed status for a cell. Ties
// break toward the lexicographically smaller token so the answer is stable.
func (f Frequencies) Predict(floor, location string, weekday time.Weekday, hour int) (string, bool) {
	cell := f[Key{Floor: floor, Location: location, Weekday: weekday.String(), Hour: hour}]
	if len(cell) == 0 {
		return "", false
	}

	best := ""
	bestCount := -1
	for status, count := range cell {
		if count > bestCount || (count == bestCount && status < best) {
			best = status
			bestCount = count
		}
	}
	return best, true
}

// Handler serves the aggregated view as JSON, for the dashboard.
func Handler(q store.Queryable) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		readings, err := q.QueryReadings(r.Context())
		if err != nil {
			slog.Error("report query failed", slog.Any("error", err))
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}

		payload := struct {
			Total      int              `json:"total"`
			ByLocation []LocationBucket `json:"by_location"`
			ByHour     []HourBucket     `json:"by_hour"`
		}{
			Total:      len(readings),
			ByLocation: ByLocation(readings),
			ByHour:     ByHour(readings),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("report encode failed", slog.Any("error", err))
		}
	})
}

// Snapshot queries and aggregates in one call, for CLI use.
func Snapshot(ctx context.Context, q store.Queryable) ([]LocationBucket, []HourBucket, error) {
	readings, err := q.QueryReadings(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ByLocation(readings), ByHour(readings), nil
}

func level(r *models.Reading) int {
	if r.StatusLevel != 0 {
		return r.StatusLevel
	}
	return parser.StatusLevel(r.Status)
}

func parseTimestamp(ts string) (time.Time, bool) {
	at, err := time.ParseInLocation(models.TimestampLayout, ts, gate.Location)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
