// Package mock serves fake water-flow readings for the examples.
package mock

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Sites are the metered buildings, in column order.
var Sites = []string{
	"water_station",
	"supply_station",
	"house_5_wastewater",
	"building_6a",
	"house_8",
	"house_10",
	"helios_building",
	"telecom_building",
}

// Zones partition the alarm feed.
var Zones = []string{"north", "south"}

const days = 30

var severities = []string{"info", "warning", "critical"}

// Server holds drifting readings so that every reload shows new numbers.
type Server struct {
	mu       sync.Mutex
	readings map[string][]float64
	start    time.Time
}

// NewServer creates a Server with 30 days of readings ending today.
func NewServer() *Server {
	s := &Server{
		readings: make(map[string][]float64, len(Sites)),
		start:    time.Now().AddDate(0, 0, -days+1),
	}
	for _, site := range Sites {
		vals := make([]float64, days)
		base := 40 + rand.Float64()*160
		for i := range vals {
			vals[i] = base + rand.Float64()*20
		}
		s.readings[site] = vals
	}
	return s
}

// Handler returns the mock API:
//
//	GET /readings        {"data": [{date, <site>...}, ...]}
//	GET /alarms/{zone}   [{id, site, severity, message}, ...]
//	GET /broken          500
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /readings", s.handleReadings)
	mux.HandleFunc("GET /alarms/{zone}", s.handleAlarms)
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "meter gateway unavailable", http.StatusInternalServerError)
	})
	return mux
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	latency()

	s.mu.Lock()
	rows := make([]orderedRow, days)
	for d := range days {
		row := orderedRow{{"date", s.start.AddDate(0, 0, d).Format(time.DateOnly)}}
		for _, site := range Sites {
			// drift every request
			s.readings[site][d] += rand.Float64()*2 - 1
			row = append(row, field{site, round(s.readings[site][d])})
		}
		rows[d] = row
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"data": rows})
}

func (s *Server) handleAlarms(w http.ResponseWriter, r *http.Request) {
	latency()

	zone := r.PathValue("zone")
	alarms := []orderedRow{}
	for i, site := range Sites {
		if (i%2 == 0) != (zone == "north") || rand.IntN(3) == 0 {
			continue
		}
		sev := severities[rand.IntN(len(severities))]
		alarms = append(alarms, orderedRow{
			{"id", zone + "-" + site},
			{"site", site},
			{"severity", sev},
			{"message", strings.ReplaceAll(site, "_", " ") + " flow " + sev},
			{"acknowledged", rand.IntN(2) == 0},
		})
	}
	writeJSON(w, alarms)
}

func latency() {
	time.Sleep(time.Duration(50+rand.IntN(250)) * time.Millisecond)
}

func round(f float64) float64 {
	return float64(int(f*100)) / 100
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

type field struct {
	key   string
	value any
}

// orderedRow marshals as a JSON object with keys in slice order, so the
// inferred columns follow the site order.
type orderedRow []field

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
