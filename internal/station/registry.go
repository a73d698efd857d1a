package station

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-forecast/internal/forecast"
)

// Registry is a read-only station lookup keyed by station id.
type Registry struct {
	stations map[string]forecast.Station
}

// defaultStations are the SYNOP stations the models were trained on.
var defaultStations = []forecast.Station{
	{ID: "12756", Name: "Szecseny", Latitude: 48.1167, Longitude: 19.5167},
	{ID: "12840", Name: "Budapest Met Center", Latitude: 47.5167, Longitude: 19.0333},
	{ID: "12882", Name: "Debrecen", Latitude: 47.4833, Longitude: 21.6},
	{ID: "12846", Name: "Agard", Latitude: 47.1833, Longitude: 18.6167},
	{ID: "12942", Name: "Pecs / Pogany", Latitude: 46.1, Longitude: 18.2333},
	{ID: "12822", Name: "Gyor", Latitude: 47.7167, Longitude: 17.6833},
	{ID: "12982", Name: "Szeged", Latitude: 46.25, Longitude: 20.1},
	{ID: "12892", Name: "Nyiregyhaza / Napkor", Latitude: 47.9667, Longitude: 21.9833},
	{ID: "12970", Name: "Kecskemet", Latitude: 46.9167, Longitude: 19.75},
	{ID: "12812", Name: "Szombathely", Latitude: 47.2667, Longitude: 16.6333},
	{ID: "12772", Name: "Miskolc", Latitude: 48.0833, Longitude: 20.7667},
	{ID: "LHSA0", Name: "Azentkilyszabadja / Szentkirályszabadja", Latitude: 47.0667, Longitude: 17.9833},
	{ID: "12930", Name: "Kaposvar", Latitude: 46.3833, Longitude: 17.8333},
	{ID: "12839", Name: "Budapest / Ferihegy", Latitude: 47.4333, Longitude: 19.2667},
	{ID: "12805", Name: "Sopron", Latitude: 47.6833, Longitude: 16.6},
	{ID: "12836", Name: "Tata", Latitude: 47.65, Longitude: 18.3167},
	{ID: "12915", Name: "Zalaegerszeg / Andrashida", Latitude: 46.8667, Longitude: 16.8},
	{ID: "12992", Name: "Bekescsaba", Latitude: 46.6833, Longitude: 21.1667},
	{ID: "12870", Name: "Eger", Latitude: 47.9, Longitude: 20.3833},
	{ID: "12925", Name: "Nagykanizsa", Latitude: 46.45, Longitude: 16.9667},
	{ID: "12847", Name: "Tat / Mogyorósbánya", Latitude: 47.75, Longitude: 18.6},
	{ID: "12935", Name: "Siofok", Latitude: 46.9167, Longitude: 18.05},
}

// New builds a registry from stations. Later duplicates replace earlier ones.
func New(stations []forecast.Station) *Registry {
	r := &Registry{stations: make(map[string]forecast.Station, len(stations))}
	for _, s := range stations {
		r.stations[s.ID] = s
	}
	return r
}

// Default returns the built-in registry.
func Default() *Registry {
	return New(defaultStations)
}

type registryFile struct {
	Stations []forecast.Station `yaml:"stations"`
}

// LoadFile reads a YAML station list:
//
//	stations:
//	  - id: "12840"
//	    name: Budapest Met Center
//	    latitude: 47.5167
//	    longitude: 19.0333
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station file: %w", err)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse station file %s: %w", path, err)
	}
	if len(f.Stations) == 0 {
		return nil, fmt.Errorf("station file %s lists no stations", path)
	}
	for i, s := range f.Stations {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("station file %s: entry %d needs id and name", path, i)
		}
	}
	return New(f.Stations), nil
}

// Lookup returns the station with the given id.
func (r *Registry) Lookup(id string) (forecast.Station, error) {
	s, ok := r.stations[id]
	if !ok {
		return forecast.Station{}, &forecast.UnknownStationError{ID: id}
	}
	return s, nil
}

// All returns every station ordered by id.
func (r *Registry) All() []forecast.Station {
	out := make([]forecast.Station, 0, len(r.stations))
	for _, s := range r.stations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
