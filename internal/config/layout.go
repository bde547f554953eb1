package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layout is the reference-data seed file describing the physical layout:
// stations, industries and their demands, routes, and the fleet. Reference
// data enters the database only through seeding; the operations engine
// treats it as read-only.
type Layout struct {
	Stations    []StationConfig    `yaml:"stations"`
	CarTypes    []CarTypeConfig    `yaml:"car_types"`
	Commodities []CommodityConfig  `yaml:"commodities"`
	Industries  []IndustryConfig   `yaml:"industries"`
	Routes      []RouteConfig      `yaml:"routes"`
	Locomotives []LocomotiveConfig `yaml:"locomotives"`
	Cars        []CarConfig        `yaml:"cars"`
}

// StationConfig names a location on the layout.
type StationConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// CarTypeConfig defines an AAR classification.
type CarTypeConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// CommodityConfig defines a shippable good.
type CommodityConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// IndustryConfig defines an industry, its station, and its demand rules.
type IndustryConfig struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Station   string         `yaml:"station"`
	Yard      bool           `yaml:"yard"`
	OffLayout bool           `yaml:"off_layout"`
	Demands   []DemandConfig `yaml:"demands"`
}

// DemandConfig defines one recurring demand on an industry.
type DemandConfig struct {
	Commodity      string   `yaml:"commodity"`
	Direction      string   `yaml:"direction"` // "inbound" or "outbound"
	CarTypes       []string `yaml:"car_types"`
	CarsPerSession int      `yaml:"cars_per_session"`
	Frequency      int      `yaml:"frequency"`
}

// RouteConfig defines a route as an ordered station list between two yards.
type RouteConfig struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	OriginYard      string   `yaml:"origin_yard"`
	TerminationYard string   `yaml:"termination_yard"`
	Stations        []string `yaml:"stations"`
}

// LocomotiveConfig defines a powered unit.
type LocomotiveConfig struct {
	ID         string `yaml:"id"`
	RoadNumber string `yaml:"road_number"`
	DCCAddress int    `yaml:"dcc_address"`
}

// CarConfig defines one piece of rolling stock and its starting location.
type CarConfig struct {
	Marks    string `yaml:"marks"`
	Number   string `yaml:"number"`
	Type     string `yaml:"type"`
	HomeYard string `yaml:"home_yard"`
	Location string `yaml:"location"` // industry ID; defaults to home_yard
}

// CarID derives the car's primary key from its reporting marks and number.
func (c CarConfig) CarID() string {
	return c.Marks + "-" + c.Number
}

// LoadLayout reads a YAML layout file from path and returns a validated Layout.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read layout %s: %w", path, err)
	}
	return ParseLayout(data)
}

// ParseLayout unmarshals YAML bytes into a validated Layout.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("config: parse layout: %w", err)
	}
	l.applyDefaults()
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// applyDefaults fills in derived and default values.
func (l *Layout) applyDefaults() {
	for i := range l.Industries {
		for j := range l.Industries[i].Demands {
			d := &l.Industries[i].Demands[j]
			if d.CarsPerSession == 0 {
				d.CarsPerSession = 1
			}
			if d.Frequency == 0 {
				d.Frequency = 1
			}
		}
	}
	for i := range l.Cars {
		if l.Cars[i].Location == "" {
			l.Cars[i].Location = l.Cars[i].HomeYard
		}
	}
}

// validate checks referential consistency across the layout sections.
func (l *Layout) validate() error {
	var errs []string

	stations := make(map[string]bool)
	for i, s := range l.Stations {
		if s.ID == "" {
			errs = append(errs, fmt.Sprintf("stations[%d].id is required", i))
			continue
		}
		stations[s.ID] = true
	}

	types := make(map[string]bool)
	for _, t := range l.CarTypes {
		types[t.ID] = true
	}

	industries := make(map[string]bool)
	yards := make(map[string]bool)
	for i, ind := range l.Industries {
		if ind.ID == "" {
			errs = append(errs, fmt.Sprintf("industries[%d].id is required", i))
			continue
		}
		industries[ind.ID] = true
		if ind.Yard {
			yards[ind.ID] = true
		}
		if !stations[ind.Station] {
			errs = append(errs, fmt.Sprintf("industries[%d] (%s): unknown station %q", i, ind.ID, ind.Station))
		}
		seen := make(map[string]bool)
		for j, d := range ind.Demands {
			key := d.Commodity + "/" + d.Direction
			if seen[key] {
				errs = append(errs, fmt.Sprintf("industries[%d] (%s): duplicate demand for %s", i, ind.ID, key))
			}
			seen[key] = true
			if d.Direction != "inbound" && d.Direction != "outbound" {
				errs = append(errs, fmt.Sprintf("industries[%d].demands[%d]: direction must be inbound or outbound", i, j))
			}
			if len(d.CarTypes) == 0 {
				errs = append(errs, fmt.Sprintf("industries[%d].demands[%d]: at least one car type is required", i, j))
			}
			for _, ct := range d.CarTypes {
				if !types[ct] {
					errs = append(errs, fmt.Sprintf("industries[%d].demands[%d]: unknown car type %q", i, j, ct))
				}
			}
		}
	}

	for i, r := range l.Routes {
		if r.ID == "" {
			errs = append(errs, fmt.Sprintf("routes[%d].id is required", i))
			continue
		}
		if !yards[r.OriginYard] {
			errs = append(errs, fmt.Sprintf("routes[%d] (%s): origin_yard %q is not a yard industry", i, r.ID, r.OriginYard))
		}
		if !yards[r.TerminationYard] {
			errs = append(errs, fmt.Sprintf("routes[%d] (%s): termination_yard %q is not a yard industry", i, r.ID, r.TerminationYard))
		}
		if len(r.Stations) < 2 {
			errs = append(errs, fmt.Sprintf("routes[%d] (%s): at least two stations are required", i, r.ID))
		}
		for _, st := range r.Stations {
			if !stations[st] {
				errs = append(errs, fmt.Sprintf("routes[%d] (%s): unknown station %q", i, r.ID, st))
			}
		}
	}

	for i, c := range l.Cars {
		if c.Marks == "" || c.Number == "" {
			errs = append(errs, fmt.Sprintf("cars[%d]: marks and number are required", i))
			continue
		}
		if !types[c.Type] {
			errs = append(errs, fmt.Sprintf("cars[%d] (%s): unknown car type %q", i, c.CarID(), c.Type))
		}
		if !industries[c.Location] {
			errs = append(errs, fmt.Sprintf("cars[%d] (%s): unknown location %q", i, c.CarID(), c.Location))
		}
		if c.HomeYard != "" && !yards[c.HomeYard] {
			errs = append(errs, fmt.Sprintf("cars[%d] (%s): home_yard %q is not a yard industry", i, c.CarID(), c.HomeYard))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: layout validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
