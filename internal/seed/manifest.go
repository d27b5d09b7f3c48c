// Package seed loads a fleet manifest into the boat and load registries.
//
// A manifest is a TOML document listing loads by a local key and boats by
// owner. Boats name the loads they carry by key:
//
//	[[loads]]
//	key = "crate-1"
//	weight = 120.5
//	country = "Norway"
//	manufacturer = "Acme"
//
//	[[boats]]
//	owner = "104233950385702342711"
//	name = "Sea Witch"
//	type = "Catamaran"
//	length = 28
//	loads = ["crate-1"]
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/BurntSushi/toml"

	"github.com/boatyard/boatyard-server/internal/service"
	"github.com/boatyard/boatyard-server/internal/validation"
)

// Manifest is a fleet to create.
type Manifest struct {
	Loads []LoadSpec `toml:"loads"`
	Boats []BoatSpec `toml:"boats"`
}

// LoadSpec describes one load. Key is local to the manifest.
type LoadSpec struct {
	Key          string  `toml:"key" validate:"required"`
	Weight       float64 `toml:"weight"`
	Country      string  `toml:"country"`
	Manufacturer string  `toml:"manufacturer"`
}

// BoatSpec describes one boat and the keys of the loads it carries.
type BoatSpec struct {
	Owner  string   `toml:"owner" validate:"required,notblank"`
	Name   string   `toml:"name"`
	Type   string   `toml:"type"`
	Length float64  `toml:"length"`
	Loads  []string `toml:"loads,omitempty"`
}

// Decode reads a manifest and checks that load keys are unique and that
// every boat refers to a known key. A key may be carried by at most one boat.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	meta, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown manifest key %q", undecoded[0].String())
	}

	keys := make(map[string]bool, len(m.Loads))
	for _, l := range m.Loads {
		if keys[l.Key] {
			return nil, fmt.Errorf("duplicate load key %q", l.Key)
		}
		keys[l.Key] = true
	}

	carried := make(map[string]string)
	for _, b := range m.Boats {
		for _, key := range b.Loads {
			if !keys[key] {
				return nil, fmt.Errorf("boat %q carries unknown load %q", b.Name, key)
			}
			if other, ok := carried[key]; ok {
				return nil, fmt.Errorf("load %q is on both %q and %q", key, other, b.Name)
			}
			carried[key] = b.Name
		}
	}

	return &m, nil
}

// Encode writes m as TOML.
func Encode(w io.Writer, m *Manifest) error {
	return toml.NewEncoder(w).Encode(m)
}

// Example returns a small manifest for a single owner.
func Example(owner string) *Manifest {
	return &Manifest{
		Loads: []LoadSpec{
			{Key: "crate-1", Weight: 120.5, Country: "Norway", Manufacturer: "Acme"},
			{Key: "crate-2", Weight: 80, Country: "Chile", Manufacturer: "Pacifica"},
			{Key: "drum-1", Weight: 200, Country: "Japan", Manufacturer: "Nami"},
		},
		Boats: []BoatSpec{
			{Owner: owner, Name: "Sea Witch", Type: "Catamaran", Length: 28, Loads: []string{"crate-1", "crate-2"}},
			{Owner: owner, Name: "Little Auk", Type: "Dinghy", Length: 4.2},
		},
	}
}

// Services are the registries a manifest is applied through.
type Services struct {
	Boats         *service.BoatService
	Loads         *service.LoadService
	Relationships *service.RelationshipService
}

// Result maps manifest load keys to the ids they were stored under.
type Result struct {
	LoadIDs map[string]int64
	BoatIDs []int64
}

// Apply creates every load, then every boat, then assigns the loads.
// It stops at the first error; records created before it remain.
func Apply(ctx context.Context, svc Services, m *Manifest, v *validation.Validator, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	res := &Result{LoadIDs: make(map[string]int64, len(m.Loads))}
	for _, entry := range m.Loads {
		if err := v.Validate(entry); err != nil {
			return res, fmt.Errorf("load %q: %w", entry.Key, err)
		}
		load, err := svc.Loads.Create(ctx, service.LoadRequest{
			Weight:       entry.Weight,
			Country:      entry.Country,
			Manufacturer: entry.Manufacturer,
		})
		if err != nil {
			return res, fmt.Errorf("load %q: %w", entry.Key, err)
		}
		res.LoadIDs[entry.Key] = load.ID
		logger.Debug("load created", "key", entry.Key, "id", load.ID)
	}

	for _, entry := range m.Boats {
		if err := v.Validate(entry); err != nil {
			return res, fmt.Errorf("boat %q: %w", entry.Name, err)
		}
		boat, err := svc.Boats.Create(ctx, entry.Owner, service.BoatRequest{
			Name:   entry.Name,
			Type:   entry.Type,
			Length: entry.Length,
		})
		if err != nil {
			return res, fmt.Errorf("boat %q: %w", entry.Name, err)
		}
		res.BoatIDs = append(res.BoatIDs, boat.ID)

		for _, key := range entry.Loads {
			if err := svc.Relationships.Assign(ctx, boat.ID, res.LoadIDs[key], entry.Owner); err != nil {
				return res, fmt.Errorf("boat %q load %q: %w", entry.Name, key, err)
			}
		}
		logger.Info("boat seeded", "id", boat.ID, "name", entry.Name, "loads", len(entry.Loads))
	}

	return res, nil
}
