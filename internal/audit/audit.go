// Package audit checks the boat and load relationship in a store.
//
// The relationship engine keeps a boat's load list and each load's carrier
// in step, but a write that fails halfway can leave them apart. Run reports
// every such mismatch so an operator can repair it.
package audit

import (
	"context"
	"fmt"
	"slices"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"
)

// Problem kinds.
const (
	MissingLoad     = "missing_load"     // boat lists a load that does not exist
	CarrierMismatch = "carrier_mismatch" // boat lists a load carried elsewhere
	DuplicateLoad   = "duplicate_load"   // load appears twice in one boat's list
	MissingCarrier  = "missing_carrier"  // load names a boat that does not exist
	UnlistedLoad    = "unlisted_load"    // load names a boat that does not list it
)

// Problem is one broken link between a boat and a load.
type Problem struct {
	Kind   string `json:"kind"`
	BoatID int64  `json:"boat_id"`
	LoadID int64  `json:"load_id"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: boat %d load %d", p.Kind, p.BoatID, p.LoadID)
}

// Report is the outcome of an audit.
type Report struct {
	Boats    []*domain.Boat `json:"boats"`
	Loads    []*domain.Load `json:"loads"`
	Problems []Problem      `json:"problems"`
}

// OK reports whether no problems were found.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// Run reads every boat and load and cross-checks them.
func Run(ctx context.Context, st store.Store) (*Report, error) {
	boats, _, err := store.NewEntity[domain.Boat](st, domain.KindBoat).List(ctx, nil, 0, "")
	if err != nil {
		return nil, fmt.Errorf("list boats: %w", err)
	}
	loads, _, err := store.NewEntity[domain.Load](st, domain.KindLoad).List(ctx, nil, 0, "")
	if err != nil {
		return nil, fmt.Errorf("list loads: %w", err)
	}

	return &Report{
		Boats:    boats,
		Loads:    loads,
		Problems: Check(boats, loads),
	}, nil
}

// Check compares the boats' load lists against the loads' carriers.
// Problems are ordered boat-side first, then load-side, each by id.
func Check(boats []*domain.Boat, loads []*domain.Load) []Problem {
	boatByID := make(map[int64]*domain.Boat, len(boats))
	for _, b := range boats {
		boatByID[b.ID] = b
	}
	loadByID := make(map[int64]*domain.Load, len(loads))
	for _, l := range loads {
		loadByID[l.ID] = l
	}

	var problems []Problem
	for _, b := range sortedByID(boats, func(b *domain.Boat) int64 { return b.ID }) {
		seen := make(map[int64]bool, len(b.Loads))
		for _, loadID := range b.Loads {
			if seen[loadID] {
				problems = append(problems, Problem{DuplicateLoad, b.ID, loadID})
				continue
			}
			seen[loadID] = true

			l, ok := loadByID[loadID]
			switch {
			case !ok:
				problems = append(problems, Problem{MissingLoad, b.ID, loadID})
			case l.Carrier != b.ID:
				problems = append(problems, Problem{CarrierMismatch, b.ID, loadID})
			}
		}
	}

	for _, l := range sortedByID(loads, func(l *domain.Load) int64 { return l.ID }) {
		if !l.Assigned() {
			continue
		}
		b, ok := boatByID[l.Carrier]
		switch {
		case !ok:
			problems = append(problems, Problem{MissingCarrier, l.Carrier, l.ID})
		case !b.HasLoad(l.ID):
			problems = append(problems, Problem{UnlistedLoad, l.Carrier, l.ID})
		}
	}
	return problems
}

func sortedByID[T any](items []T, id func(T) int64) []T {
	out := slices.Clone(items)
	slices.SortFunc(out, func(a, b T) int {
		switch ia, ib := id(a), id(b); {
		case ia < ib:
			return -1
		case ia > ib:
			return 1
		}
		return 0
	})
	return out
}
