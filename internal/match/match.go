// Package match resolves a scanned file against a catalog's roms.
//
// The decision tree mirrors the reference auditor exactly: a file is first
// looked up by name within the dat; if nothing shares its name, a global
// hash lookup decides hash-or-none, yielding one candidate per rom sharing
// the hash. If something does share its name, every named candidate whose
// size and hash both match wins outright as an exact match — the full set
// of such candidates, not just the first — restricted to the caller's
// matched sets when one is given. Failing that, the hash lookup runs again
// — unrestricted by matched sets even though named candidates existed — and
// if it finds anything, contributes one candidate per surviving rom. Only
// if that also comes up empty does the file fall back to a name-only match,
// again restricted to matched sets, with one candidate per survivor.
package match

import (
	"context"

	"github.com/ryanm101/romaudit/internal/store"
)

// Result is one candidate classification of a file against a dat's roms.
// Resolve can return more than one Result for a single file: the catalog
// may legitimately contain several roms that equally satisfy the winning
// criterion (the same hash filed under more than one set, or clone sets
// sharing a rom name), and every such candidate survives as its own Result
// rather than an arbitrary first pick.
type Result struct {
	Status store.MatchStatus
	SetID  store.SetID
	RomID  store.RomID
}

// Resolve classifies a file by name and content hash against dat's catalog,
// returning every surviving match candidate. An empty result means the file
// is unmatched. matchedSets restricts which sets count as candidates for an
// exact or name-only match; pass an empty/nil set to consider every set in
// the dat (the case for a loose file scanned outside any archive). It never
// restricts the hash-only fallback — a file's enclosing zip name only
// narrows intentional, named candidates.
func Resolve(ctx context.Context, q store.Querier, datID store.DatID, size uint64, name, hash string, matchedSets map[store.SetID]struct{}) ([]Result, error) {
	namedRoms, err := store.FindRomsByName(ctx, q, datID, name)
	if err != nil {
		return nil, err
	}

	if len(namedRoms) == 0 {
		return matchByHash(ctx, q, datID, hash)
	}

	var exact []Result
	for _, rom := range namedRoms {
		if !setAllowed(matchedSets, rom.SetID) {
			continue
		}
		if rom.Size == size && rom.Hash == hash {
			exact = append(exact, Result{Status: store.StatusMatch, SetID: rom.SetID, RomID: rom.ID})
		}
	}
	if len(exact) > 0 {
		return exact, nil
	}

	hashResults, err := matchByHash(ctx, q, datID, hash)
	if err != nil {
		return nil, err
	}
	if len(hashResults) > 0 {
		return hashResults, nil
	}

	var named []Result
	for _, rom := range namedRoms {
		if setAllowed(matchedSets, rom.SetID) {
			named = append(named, Result{Status: store.StatusName, SetID: rom.SetID, RomID: rom.ID})
		}
	}
	return named, nil
}

func matchByHash(ctx context.Context, q store.Querier, datID store.DatID, hash string) ([]Result, error) {
	hashRoms, err := store.FindRomsByHash(ctx, q, datID, hash)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(hashRoms))
	for _, rom := range hashRoms {
		results = append(results, Result{Status: store.StatusHash, SetID: rom.SetID, RomID: rom.ID})
	}
	return results, nil
}

func setAllowed(matchedSets map[store.SetID]struct{}, setID store.SetID) bool {
	if len(matchedSets) == 0 {
		return true
	}
	_, ok := matchedSets[setID]
	return ok
}
