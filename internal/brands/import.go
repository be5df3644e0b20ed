package brands

import (
	"fmt"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/normalizer"
	"github.com/brandonolsen/cleo-consolidator/internal/registry"
)

// ImportSummary reports the outcome of ImportBrandStores.
type ImportSummary struct {
	Enriched       int
	FuzzyMatched   int
	Created        int
	OrphansMerged  int
	MatchesWritten int
}

// MatchFileEntry is what lands in brand_matches.json; unmatched stores are
// returned as models.UnmatchedStore instead.
type MatchFileEntry struct {
	PropID string
	Entry  models.MatchEntry
}

// ImportBrandStores runs the fixed five-step process from §4.G:
//  1. enrich already-matched properties
//  2. fuzzy-match previously-unmatched stores against the full registry
//  3. create new brand-only properties for the residual
//  4. orphan cleanup: merge brand-only duplicates into their real counterpart
//  5. merge new match entries into the on-disk match file (left to caller,
//     which already holds the match slice this function returns)
//
// matched/unmatched are Phase 1 + Phase 2 results keyed by store index into
// stores. Aborting mid-pass on an invariant violation (orphan cleanup would
// leave a dangling match) is the caller's responsibility per §7: this
// function never partially mutates reg on error.
func ImportBrandStores(
	reg *registry.Registry,
	norm *normalizer.AddressNormalizer,
	stores []models.BrandStoreRecord,
	matched map[int]AddressMatch,
	unmatchedReasons map[int]string,
	th Thresholds,
) ([]MatchFileEntry, []models.UnmatchedStore, ImportSummary, error) {
	var out []MatchFileEntry
	var unmatched []models.UnmatchedStore
	var summary ImportSummary

	// Check every Phase 1 match before step 1 mutates anything, so a
	// missing property aborts with reg untouched.
	for i := range stores {
		if am, ok := matched[i]; ok && reg.Get(am.PropID) == nil {
			return nil, nil, summary, fmt.Errorf("import invariant violation: matched property %s not found in registry", am.PropID)
		}
	}

	// Step 1: enrich already-matched properties.
	for i, store := range stores {
		am, ok := matched[i]
		if !ok {
			continue
		}
		p := reg.Get(am.PropID)
		if p == nil {
			return nil, nil, summary, fmt.Errorf("import invariant violation: matched property %s not found in registry", am.PropID)
		}
		p.AddSource(models.SourceBrand)
		if p.PostalCode == "" {
			p.PostalCode = store.PostalCode
		}
		if p.Lat == 0 && p.Lng == 0 {
			p.Lat, p.Lng = store.Lat, store.Lng
		}
		reg.Put(p)
		summary.Enriched++
		out = append(out, MatchFileEntry{PropID: am.PropID, Entry: matchEntryFrom(store, am)})
	}

	// Step 2: fuzzy-match previously-unmatched stores against the full
	// registry (same index/threshold as Phase 1).
	fullIdx := BuildAddressIndex(reg.All(), norm)
	residual := make(map[int]bool)
	for i := range stores {
		if _, ok := matched[i]; ok {
			continue
		}
		residual[i] = true
	}
	for i, store := range stores {
		if !residual[i] {
			continue
		}
		am, reason := MatchAddress(store, fullIdx, norm, th)
		if am == nil {
			unmatched = append(unmatched, models.UnmatchedStore{Store: store, Reason: reason})
			continue
		}
		am.Method = models.MatchFuzzyImport
		p := reg.Get(am.PropID)
		if p == nil {
			return nil, nil, summary, fmt.Errorf("import invariant violation: fuzzy-matched property %s not found", am.PropID)
		}
		p.AddSource(models.SourceBrand)
		if p.PostalCode == "" {
			p.PostalCode = store.PostalCode
		}
		reg.Put(p)
		summary.FuzzyMatched++
		delete(residual, i)
		out = append(out, MatchFileEntry{PropID: am.PropID, Entry: matchEntryFrom(store, *am)})
	}

	// Step 3: create new brand-only properties for whatever is still residual.
	for i, store := range stores {
		if !residual[i] {
			continue
		}
		id := reg.AllocateID()
		p := &models.Property{
			ID:       id,
			Address:  store.Address,
			City:     store.City,
			Province: store.Province,
			PostalCode: store.PostalCode,
			Lat:      store.Lat,
			Lng:      store.Lng,
			Sources:  []string{models.SourceBrand},
		}
		reg.Put(p)
		summary.Created++
		out = append(out, MatchFileEntry{PropID: id, Entry: models.MatchEntry{
			Brand: store.Brand, StoreName: store.StoreName, Address: store.Address,
			City: store.City, Method: models.MatchNewProperty,
		}})
	}

	// Step 4: orphan cleanup. For any dedup key with both a real property
	// (non-empty rt_ids) and a brand-only property, fold the orphan into the
	// real one and reassign its match entries.
	byKey := make(map[string][]*models.Property)
	for _, p := range reg.All() {
		key := norm.DedupKey(p.Address, p.City)
		byKey[key] = append(byKey[key], p)
	}
	for _, group := range byKey {
		if len(group) < 2 {
			continue
		}
		var real, orphan *models.Property
		for _, p := range group {
			if len(p.RTIDs) > 0 {
				real = p
			} else if p.HasSource(models.SourceBrand) && len(p.RTIDs) == 0 && len(p.GWIDs) == 0 {
				orphan = p
			}
		}
		if real == nil || orphan == nil || real.ID == orphan.ID {
			continue
		}
		real.AddSource(models.SourceBrand)
		if real.PostalCode == "" {
			real.PostalCode = orphan.PostalCode
		}
		for i := range out {
			if out[i].PropID == orphan.ID {
				out[i].PropID = real.ID
			}
		}
		reg.Put(real)
		reg.Delete(orphan.ID)
		summary.OrphansMerged++
	}

	summary.MatchesWritten = len(out)
	return out, unmatched, summary, nil
}

func matchEntryFrom(store models.BrandStoreRecord, am AddressMatch) models.MatchEntry {
	return models.MatchEntry{
		Brand: store.Brand, StoreName: store.StoreName, Address: store.Address,
		City: store.City, Method: am.Method, Score: am.Score,
	}
}
