// Package parcels implements the Parcel Consolidator (§4.L): grouping
// co-located properties by parcel, assigning brand POIs spatially, and
// projecting zoning/area attributes back onto every member property.
package parcels

import (
	"sort"

	"github.com/brandonolsen/cleo-consolidator/internal/registry"
	"github.com/brandonolsen/cleo-consolidator/internal/spatial"
)

// BrandPOI is one brand store's coordinate plus the name projected onto any
// parcel that contains it.
type BrandPOI struct {
	Brand string
	Lat   float64
	Lng   float64
}

// Summary reports what Consolidate did, per §7's structured-summary
// convention.
type Summary struct {
	PropertiesWithParcel int
	NoCoverage           []string
	ParcelGroups         int
}

// Consolidate clears every parcel-prefixed field on every property (the
// anti-stale-grouping invariant), then resolves and projects parcel
// membership, brands, and footprint counts (§4.L).
func Consolidate(reg *registry.Registry, store *spatial.ParcelStore, idx *spatial.ParcelIndex, footprints *spatial.FootprintIndex, brandPOIs []BrandPOI) Summary {
	props := reg.All()

	for _, p := range props {
		p.ClearParcelFields()
	}

	parcelOf := make(map[string]string, len(props))
	pclToProps := make(map[string][]string)
	var summary Summary

	for _, p := range props {
		if explicit, ok := store.ExplicitParcelFor(p.ID); ok {
			parcelOf[p.ID] = explicit
			pclToProps[explicit] = append(pclToProps[explicit], p.ID)
			summary.PropertiesWithParcel++
			continue
		}
		if p.Lat == 0 && p.Lng == 0 {
			summary.NoCoverage = append(summary.NoCoverage, p.ID)
			continue
		}
		ids := idx.FindContaining(p.Lat, p.Lng)
		if len(ids) == 0 {
			summary.NoCoverage = append(summary.NoCoverage, p.ID)
			continue
		}
		pclID := ids[0]
		parcelOf[p.ID] = pclID
		pclToProps[pclID] = append(pclToProps[pclID], p.ID)
		summary.PropertiesWithParcel++
	}

	pclBrands := make(map[string]map[string]bool)
	for _, poi := range brandPOIs {
		ids := idx.FindContaining(poi.Lat, poi.Lng)
		for _, pclID := range ids {
			if pclBrands[pclID] == nil {
				pclBrands[pclID] = make(map[string]bool)
			}
			pclBrands[pclID][poi.Brand] = true
		}
	}

	pclFootprintCount := make(map[string]int)
	if footprints != nil {
		allFootprints := footprints.FeaturesInBBox(-90, -180, 90, 180)
		for pclID := range pclToProps {
			if _, ok := idx.GetFeature(pclID); !ok {
				continue
			}
			count := 0
			for _, fpID := range allFootprints {
				fp, ok := footprints.GetFeature(fpID)
				if !ok {
					continue
				}
				if containingParcel(idx, fp.CentroidLat, fp.CentroidLng) == pclID {
					count++
				}
			}
			pclFootprintCount[pclID] = count
		}
	}

	for _, p := range props {
		pclID, ok := parcelOf[p.ID]
		if !ok {
			continue
		}
		feature, ok := idx.GetFeature(pclID)
		if !ok {
			continue
		}
		p.ParcelID = pclID
		p.ParcelPIN = feature.PIN
		p.ParcelARN = feature.ARN
		p.ParcelAreaSqm = feature.AreaSqm
		p.ZoningCode = feature.ZoneCode
		p.ZoningDesc = feature.ZoneDesc
		p.ParcelBuildingCount = pclFootprintCount[pclID]

		var group []string
		for _, other := range pclToProps[pclID] {
			if other != p.ID {
				group = append(group, other)
			}
		}
		sort.Strings(group)
		p.ParcelGroup = group

		if brands, ok := pclBrands[pclID]; ok {
			var names []string
			for b := range brands {
				names = append(names, b)
			}
			sort.Strings(names)
			p.ParcelBrands = names
		}

		reg.Put(p)
	}

	for _, members := range pclToProps {
		if len(members) > 1 {
			summary.ParcelGroups++
		}
	}
	return summary
}

func containingParcel(idx *spatial.ParcelIndex, lat, lng float64) string {
	ids := idx.FindContaining(lat, lng)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
