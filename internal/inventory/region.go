package inventory

import "github.com/wonny/retailpulse/internal/contracts"

// SummarizeByRegion counts risk classes and sums lost units per store
// region, regions in order of first appearance
func SummarizeByRegion(records []contracts.InventoryRiskRecord) []contracts.RegionRiskSummary {
	idx := make(map[string]int)
	out := make([]contracts.RegionRiskSummary, 0)

	for _, r := range records {
		i, ok := idx[r.StoreRegion]
		if !ok {
			i = len(out)
			idx[r.StoreRegion] = i
			out = append(out, contracts.RegionRiskSummary{
				Region:     r.StoreRegion,
				RiskCounts: make(map[string]int),
			})
		}
		out[i].Pairs++
		out[i].RiskCounts[r.Risk]++
		out[i].PotentialLostUnits += r.PotentialLostUnits
	}

	return out
}
