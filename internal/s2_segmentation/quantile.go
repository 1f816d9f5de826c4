package s2_segmentation

import "sort"

// Bins places n items into k equal-frequency bins numbered 1..k.
//
// Items are ranked 1..n by less; items neither less than the other keep
// their index order, so equal values never share a rank. Rank r lands in
// bin ceil(k·(r−1)/(n−1)), floored at 1, which is the cut an
// equal-frequency quantile split over the ranks produces. A single item
// lands in bin 1. When n < k some bins stay empty.
func Bins(n, k int, less func(i, j int) bool) []int {
	bins := make([]int, n)
	if n == 0 || k <= 0 {
		return bins
	}

	for i, r := range Ranks(n, less) {
		bins[i] = binOf(r, n, k)
	}
	return bins
}

// Ranks returns the 1-based stable rank of each item
func Ranks(n int, less func(i, j int) bool) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return less(idx[a], idx[b])
	})

	ranks := make([]int, n)
	for pos, i := range idx {
		ranks[i] = pos + 1
	}
	return ranks
}

func binOf(rank, n, k int) int {
	if n <= 1 {
		return 1
	}
	num := k * (rank - 1)
	den := n - 1
	b := (num + den - 1) / den
	if b < 1 {
		return 1
	}
	return b
}
