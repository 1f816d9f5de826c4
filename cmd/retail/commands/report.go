package commands

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/wonny/retailpulse/internal/contracts"
)

// printQualityReport prints the S0 split and its diagnostics
func printQualityReport(w io.Writer, q *contracts.QualityReport) {
	printSection(w, "S0 quality")
	printKeyValue(w, "clean headers", strconv.Itoa(len(q.CleanHeaders)))
	printKeyValue(w, "rejected headers", strconv.Itoa(len(q.RejectedHeaders)))
	printKeyValue(w, "clean lines", strconv.Itoa(len(q.CleanLines)))
	printKeyValue(w, "rejected lines", strconv.Itoa(len(q.RejectedLines)))
	printKeyValue(w, "clean rate", pct(q.CleanRate()))

	d := q.Diagnostics
	reasons := []contracts.RejectReason{
		contracts.ReasonNullField,
		contracts.ReasonNegativeAmount,
		contracts.ReasonTotalMismatch,
	}
	for _, r := range reasons {
		printKeyValue(w, string(r), strconv.Itoa(d.ReasonCounts[r]))
	}
	printKeyValue(w, "unknown product refs", strconv.Itoa(d.UnknownProductRefs))
	printKeyValue(w, "unknown store refs", strconv.Itoa(d.UnknownStoreRefs))
	printKeyValue(w, "headers without lines", strconv.Itoa(d.HeadersWithoutLine))
}

// printRunReport prints a human summary of a run
func printRunReport(w io.Writer, r *contracts.RunResult) {
	printHeader(w, "Analytics run", [][2]string{
		{"Run ID", r.RunID},
		{"Reference date", r.ReferenceDate.Format("2006-01-02")},
		{"Metric", string(r.Metric)},
		{"Ledger order", r.LedgerOrder},
		{"Rules hash", shortHash(r.RulesHash)},
		{"Duration", r.Duration.String()},
	})

	printSection(w, "Stages")
	rows := make([][]string, 0, len(r.Stages))
	for _, s := range r.Stages {
		rows = append(rows, []string{
			s.Stage.ShortName(),
			s.Stage.Description(),
			strconv.Itoa(s.InputCount),
			strconv.Itoa(s.OutputCount),
			s.Duration.String(),
		})
	}
	printTable(w, []string{"STAGE", "NAME", "IN", "OUT", "TIME"}, rows)

	printQualityReport(w, r.Quality)

	printSection(w, "S1 promotion lift")
	rows = rows[:0]
	for _, l := range r.PromotionLift {
		lift := "n/a"
		if l.Defined {
			lift = fmt.Sprintf("%.1f%%", l.PctIncrease)
		}
		rows = append(rows, []string{l.Category, l.PromotionID, l.TotalSales.StringFixed(2), l.BaselineSales.StringFixed(2), lift})
	}
	printTable(w, []string{"CATEGORY", "PROMOTION", "SALES", "BASELINE", "LIFT"}, rows)

	printSection(w, "S1 loyalty")
	var earned, redeemed int64
	for _, l := range r.Loyalty {
		earned += l.Earned
		redeemed += l.Redeemed
	}
	printKeyValue(w, "transactions", strconv.Itoa(len(r.Loyalty)))
	printKeyValue(w, "coins earned", strconv.FormatInt(earned, 10))
	printKeyValue(w, "coins redeemed", strconv.FormatInt(redeemed, 10))

	printSection(w, "S2 funnel")
	rows = rows[:0]
	for _, f := range r.Funnel {
		rows = append(rows, []string{
			f.PromotionID,
			strconv.Itoa(f.Eligible),
			strconv.Itoa(f.Reacted),
			fmt.Sprintf("%.1f%%", f.PctReacted),
		})
	}
	printTable(w, []string{"PROMOTION", "ELIGIBLE", "REACTED", "RATE"}, rows)

	printSection(w, "S2 segments")
	printCounts(w, countBy(r.Segments, func(s contracts.RFMRecord) string { return s.Segment }))

	printSection(w, "S3 events")
	printCounts(w, countBy(r.Events, func(e contracts.Event) string { return string(e.Type) }))

	printSection(w, "S3 notifications")
	printCounts(w, countBy(r.Notifications, func(n contracts.Notification) string { return n.Template }))

	printSection(w, "SX inventory risk")
	rows = rows[:0]
	for _, s := range r.RegionRisk {
		rows = append(rows, []string{
			s.Region,
			strconv.Itoa(s.Pairs),
			strconv.Itoa(s.RiskCounts[contracts.RiskCritical]),
			strconv.Itoa(s.RiskCounts[contracts.RiskWatchlist]),
			fmt.Sprintf("%.1f", s.PotentialLostUnits),
		})
	}
	printTable(w, []string{"REGION", "PAIRS", "CRITICAL", "WATCHLIST", "LOST UNITS"}, rows)

	fmt.Fprintln(w)
	printSuccess(w, fmt.Sprintf("Run %s completed", r.RunID))
}

func countBy[T any](items []T, key func(T) string) map[string]int {
	out := make(map[string]int)
	for _, it := range items {
		out[key(it)]++
	}
	return out
}

// printCounts prints counts sorted by key
func printCounts(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		printKeyValue(w, k, strconv.Itoa(counts[k]))
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
