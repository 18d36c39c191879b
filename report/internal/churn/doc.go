// Package churn derives node lifetimes and daily arrival/departure series
// from an ordered list of archive snapshots.
//
// BuildLifetimes tracks the first and last snapshot date of every identifier
// across all roles combined. DailySeries compares each snapshot with the
// previous available one (gaps are not interpolated): new = |cur − prev|,
// departed = |prev − cur|, churn rate = departed / |prev| × 100, or 0 when the
// previous snapshot is empty. The first snapshot has no predecessor and is
// recorded as new = |cur|, departed = 0, churn = 0.
//
// Summarize reduces both into a types.ChurnSummary. Per-day averages skip the
// first entry of the series, since its "new" count is the whole population.
package churn
