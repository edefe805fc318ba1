package detector

import (
	"sort"

	"golang-recurring-detection-service/internal/stats"

	"github.com/shopspring/decimal"
)

// amountCluster is a sub-group of one payee's transactions sharing a
// similar charge amount. Separating amount bands keeps concurrent
// subscription tiers from the same merchant apart (e.g. a $9.99 and a
// $19.99 plan billed in alternating months).
type amountCluster struct {
	median decimal.Decimal
	mad    decimal.Decimal
	stdDev float64

	// transactions are sorted chronologically once the cluster is accepted
	transactions []*normalizedTransaction
}

var (
	clusterEpsilonFloor    = decimal.NewFromInt(1)
	clusterEpsilonRelative = decimal.NewFromFloat(0.05)
)

// clusterEpsilon returns the maximum gap between adjacent sorted amounts
// that still belong to the same cluster: 5% of the previous amount with an
// absolute floor of one currency unit. The floor keeps small purchases from
// splitting on sub-cent noise.
func clusterEpsilon(previous decimal.Decimal) decimal.Decimal {
	relative := previous.Mul(clusterEpsilonRelative)
	if relative.LessThan(clusterEpsilonFloor) {
		return clusterEpsilonFloor
	}
	return relative
}

// clusterByAmount splits one payee's transactions into amount clusters.
// Transactions are walked in ascending amount order; a gap beyond the
// adaptive epsilon starts a new cluster. Clusters need at least two members
// to be kept; singletons are dropped silently. If no cluster survives but
// the whole group already meets the minimum occurrence count, the entire
// group is used as a single fallback cluster, which handles a payee whose
// one recurring amount still scattered past the epsilon.
func clusterByAmount(group []*normalizedTransaction, minOccurrences int) []*amountCluster {
	if len(group) < 2 {
		return nil
	}

	byAmount := make([]*normalizedTransaction, len(group))
	copy(byAmount, group)
	sort.SliceStable(byAmount, func(i, j int) bool {
		return byAmount[i].absAmount.LessThan(byAmount[j].absAmount)
	})

	var clusters []*amountCluster
	current := []*normalizedTransaction{byAmount[0]}

	for _, ntx := range byAmount[1:] {
		previous := current[len(current)-1].absAmount
		gap := ntx.absAmount.Sub(previous)

		if gap.GreaterThan(clusterEpsilon(previous)) {
			if len(current) >= 2 {
				clusters = append(clusters, finalizeCluster(current))
			}
			current = []*normalizedTransaction{ntx}
			continue
		}

		current = append(current, ntx)
	}

	if len(current) >= 2 {
		clusters = append(clusters, finalizeCluster(current))
	}

	if len(clusters) == 0 && len(group) >= minOccurrences {
		fallback := make([]*normalizedTransaction, len(group))
		copy(fallback, group)
		clusters = append(clusters, finalizeCluster(fallback))
	}

	return clusters
}

// finalizeCluster re-sorts the members chronologically and computes the
// cluster's amount statistics. The amount sort used during formation must
// not leak into interval analysis.
func finalizeCluster(members []*normalizedTransaction) *amountCluster {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].tx.Date.Before(members[j].tx.Date)
	})

	amounts := make([]decimal.Decimal, len(members))
	for i, ntx := range members {
		amounts[i] = ntx.absAmount
	}

	median := stats.MedianDecimal(amounts)

	return &amountCluster{
		median:       median,
		mad:          stats.MADDecimal(amounts, median),
		stdDev:       stats.StdDevDecimal(amounts),
		transactions: members,
	}
}
