package detector

import (
	"testing"

	"github.com/shopspring/decimal"
)

// makeGroup builds a normalized group from (amount, date) pairs
func makeGroup(payee string, entries [][2]string) []*normalizedTransaction {
	var group []*normalizedTransaction
	for _, entry := range entries {
		amount, err := decimal.NewFromString(entry[0])
		if err != nil {
			panic(err)
		}
		tx := createTestTransaction(payee+"-"+entry[1], payee, 0, entry[1])
		tx.Amount = amount
		group = append(group, &normalizedTransaction{
			tx:              tx,
			canonicalPayee:  payee,
			normalizedPayee: normalizePayee(payee),
			absAmount:       tx.AbsAmount(),
		})
	}
	return group
}

func TestClusterEpsilon(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		expected string
	}{
		{"Small amount uses floor", "9.99", "1"},
		{"Boundary amount uses floor", "19.99", "1"},
		{"Large amount uses relative", "100.00", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous, _ := decimal.NewFromString(tt.previous)
			expected, _ := decimal.NewFromString(tt.expected)
			if got := clusterEpsilon(previous); !got.Equal(expected) {
				t.Errorf("clusterEpsilon(%s) = %s, want %s", tt.previous, got, expected)
			}
		})
	}
}

func TestClusterByAmount_SplitsTiers(t *testing.T) {
	group := makeGroup("StreamCo", [][2]string{
		{"-9.99", "2026-01-05"},
		{"-19.99", "2026-02-05"},
		{"-9.99", "2026-03-05"},
		{"-19.99", "2026-04-05"},
		{"-9.99", "2026-05-05"},
		{"-19.99", "2026-06-05"},
	})

	clusters := clusterByAmount(group, 3)

	if len(clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d", len(clusters))
	}
	for _, cluster := range clusters {
		if len(cluster.transactions) != 3 {
			t.Errorf("Expected 3 members per cluster, got %d", len(cluster.transactions))
		}
	}
	if !clusters[0].median.Equal(decimal.NewFromFloat(9.99)) {
		t.Errorf("Expected low tier median 9.99, got %s", clusters[0].median)
	}
	if !clusters[1].median.Equal(decimal.NewFromFloat(19.99)) {
		t.Errorf("Expected high tier median 19.99, got %s", clusters[1].median)
	}
}

func TestClusterByAmount_ToleratesSmallDrift(t *testing.T) {
	// A price rise within 5% stays in one cluster
	group := makeGroup("NETFLIX.COM", [][2]string{
		{"-13.99", "2026-01-05"},
		{"-13.99", "2026-02-05"},
		{"-14.49", "2026-03-05"},
		{"-14.49", "2026-04-05"},
	})

	clusters := clusterByAmount(group, 3)

	if len(clusters) != 1 {
		t.Fatalf("Expected 1 cluster, got %d", len(clusters))
	}
	if len(clusters[0].transactions) != 4 {
		t.Errorf("Expected all 4 members together, got %d", len(clusters[0].transactions))
	}
}

func TestClusterByAmount_DropsSingletons(t *testing.T) {
	group := makeGroup("Mixed Merchant", [][2]string{
		{"-9.99", "2026-01-05"},
		{"-9.99", "2026-02-05"},
		{"-9.99", "2026-03-05"},
		{"-250.00", "2026-03-20"},
	})

	clusters := clusterByAmount(group, 3)

	if len(clusters) != 1 {
		t.Fatalf("Expected singleton outlier dropped, got %d clusters", len(clusters))
	}
	if len(clusters[0].transactions) != 3 {
		t.Errorf("Expected 3 members, got %d", len(clusters[0].transactions))
	}
}

func TestClusterByAmount_FallbackWholeGroup(t *testing.T) {
	// Every adjacent gap exceeds epsilon, so no pairwise cluster forms;
	// the whole group is used once it meets the occurrence floor
	group := makeGroup("Utility Co", [][2]string{
		{"-40.00", "2026-01-10"},
		{"-55.00", "2026-02-10"},
		{"-72.00", "2026-03-10"},
	})

	clusters := clusterByAmount(group, 3)

	if len(clusters) != 1 {
		t.Fatalf("Expected whole-group fallback cluster, got %d", len(clusters))
	}
	if len(clusters[0].transactions) != 3 {
		t.Errorf("Expected 3 members, got %d", len(clusters[0].transactions))
	}
}

func TestClusterByAmount_NoFallbackBelowFloor(t *testing.T) {
	group := makeGroup("Utility Co", [][2]string{
		{"-40.00", "2026-01-10"},
		{"-72.00", "2026-02-10"},
	})

	clusters := clusterByAmount(group, 3)

	if len(clusters) != 0 {
		t.Errorf("Expected no clusters below occurrence floor, got %d", len(clusters))
	}
}

func TestFinalizeCluster_ChronologicalOrder(t *testing.T) {
	group := makeGroup("NETFLIX.COM", [][2]string{
		{"-13.99", "2026-03-05"},
		{"-13.99", "2026-01-05"},
		{"-13.99", "2026-02-05"},
	})

	cluster := finalizeCluster(group)

	for i := 1; i < len(cluster.transactions); i++ {
		if cluster.transactions[i].tx.Date.Before(cluster.transactions[i-1].tx.Date) {
			t.Errorf("Cluster members not in chronological order at index %d", i)
		}
	}
	if !cluster.median.Equal(decimal.NewFromFloat(13.99)) {
		t.Errorf("Expected median 13.99, got %s", cluster.median)
	}
	if !cluster.mad.Equal(decimal.Zero) {
		t.Errorf("Expected MAD 0, got %s", cluster.mad)
	}
}
