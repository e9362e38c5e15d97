package payments

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistoryOrderOnSameDate(t *testing.T) {
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	rows := []HistoryRow{
		{ID: VirtualID(7, 0), Virtual: true, PurchaseID: 7, Date: day},
		{ID: "11", Date: day},
		{ID: "100", Date: day},
		{ID: VirtualID(20, 0), Virtual: true, PurchaseID: 20, Date: day},
	}
	sort.SliceStable(rows, func(i, j int) bool { return historyBefore(rows[i], rows[j]) })

	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.ID)
	}
	assert.Equal(t, []string{"100", "11", "20-cash-0", "7-cash-0"}, got)
}
