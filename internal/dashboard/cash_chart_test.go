package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04", s)
	return t
}

func TestBucketStart(t *testing.T) {
	// 2026-10-16 es viernes
	ts := day("2026-10-16 18:30")
	assert.Equal(t, day("2026-10-16 00:00"), BucketStart(PeriodDaily, ts))
	assert.Equal(t, day("2026-10-12 00:00"), BucketStart(PeriodWeekly, ts))
	assert.Equal(t, day("2026-10-01 00:00"), BucketStart(PeriodMonthly, ts))

	// domingo pertenece a la semana que empezó el lunes anterior
	assert.Equal(t, day("2026-10-12 00:00"), BucketStart(PeriodWeekly, day("2026-10-18 09:00")))
}

func TestWindow(t *testing.T) {
	now := day("2026-10-16 18:30")

	start, end := Window(PeriodDaily, 7, now)
	assert.Equal(t, day("2026-10-10 00:00"), start)
	assert.Equal(t, day("2026-10-17 00:00"), end)

	start, end = Window(PeriodWeekly, 2, now)
	assert.Equal(t, day("2026-10-05 00:00"), start)
	assert.Equal(t, day("2026-10-19 00:00"), end)

	start, end = Window(PeriodMonthly, 12, now)
	assert.Equal(t, day("2025-11-01 00:00"), start)
	assert.Equal(t, day("2026-11-01 00:00"), end)
}

func TestAggregate(t *testing.T) {
	in := []movement{
		{day("2026-10-14 10:00"), decimal.NewFromInt(100)},
		{day("2026-10-12 09:00"), decimal.NewFromInt(50)},
		{day("2026-10-02 12:00"), decimal.NewFromInt(30)},
	}
	out := []movement{
		{day("2026-10-13 11:00"), decimal.NewFromInt(40)},
	}

	points, totals := Aggregate(PeriodWeekly, in, out)
	require.Len(t, points, 2)
	assert.Equal(t, "2026-09-28", points[0].Label)
	assert.True(t, points[0].In.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "2026-10-12", points[1].Label)
	assert.True(t, points[1].In.Equal(decimal.NewFromInt(150)))
	assert.True(t, points[1].Net.Equal(decimal.NewFromInt(110)))

	assert.True(t, totals.In.Equal(decimal.NewFromInt(180)))
	assert.True(t, totals.Out.Equal(decimal.NewFromInt(40)))
	assert.True(t, totals.Net.Equal(decimal.NewFromInt(140)))

	points, _ = Aggregate(PeriodDaily, nil, nil)
	assert.Empty(t, points)
}
