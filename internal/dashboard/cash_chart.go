// Package dashboard arma los indicadores de entrada y salida de dinero del taller.
package dashboard

import (
	"sort"
	"strconv"
	"time"

	"taller-backend/internal/collections"
	"taller-backend/internal/database"
	"taller-backend/internal/payments"
	"taller-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

type CashChartPoint struct {
	Label string          `json:"label"` // día, inicio de semana o inicio de mes
	In    decimal.Decimal `json:"in"`
	Out   decimal.Decimal `json:"out"`
	Net   decimal.Decimal `json:"net"`
}

type CashChartTotals struct {
	In  decimal.Decimal `json:"in"`
	Out decimal.Decimal `json:"out"`
	Net decimal.Decimal `json:"net"`
}

type CashChartResponse struct {
	Period      string           `json:"period"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Points      []CashChartPoint `json:"points"`
	GrandTotals CashChartTotals  `json:"grand_totals"`
}

// Window devuelve el inicio del primer bucket y el fin exclusivo del último.
func Window(period string, count int, now time.Time) (start, end time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case PeriodWeekly:
		monday := BucketStart(PeriodWeekly, today)
		return monday.AddDate(0, 0, -7*(count-1)), monday.AddDate(0, 0, 7)
	case PeriodMonthly:
		first := BucketStart(PeriodMonthly, today)
		return first.AddDate(0, -(count - 1), 0), first.AddDate(0, 1, 0)
	}
	return today.AddDate(0, 0, -(count - 1)), today.AddDate(0, 0, 1)
}

// BucketStart trunca una fecha al día, a la semana (lunes) o al mes.
func BucketStart(period string, t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch period {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return day
}

type movement struct {
	Date   time.Time
	Amount decimal.Decimal
}

// Aggregate agrupa entradas y salidas por bucket. Los buckets sin movimientos no aparecen.
func Aggregate(period string, in, out []movement) ([]CashChartPoint, CashChartTotals) {
	type agg struct {
		in, out decimal.Decimal
	}
	buckets := make(map[string]*agg)
	get := func(t time.Time) *agg {
		k := BucketStart(period, t).Format("2006-01-02")
		a, ok := buckets[k]
		if !ok {
			a = &agg{}
			buckets[k] = a
		}
		return a
	}
	for _, m := range in {
		a := get(m.Date)
		a.in = a.in.Add(m.Amount)
	}
	for _, m := range out {
		a := get(m.Date)
		a.out = a.out.Add(m.Amount)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]CashChartPoint, 0, len(keys))
	var totals CashChartTotals
	for _, k := range keys {
		a := buckets[k]
		points = append(points, CashChartPoint{
			Label: k,
			In:    a.in,
			Out:   a.out,
			Net:   a.in.Sub(a.out),
		})
		totals.In = totals.In.Add(a.in)
		totals.Out = totals.Out.Add(a.out)
	}
	totals.Net = totals.In.Sub(totals.Out)
	return points, totals
}

// GET /api/dashboard/cash-chart?period=daily&count=7
func CashChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		period := c.Query("period", PeriodDaily)
		var count int
		switch period {
		case PeriodWeekly:
			count = 8
		case PeriodMonthly:
			count = 12
		case PeriodDaily:
			count = 7
		default:
			return fiber.NewError(fiber.StatusBadRequest, "period debe ser daily, weekly o monthly")
		}
		if raw := c.Query("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "count inválido")
			}
			count = n
		}

		start, end := Window(period, count, time.Now())

		cols, err := collections.History(database.DB, orgID, collections.Filter{From: &start, To: &end})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron obtener los cobros")
		}
		pays, err := payments.History(database.DB, orgID, payments.Filter{From: &start, To: &end})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron obtener los pagos")
		}

		in := make([]movement, 0, len(cols))
		for _, r := range cols {
			in = append(in, movement{r.Date, r.Amount})
		}
		out := make([]movement, 0, len(pays))
		for _, r := range pays {
			out = append(out, movement{r.Date, r.Amount})
		}

		points, totals := Aggregate(period, in, out)
		return c.JSON(CashChartResponse{
			Period:      period,
			From:        start.Format("2006-01-02"),
			To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
			Points:      points,
			GrandTotals: totals,
		})
	}
}
