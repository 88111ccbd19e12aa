package grid

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

// UnknownGroup labels records with an empty grouping attribute in the charts.
const UnknownGroup = "Unknown"

// SummaryMetrics are the headline numbers of the summary view.
type SummaryMetrics struct {
	TotalUnits int             `json:"totalUnits"`
	TotalCogs  decimal.Decimal `json:"totalCogs"`
}

// DetailMetrics are the headline numbers of the detail view.
type DetailMetrics struct {
	TotalUnits int `json:"totalUnits"`
	RowCount   int `json:"rowCount"`
}

// ChannelShare is one channel of the breakdown and legend.
type ChannelShare struct {
	Channel      string          `json:"channel"`
	Units        int             `json:"units"`
	Cogs         decimal.Decimal `json:"cogs"`
	Value        decimal.Decimal `json:"value"`
	SharePercent float64         `json:"sharePercent"`
	Reliability  int             `json:"reliability"`
}

// Breakdown distributes the allocated quantities of a subset over the channels.
type Breakdown struct {
	Mode       models.MetricMode `json:"mode"`
	GrandTotal decimal.Decimal   `json:"grandTotal"`
	Channels   []ChannelShare    `json:"channels"`
}

// GroupTotal is one slice of the division or brand chart.
type GroupTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Summary sums units and COGS over an already filtered subset.
func Summary(records []models.AllocationRecord) SummaryMetrics {
	m := SummaryMetrics{TotalCogs: decimal.Zero}
	for _, rec := range records {
		m.TotalUnits += rec.Units
		m.TotalCogs = m.TotalCogs.Add(rec.CogsTotal)
	}
	return m
}

// Detail sums units and counts rows.
func Detail(records []models.AllocationRecord) DetailMetrics {
	m := DetailMetrics{RowCount: len(records)}
	for _, rec := range records {
		m.TotalUnits += rec.Units
	}
	return m
}

// ChannelBreakdown totals each channel in channel order. Value follows mode:
// allocated units, or allocated units times the record's per-unit cost.
func ChannelBreakdown(records []models.AllocationRecord, channels []string, mode models.MetricMode) Breakdown {
	type reliability struct {
		total int
		count int
	}

	shares := make([]ChannelShare, len(channels))
	rel := make([]reliability, len(channels))
	for i, ch := range channels {
		shares[i] = ChannelShare{Channel: ch, Cogs: decimal.Zero, Value: decimal.Zero}
	}

	for _, rec := range records {
		pct := rec.AllocationPercent()
		for i, ch := range channels {
			allocated := rec.Allocation(ch)
			cogs := allocatedCogs(rec, allocated)

			shares[i].Units += allocated
			shares[i].Cogs = shares[i].Cogs.Add(cogs)

			// Zero-unit rows have no finite percentage and stay out of the mean.
			if allocated > 0 && !pct.Unbounded {
				rel[i].total += pct.Value
				rel[i].count++
			}
		}
	}

	grand := decimal.Zero
	for i := range shares {
		if mode == models.MetricCogs {
			shares[i].Value = shares[i].Cogs
		} else {
			shares[i].Value = decimal.NewFromInt(int64(shares[i].Units))
		}
		grand = grand.Add(shares[i].Value)
	}

	for i := range shares {
		if grand.IsPositive() {
			pct, _ := shares[i].Value.Div(grand).Mul(decimal.NewFromInt(100)).Round(1).Float64()
			shares[i].SharePercent = pct
		}
		if rel[i].count > 0 {
			shares[i].Reliability = int(math.Floor(float64(rel[i].total)/float64(rel[i].count) + 0.5))
		}
	}

	return Breakdown{Mode: mode, GrandTotal: grand, Channels: shares}
}

func allocatedCogs(rec models.AllocationRecord, allocated int) decimal.Decimal {
	if rec.Units <= 0 || allocated == 0 {
		return decimal.Zero
	}
	return rec.CogsTotal.Mul(decimal.NewFromInt(int64(allocated))).Div(decimal.NewFromInt(int64(rec.Units)))
}

// DivisionChart groups units (or COGS) by division in first-seen order.
func DivisionChart(records []models.AllocationRecord, mode models.MetricMode) []GroupTotal {
	return groupBy(records, mode, func(r models.AllocationRecord) string { return r.Division })
}

// BrandChart groups by brand, largest first, keeping at most limit groups (0 keeps all).
func BrandChart(records []models.AllocationRecord, mode models.MetricMode, limit int) []GroupTotal {
	groups := groupBy(records, mode, func(r models.AllocationRecord) string { return r.BrandSignature })
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value.GreaterThan(groups[j].Value) })
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

func groupBy(records []models.AllocationRecord, mode models.MetricMode, attr func(models.AllocationRecord) string) []GroupTotal {
	pos := make(map[string]int)
	out := make([]GroupTotal, 0)

	for _, rec := range records {
		name := attr(rec)
		if name == "" {
			name = UnknownGroup
		}
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, GroupTotal{Name: name, Value: decimal.Zero})
		}

		value := decimal.NewFromInt(int64(rec.Units))
		if mode == models.MetricCogs {
			value = rec.CogsTotal
		}
		out[i].Value = out[i].Value.Add(value)
	}
	return out
}
