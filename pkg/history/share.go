package history

const percentScale = 100

// AuthorShare is an author's percentage of each summed author metric.
type AuthorShare struct {
	Author     string  `json:"author"      yaml:"author"`
	TotalPct   float64 `json:"total_pct"   yaml:"total_pct"`
	DailyPct   float64 `json:"daily_pct"   yaml:"daily_pct"`
	WeeklyPct  float64 `json:"weekly_pct"  yaml:"weekly_pct"`
	MonthlyPct float64 `json:"monthly_pct" yaml:"monthly_pct"`
}

// Shares computes every author's percentage of the summed author totals and
// rates. A metric that sums to zero yields 0 for every author.
func Shares(result AnalysisResult) []AuthorShare {
	var total, daily, weekly, monthly float64

	for _, a := range result.Authors {
		total += float64(a.TotalLines)
		daily += a.Lines.Daily
		weekly += a.Lines.Weekly
		monthly += a.Lines.Monthly
	}

	shares := make([]AuthorShare, 0, len(result.Authors))

	for _, a := range result.Authors {
		shares = append(shares, AuthorShare{
			Author:     a.Author,
			TotalPct:   percent(float64(a.TotalLines), total),
			DailyPct:   percent(a.Lines.Daily, daily),
			WeeklyPct:  percent(a.Lines.Weekly, weekly),
			MonthlyPct: percent(a.Lines.Monthly, monthly),
		})
	}

	return shares
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}

	return part / whole * percentScale
}
