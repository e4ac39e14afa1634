package domain

import "github.com/shopspring/decimal"

// TrendBucket is the summed amount for one calendar month ("YYYY-MM").
type TrendBucket struct {
	PeriodKey string          `json:"periodKey"`
	Sum       decimal.Decimal `json:"sum"`
}

// CategoryBucket is the number of rows sharing one value of a field.
type CategoryBucket struct {
	CategoryKey string `json:"categoryKey"`
	Count       int    `json:"count"`
}

// DashboardStats holds the headline counters of the staff dashboard.
type DashboardStats struct {
	TotalVolunteers int             `json:"totalVolunteers"`
	TotalDonors     int             `json:"totalDonors"`
	TotalProjects   int             `json:"totalProjects"`
	TotalEvents     int             `json:"totalEvents"`
	TotalDonations  decimal.Decimal `json:"totalDonations"`
}

// DashboardSummary is the full response consumed by the staff dashboard.
type DashboardSummary struct {
	Stats                     DashboardStats   `json:"stats"`
	MonthlyTrend              []TrendBucket    `json:"monthlyTrend"`
	StatusDistribution        []CategoryBucket `json:"statusDistribution"`
	CategoryDistribution      []CategoryBucket `json:"categoryDistribution"`
	ProjectStatusDistribution []CategoryBucket `json:"projectStatusDistribution"`
}
