package engine

// YearValue is one point of a yearly series.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// CountryValue is one country's reduced measure.
type CountryValue struct {
	Country string  `json:"country"`
	Value   float64 `json:"value"`
}

// ProductionPrice joins summed production with the average producer price
// for the same (country, year).
type ProductionPrice struct {
	Country            string  `json:"country"`
	Year               int     `json:"year"`
	ProductionQuantity float64 `json:"production_quantity"`
	Price              float64 `json:"price"`
}

// FertilizerSeries holds two yearly series over the union of their years.
// Production and Fertilizer are parallel to Years.
type FertilizerSeries struct {
	Years      []int     `json:"years"`
	Production []float64 `json:"production"`
	Fertilizer []float64 `json:"fertilizer"`
}

// FDIMatrix pivots investment amounts: Matrix[investing][i] is the amount
// invested into Receiving[i].
type FDIMatrix struct {
	Receiving []string             `json:"receiving"`
	Investing []string             `json:"investing"`
	Matrix    map[string][]float64 `json:"matrix"`
}

// CountryValues holds the raw, unreduced values observed for a country.
type CountryValues struct {
	Country string    `json:"country"`
	Values  []float64 `json:"values"`
}

// LandShare is the agricultural share of a country's total land area.
type LandShare struct {
	Country  string  `json:"country"`
	Year     int     `json:"year"`
	SharePct float64 `json:"share_pct"`
}

// EmploymentProduction pairs agricultural employment with production for a year.
type EmploymentProduction struct {
	Year       int     `json:"year"`
	Employment float64 `json:"employment"`
	Production float64 `json:"production"`
}

// FilterOptions lists the values a dashboard can offer as filters.
type FilterOptions struct {
	Countries       []string `json:"countries"`
	Products        []string `json:"products"`
	Years           []int    `json:"years"`
	FertilizerTypes []string `json:"fertilizer_types"`
}
