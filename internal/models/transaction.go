package models

// Record is one cleaned spreadsheet row. Quantity holds the canonical decimal
// text of the source cell so sums can be computed exactly downstream.
type Record struct {
	Invoice  string
	Item     string
	Country  string
	Quantity string
}

// Columns names the source headers the loader maps onto a Record.
type Columns struct {
	Invoice  string
	Item     string
	Country  string
	Quantity string
}

// RulesRequest is the body of a rule generation call. MinThreshold is a
// pointer so that an omitted key fails validation instead of reading as 0.
type RulesRequest struct {
	FilePath       string   `json:"filePath" validate:"required"`
	Country        string   `json:"country" validate:"required"`
	InvoiceColumn  string   `json:"invoiceColumn" validate:"required"`
	ItemColumn     string   `json:"itemColumn" validate:"required"`
	CountryColumn  string   `json:"countryColumn,omitempty"`
	QuantityColumn string   `json:"quantityColumn,omitempty"`
	Sheet          string   `json:"sheet,omitempty"`
	MinSupport     float64  `json:"minSupport" validate:"gt=0,lte=1"`
	MinThreshold   *float64 `json:"minThreshold" validate:"required,gte=0"`
	MaxLength      int      `json:"maxLength,omitempty" validate:"gte=0"`
}

type Recommendation struct {
	ProductsBought     []string `json:"Products Bought"`
	ProductRecommended []string `json:"Product Recommended"`
	Lift               float64  `json:"lift"`
	Confidence         float64  `json:"confidence"`
	Support            float64  `json:"support"`
}

type RulesResult struct {
	Message string           `json:"message"`
	Country string           `json:"country"`
	Baskets int              `json:"baskets"`
	Items   int              `json:"items"`
	Rules   []Recommendation `json:"rules"`
}
