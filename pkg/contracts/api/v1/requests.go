// Package api contains the HTTP contract of the series generator.
// Version v1 represents the current stable API version.
package api

// Output formats accepted by the generate endpoints.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatXLSX  = "xlsx"
	FormatArrow = "arrow"
)

// GenerateParams are the query parameters of POST /api/v1/generate. The
// request body is a scenario document.
type GenerateParams struct {
	Format    string `json:"format" query:"format" validate:"omitempty,oneof=json csv xlsx arrow"`
	Precision *int   `json:"precision,omitempty" query:"precision" validate:"omitempty,min=-1,max=15"`
	Seed      *int64 `json:"seed,omitempty" query:"seed"`
}

// BatchRequest runs stored scenarios by name and writes each result to the
// output directory.
type BatchRequest struct {
	Scenarios []string `json:"scenarios" validate:"required,min=1,dive,required,filename"`
	Format    string   `json:"format,omitempty" validate:"omitempty,oneof=csv xlsx json arrow"`
	Precision *int     `json:"precision,omitempty" validate:"omitempty,min=-1,max=15"`
}
