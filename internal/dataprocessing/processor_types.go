package dataprocessing

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"bizdash/internal/chart"
	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
)

// Domain names a business area with its own processing strategy.
type Domain string

const (
	DomainHR          Domain = "HR"
	DomainFinance     Domain = "Finance"
	DomainSales       Domain = "Sales"
	DomainSupplyChain Domain = "Supply Chain"
	DomainCRM         Domain = "CRM"
)

// Sales periods.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Strategy defines a domain-specific processing routine
type Strategy interface {
	// Process validates, filters, groups and sorts the input according to opts
	Process(ctx context.Context, in Input, opts Options) (*Result, error)
}

// Input is either an already loaded dataset or the path of a source to load.
type Input struct {
	Dataset *dataset.Dataset
	Path    string
}

// FromDataset wraps a loaded dataset.
func FromDataset(ds *dataset.Dataset) Input {
	return Input{Dataset: ds}
}

// FromPath wraps a source path to be loaded by the strategy.
func FromPath(path string) Input {
	return Input{Path: path}
}

// Options configures a strategy call. A nil Columns means the caller made no
// selection; a non-nil empty slice is an explicit empty selection.
type Options struct {
	Columns []string `json:"columns,omitempty"`
	SortBy  string   `json:"sort_by,omitempty"`
	Country string   `json:"country,omitempty"`
	Period  string   `json:"period,omitempty" validate:"omitempty,oneof=weekly monthly"`
}

var optionsValidator = validator.New()

// Validate checks option values that have a closed set of choices.
func (o Options) Validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s must be one of [%s]", strings.ToLower(fe.Field()), fe.Param()))
			}
		} else {
			fields = append(fields, err.Error())
		}
		return apperrors.NewAppValidationError("invalid options: " + strings.Join(fields, "; "))
	}
	return nil
}

// OptionsFromMap builds Options from a loose key/value bag. Recognized keys are
// columns, sort_by, country and period; anything else is ignored.
func OptionsFromMap(m map[string]any) Options {
	var opts Options
	if v, ok := m["columns"]; ok {
		switch cols := v.(type) {
		case []string:
			opts.Columns = append([]string{}, cols...)
		case []any:
			opts.Columns = make([]string, 0, len(cols))
			for _, c := range cols {
				opts.Columns = append(opts.Columns, fmt.Sprint(c))
			}
		case string:
			opts.Columns = []string{cols}
		}
	}
	if v, ok := m["sort_by"].(string); ok {
		opts.SortBy = v
	}
	if v, ok := m["country"].(string); ok {
		opts.Country = v
	}
	if v, ok := m["period"].(string); ok {
		opts.Period = v
	}
	return opts
}

// Result is the output of a strategy. Chart is set by Sales only. Notice is
// the message shown in place of an empty table.
type Result struct {
	Dataset *dataset.Dataset
	Chart   *chart.Descriptor
	Notice  string
}

// Empty reports whether the result has no rows.
func (r *Result) Empty() bool {
	return r.Dataset == nil || r.Dataset.Empty()
}

// Empty-result notices.
const (
	NoticeSales   = "No data available for this period."
	NoticeCRM     = "No data available after filtering. Please adjust your selections."
	NoticeDefault = "No data available after processing."
)

func newResult(ds *dataset.Dataset, notice string) *Result {
	res := &Result{Dataset: ds}
	if ds.Empty() {
		res.Notice = notice
	}
	return res
}
