package dataprocessing

import (
	"context"
	"time"

	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
)

// CRM column names.
const (
	ColInvoiceID   = "invoiceID"
	ColInvoiceDate = "invoice_date"
	ColCustomerID  = "customerID"
	ColCountry     = "country"
	ColQuantity    = "quantity"
	ColAmount      = "amount"
	ColYear        = "year"
)

// CRMRequiredColumns must all be present for CRM processing.
var CRMRequiredColumns = []string{ColInvoiceID, ColInvoiceDate, ColCustomerID, ColCountry, ColQuantity, ColAmount}

// CRMStrategy filters invoices by country and, when year is selected, sums
// quantity and amount per year and the other selected columns.
type CRMStrategy struct{}

// NewCRMStrategy creates a CRM strategy.
func NewCRMStrategy() *CRMStrategy {
	return &CRMStrategy{}
}

// Process implements Strategy.
func (s *CRMStrategy) Process(ctx context.Context, in Input, opts Options) (*Result, error) {
	ds, err := resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	if missing := ds.Missing(CRMRequiredColumns...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	dates, err := ds.ParseTimes(ColInvoiceDate)
	if err != nil {
		return nil, err
	}
	if !ds.Has(ColYear) {
		year := dataset.Derive(ColYear, dates, func(t time.Time) int64 { return int64(t.Year()) })
		if err := ds.SetColumn(year); err != nil {
			return nil, err
		}
	}

	if opts.Country != "" {
		if ds, err = ds.Equal(ColCountry, opts.Country); err != nil {
			return nil, err
		}
	}

	columns := opts.Columns
	if columns == nil {
		columns = append(append([]string{}, CRMRequiredColumns...), ColYear)
	}

	if !contains(columns, ColYear) {
		out, err := ds.Select(columns)
		if err != nil {
			return nil, err
		}
		return newResult(out, NoticeCRM), nil
	}

	keys := []string{ColYear}
	for _, c := range columns {
		if c != ColQuantity && c != ColAmount && c != ColYear {
			keys = append(keys, c)
		}
	}
	out, err := ds.GroupSum(keys, []string{ColQuantity, ColAmount})
	if err != nil {
		return nil, err
	}
	return newResult(out, NoticeCRM), nil
}
