package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppValidationError("period must be weekly or monthly"),
			want: "[VALIDATION] period must be weekly or monthly",
		},
		{
			name: "with cause",
			err:  NewParseError("read csv", stderrors.New("bare \" in non-quoted field")),
			want: "[PARSING] read csv: bare \" in non-quoted field",
		},
		{
			name: "not found",
			err:  NewNotFoundError("dataset 42"),
			want: "[NOT_FOUND] dataset 42 not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewStorageError("write report", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Same(t, cause, stderrors.Unwrap(err))
}

func TestNewSchemaError(t *testing.T) {
	err := NewSchemaError([]string{"quantity", "amount", "country"})

	assert.Equal(t, ErrTypeSchema, err.Type)
	assert.Equal(t, "[SCHEMA] missing columns: amount, country, quantity", err.Error())
	assert.Equal(t, []string{"amount", "country", "quantity"}, MissingColumns(err))
}

func TestNewColumnSelectionError(t *testing.T) {
	err := NewColumnSelectionError([]string{"salary"})

	assert.True(t, IsColumnSelectionError(err))
	assert.False(t, IsSchemaError(err))
	assert.Equal(t, []string{"salary"}, MissingColumns(err))
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		parse     bool
		schema    bool
		selection bool
	}{
		{"parse", fmt.Errorf("ingest: %w", NewParseError("bad csv", nil)), true, false, false},
		{"schema", fmt.Errorf("crm: %w", NewSchemaError([]string{"year"})), false, true, false},
		{"selection", fmt.Errorf("hr: %w", NewColumnSelectionError([]string{"x"})), false, false, true},
		{"plain", stderrors.New("boom"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.parse, IsParseError(tt.err))
			assert.Equal(t, tt.schema, IsSchemaError(tt.err))
			assert.Equal(t, tt.selection, IsColumnSelectionError(tt.err))
		})
	}
}

func TestWithContext(t *testing.T) {
	err := NewParseError("invalid date", nil).
		WithContext("column", "invoice_date").
		WithContext("row", 3)

	require.NotNil(t, err.Context)
	assert.Equal(t, "invoice_date", err.Context["column"])
	assert.Equal(t, 3, err.Context["row"])
}

func TestMissingColumns_NonAppError(t *testing.T) {
	assert.Nil(t, MissingColumns(stderrors.New("other")))
	assert.Nil(t, MissingColumns(NewStorageError("x", nil)))
}
