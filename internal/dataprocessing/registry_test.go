package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bizdash/internal/errors"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want Strategy
	}{
		{"HR", &HRStrategy{}},
		{"Finance", &FinanceStrategy{}},
		{"Sales", &SalesStrategy{}},
		{"Supply Chain", &SupplyChainStrategy{}},
		{"CRM", &CRMStrategy{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("Marketing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDomain)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}

func TestRegistry_IsBuiltPerCall(t *testing.T) {
	first := Registry()
	delete(first, DomainHR)

	second := Registry()
	assert.Len(t, second, len(Domains()))
	assert.Contains(t, second, DomainHR)
}

func TestDomains(t *testing.T) {
	assert.Equal(t, []Domain{"HR", "Finance", "Sales", "Supply Chain", "CRM"}, Domains())
	for _, d := range Domains() {
		assert.Contains(t, Registry(), d)
	}
}

func TestOptionsFromMap(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want Options
	}{
		{
			name: "all keys",
			in: map[string]any{
				"columns": []any{"name", "department"},
				"sort_by": "name",
				"country": "France",
				"period":  "weekly",
			},
			want: Options{Columns: []string{"name", "department"}, SortBy: "name", Country: "France", Period: "weekly"},
		},
		{
			name: "unknown keys ignored",
			in:   map[string]any{"colour": "blue", "period": "monthly"},
			want: Options{Period: "monthly"},
		},
		{
			name: "explicit empty columns",
			in:   map[string]any{"columns": []string{}},
			want: Options{Columns: []string{}},
		},
		{
			name: "nil map",
			want: Options{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OptionsFromMap(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionsFromMap_AbsentColumnsStayNil(t *testing.T) {
	assert.Nil(t, OptionsFromMap(map[string]any{"sort_by": "x"}).Columns)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		period  string
		wantErr bool
	}{
		{"", false},
		{"weekly", false},
		{"monthly", false},
		{"daily", true},
		{"Weekly", true},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			err := Options{Period: tt.period}.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "period must be one of [weekly monthly]")
				return
			}
			assert.NoError(t, err)
		})
	}
}
