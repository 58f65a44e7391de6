package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bizdash/internal/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	run := Run{
		ID:        "run-1",
		Domain:    "Sales",
		Status:    StatusSucceeded,
		Source:    "sales.csv",
		Options:   `{"period":"weekly"}`,
		RowsIn:    3,
		RowsOut:   3,
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
	}
	require.NoError(t, s.Record(ctx, run))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, *got)
}

func TestStore_DefaultsOptions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Run{ID: "r", Domain: "HR", Status: StatusFailed, Error: "boom", StartedAt: time.Now()}))

	got, err := s.Get(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, "{}", got.Options)
	assert.Equal(t, "boom", got.Error)
}

func TestStore_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, domain := range []string{"HR", "Sales", "HR", "CRM"} {
		require.NoError(t, s.Record(ctx, Run{
			ID:        string(rune('a' + i)),
			Domain:    domain,
			Status:    StatusSucceeded,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	tests := []struct {
		name   string
		domain string
		limit  int
		want   []string
	}{
		{"all newest first", "", 0, []string{"d", "c", "b", "a"}},
		{"limited", "", 2, []string{"d", "c"}},
		{"by domain", "HR", 10, []string{"c", "a"}},
		{"unknown domain", "Finance", 10, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.List(ctx, tt.domain, tt.limit)
			require.NoError(t, err)
			ids := make([]string, len(runs))
			for i, r := range runs {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStore_Errors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))

	err = s.Record(ctx, Run{Domain: "HR"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))

	require.NoError(t, s.Record(ctx, Run{ID: "dup", Domain: "HR", StartedAt: time.Now()}))
	err = s.Record(ctx, Run{ID: "dup", Domain: "HR", StartedAt: time.Now()})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
