package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdash/internal/config"
)

func TestCSVWriter_WriteDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sales.csv")
	w := NewCSVWriter(nil)

	require.NoError(t, w.WriteDataset(path, salesDataset()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\ufeffPeriod,Quantity Ordered,Revenue\n2023-W1,20,4000\n2023-W7,5,250\n", string(data))
}

func TestCSVWriter_RelativePathUsesReportsDir(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	w := NewCSVWriter(paths)

	require.NoError(t, w.WriteCSV("out.csv", WriteOptions{
		Headers: []string{"a", "b"},
		Records: [][]string{{"1", "x,y"}},
	}))

	data, err := os.ReadFile(filepath.Join(paths.ReportsDir, "out.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x,y\"\n", string(data))
}

func TestCSVWriter_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer\n"), 0644))

	w := NewCSVWriter(nil)
	require.NoError(t, w.WriteCSV(path, WriteOptions{Headers: []string{"h"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "h\n", string(data))
}
