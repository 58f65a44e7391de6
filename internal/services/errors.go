package services

import "errors"

// Service errors
var (
	// ErrDatasetNotFound is wrapped when a dataset id is not in the cache.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrSessionNoDataset is returned when a websocket session processes
	// before loading a dataset.
	ErrSessionNoDataset = errors.New("no dataset loaded in session")
)
