package contracts

import "errors"

// Sentinel errors shared across stages
var (
	// ErrNoUsableSource means no source for a ticker scored above zero
	ErrNoUsableSource = errors.New("no usable source")

	// ErrEmptySeries means cleaning left a ticker without any rows
	ErrEmptySeries = errors.New("empty series")

	// ErrMissingInput means an upstream stage never created the section this stage reads
	ErrMissingInput = errors.New("missing stage input")

	// ErrUnknownSource means a configured source id has no registered client
	ErrUnknownSource = errors.New("unknown data source")
)
