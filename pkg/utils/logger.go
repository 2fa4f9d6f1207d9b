package utils

import (
	"fmt"

	"go.uber.org/zap"
)

// NewSugaredLogger creates a sugared logger based on the verbose flag.
// If verbose is true, it creates a development logger, otherwise a production logger.
func NewSugaredLogger(verbose bool) (*zap.SugaredLogger, error) {
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("failed to create development logger: %w", err)
		}
		return l.Sugar(), nil
	}

	l, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create production logger: %w", err)
	}
	return l.Sugar(), nil
}

// NewRunLogger creates a sugared logger tagged with a run identifier so that
// log lines from concurrent or repeated runs can be told apart.
func NewRunLogger(verbose bool, runID string) (*zap.SugaredLogger, error) {
	l, err := NewSugaredLogger(verbose)
	if err != nil {
		return nil, err
	}
	return l.With("run_id", runID), nil
}
