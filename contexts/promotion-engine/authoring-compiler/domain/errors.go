package domain

import "errors"

var (
	ErrInvalidDraftInput      = errors.New("draft upsert input is invalid")
	ErrCompileProducedZeroRules = errors.New("compile produced zero rules")
	ErrVersionConflict        = errors.New("promotion version already exists for promotion/country/version")
)
