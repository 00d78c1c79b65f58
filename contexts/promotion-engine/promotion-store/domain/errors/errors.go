package errors

import "errors"

var (
	ErrInvalidInput             = errors.New("promotion store input is invalid")
	ErrPromotionNotFound        = errors.New("promotion not found")
	ErrVersionNotFound          = errors.New("promotion version not found")
	ErrVersionConflict          = errors.New("promotion version already exists for promotion/country/version")
	ErrDuplicateTierLevel       = errors.New("tier level already exists for this promotion")
	ErrDuplicateGroupOrder      = errors.New("group order already exists for this tier")
	ErrVersionAlreadyPublished  = errors.New("cannot modify an already-published version")
	ErrIllegalStatusTransition  = errors.New("illegal contact reward status transition")
	ErrGrantAlreadyExists       = errors.New("a granted contact reward already exists for this event")
)
