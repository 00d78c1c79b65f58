package domain

import "errors"

var ErrInvalidEvaluationRequest = errors.New("evaluation request is invalid")
