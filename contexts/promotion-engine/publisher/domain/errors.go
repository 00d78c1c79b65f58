package domain

import "errors"

var ErrNoVersionToPublish = errors.New("no promotion version exists for this country")
