package domain

import "errors"

var (
	ErrNoTokensAvailable = errors.New("no token candidates available")
	ErrNoAPIKeys         = errors.New("no api keys loaded")
)
