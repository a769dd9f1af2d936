package services

import "errors"

// ErrInvalidRequest marks caller mistakes so the HTTP layer can answer 400
// instead of 502.
var ErrInvalidRequest = errors.New("invalid request")
