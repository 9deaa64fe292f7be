package handlers

import "errors"

var errInvalidAmount = errors.New("invalid amount")
