package model

import "errors"

var (
	ErrUnknownDashboard = errors.New("unknown dashboard")
	ErrEmptyTable       = errors.New("empty table")
	ErrBadSelection     = errors.New("bad selection")
)
