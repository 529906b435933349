package model

import "errors"

var (
	// ErrDataUnavailable means the series provider returned nothing or failed.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientData means the series is shorter than the indicator engine's minimum window.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInsufficientHistory means a backtest could not obtain enough historical bars.
	ErrInsufficientHistory = errors.New("insufficient historical data")
	// ErrInvalidIndicator means an unknown indicator key was requested.
	ErrInvalidIndicator = errors.New("invalid indicator selection")
	// ErrInvalidParameter means a request parameter is out of its allowed range.
	ErrInvalidParameter = errors.New("invalid parameter range")
)
