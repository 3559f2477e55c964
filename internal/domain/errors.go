package domain

import "errors"

var (
	// ErrDataUnavailable means every fallback candidate returned no candles.
	ErrDataUnavailable = errors.New("no market data available")

	// ErrNoChartData means a renderer was handed an empty dataset.
	ErrNoChartData = errors.New("no data to chart")

	ErrRenderFailure   = errors.New("chart rendering failed")
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrProviderDisabled is returned before any network call when the AI collaborator has no credentials.
	ErrProviderDisabled = errors.New("ai provider disabled")

	ErrEmptyResponse    = errors.New("ai returned an empty response")
	ErrUnknownSymbol    = errors.New("unknown symbol")
	ErrInsufficientData = errors.New("insufficient historical data")
	ErrInvalidArgument  = errors.New("invalid argument")
)
