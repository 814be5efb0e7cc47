package contracts

import "context"

// FetchRequest describes one pull of daily history for one ticker
type FetchRequest struct {
	Ticker string
	Period string
	APIKey string
}

// PriceSource is an external data-source client.
// Fetch returns records ordered by date ascending, or an error.
type PriceSource interface {
	ID() string
	Fetch(ctx context.Context, req FetchRequest) ([]TimeSeriesRecord, error)
}

// KeyedSource is implemented by sources that can only be used with an API key
type KeyedSource interface {
	RequiresAPIKey() bool
}

// AuthoritativeSource is implemented by sources whose data is trusted as-is.
// Their datasets get the fixed quality score instead of a computed one.
type AuthoritativeSource interface {
	FixedQuality() float64
}
