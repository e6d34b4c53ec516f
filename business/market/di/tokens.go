// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/ming198921/taoli5.1-sub000/business/market/app"
	"github.com/ming198921/taoli5.1-sub000/business/market/infra/feed"
	"github.com/ming198921/taoli5.1-sub000/internal/di"
)

// DI tokens for the market module.
const (
	Frequencies = "market.QuoteFrequencies"
	Resolver    = "market.SymbolResolver"
	FeedSource  = "market.FeedSource"
)

// GetFrequencies resolves the shared quote-frequency table.
func GetFrequencies(sr di.ServiceRegistry) *app.QuoteFrequencies {
	return di.GetToken[*app.QuoteFrequencies](sr, Frequencies)
}

// GetResolver resolves the symbol resolver.
func GetResolver(sr di.ServiceRegistry) *app.SymbolResolver {
	return di.GetToken[*app.SymbolResolver](sr, Resolver)
}

// GetFeedSource resolves the market data feed source.
func GetFeedSource(sr di.ServiceRegistry) *feed.Source {
	return di.GetToken[*feed.Source](sr, FeedSource)
}
