// Package feed implements the websocket market data source for the market context.
package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// subscribeMethod is the verb for combined-stream subscription requests.
const subscribeMethod = "SUBSCRIBE"

// AllBookTickerStream is the all-market best bid/ask stream.
const AllBookTickerStream = "!bookTicker"

// WSRequest is a combined-stream control message sent to the exchange.
type WSRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// WSResponse acknowledges a control message. Result is null on success.
type WSResponse struct {
	Result json.RawMessage `json:"result"`
	ID     int64           `json:"id"`
}

// StreamEvent wraps every combined-stream payload with its stream name.
type StreamEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// BookTickerEvent is a best bid/ask update from <symbol>@bookTicker.
// The exchange sends prices and quantities as strings.
type BookTickerEvent struct {
	UpdateID int64  `json:"u"`
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

// TopOfBook holds the parsed best bid and ask.
type TopOfBook struct {
	BidPrice decimal.Decimal
	BidQty   decimal.Decimal
	AskPrice decimal.Decimal
	AskQty   decimal.Decimal
}

// TopOfBook parses all four quote fields; the first malformed field fails
// the whole event.
func (e *BookTickerEvent) TopOfBook() (TopOfBook, error) {
	var (
		top TopOfBook
		err error
	)
	for _, field := range []struct {
		raw  string
		dst  *decimal.Decimal
		name string
	}{
		{e.BidPrice, &top.BidPrice, "bid price"},
		{e.BidQty, &top.BidQty, "bid qty"},
		{e.AskPrice, &top.AskPrice, "ask price"},
		{e.AskQty, &top.AskQty, "ask qty"},
	} {
		if *field.dst, err = decimal.NewFromString(field.raw); err != nil {
			return TopOfBook{}, fmt.Errorf("%s %q: %w", field.name, field.raw, err)
		}
	}
	return top, nil
}

// BookTickerStream builds the per-symbol bookTicker stream name.
// Stream names are always lowercase on the wire.
func BookTickerStream(symbol string) string {
	return strings.ToLower(symbol) + "@bookTicker"
}
