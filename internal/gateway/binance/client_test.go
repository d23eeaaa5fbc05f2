package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"dipbot/internal/gateway/exchange"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New("binance", Config{RESTBaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestFetchTicker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"30000.10000000"}`))
	})

	tk, err := c.FetchTicker(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", tk.Symbol)
	assert.True(t, tk.Last.Equal(decimal.RequireFromString("30000.1")), "got %s", tk.Last)
}

func TestFetchTickerServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})
	_, err := c.FetchTicker(context.Background(), "NOPE/USDT")
	assert.Error(t, err)
}

func TestFetchTickerRejectsBadSymbol(t *testing.T) {
	c, err := New("", Config{})
	require.NoError(t, err)
	assert.Equal(t, "binance", c.Name())
	_, err = c.FetchTicker(context.Background(), "BTC")
	assert.Error(t, err)
}

func TestMarketPrecisionFromLotSize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/exchangeInfo", r.URL.Path)
		w.Write([]byte(`{"symbols":[{"symbol":"ETHUSDT","filters":[
			{"filterType":"PRICE_FILTER","minPrice":"0.01","maxPrice":"1000000.00","tickSize":"0.01"},
			{"filterType":"LOT_SIZE","minQty":"0.00010000","maxQty":"9000.00000000","stepSize":"0.00010000"}]}]}`))
	})

	p, ok, err := c.MarketPrecision(context.Background(), "ETH/USDT")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, p)
}

func TestAmountPrecisionWithoutLotSize(t *testing.T) {
	_, ok := amountPrecision(&binance.Symbol{Symbol: "BTCUSDT"})
	assert.False(t, ok)

	p, ok := amountPrecision(&binance.Symbol{
		Symbol: "DOGEUSDT",
		Filters: []map[string]interface{}{
			{"filterType": "LOT_SIZE", "minQty": "1.00000000", "maxQty": "9000000.00000000", "stepSize": "1.00000000"},
		},
	})
	assert.True(t, ok)
	assert.Equal(t, 0, p)
}

func TestReceiptFromResponse(t *testing.T) {
	amount := decimal.RequireFromString("0.0002")
	r := receiptFromResponse("BTC/USDT", exchange.SideBuy, amount, &binance.CreateOrderResponse{
		Symbol:                   "BTCUSDT",
		OrderID:                  42,
		ClientOrderID:            "dipabc",
		TransactTime:             1700000000000,
		ExecutedQuantity:         "0.00020000",
		CummulativeQuoteQuantity: "6.00000000",
		Status:                   binance.OrderStatusTypeFilled,
	})
	assert.Equal(t, "42", r.OrderID)
	assert.Equal(t, "dipabc", r.ClientOrderID)
	assert.Equal(t, "FILLED", r.Status)
	assert.True(t, r.FilledAmount().Equal(amount))
	assert.True(t, r.QuoteAmount.Equal(decimal.NewFromInt(6)))
	assert.False(t, r.TransactedAt.IsZero())
	assert.NotEmpty(t, r.Raw)
}

func TestNewClientOrderIDFitsLimit(t *testing.T) {
	id := newClientOrderID()
	assert.LessOrEqual(t, len(id), 36)
	assert.NotEqual(t, id, newClientOrderID())
}

func TestTestnetBaseURL(t *testing.T) {
	cfg := (&Config{Testnet: true}).withDefaults()
	assert.Equal(t, testnetRESTBaseURL, cfg.RESTBaseURL)
	cfg = (&Config{}).withDefaults()
	assert.Equal(t, defaultRESTBaseURL, cfg.RESTBaseURL)
}
