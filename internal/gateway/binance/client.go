package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dipbot/internal/gateway/exchange"
	"dipbot/internal/logger"
	symbolpkg "dipbot/internal/pkg/symbol"
	"dipbot/internal/pkg/trading"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client implements exchange.Exchange on top of the go-binance spot REST API.
type Client struct {
	cfg    Config
	name   string
	client *binance.Client
}

var _ exchange.Exchange = (*Client)(nil)

func New(name string, cfg Config) (*Client, error) {
	final := cfg.withDefaults()
	client := binance.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyURL != "" {
		proxyURL, err := url.Parse(final.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	if name == "" {
		name = "binance"
	}
	return &Client{
		cfg:    final,
		name:   name,
		client: client,
	}, nil
}

func (c *Client) Name() string { return c.name }

func (c *Client) FetchTicker(ctx context.Context, sym string) (exchange.Ticker, error) {
	binanceSymbol, err := toBinance(sym)
	if err != nil {
		return exchange.Ticker{}, err
	}
	prices, err := c.client.NewListPricesService().Symbol(binanceSymbol).Do(ctx)
	if err != nil {
		return exchange.Ticker{}, fmt.Errorf("fetch ticker %s: %w", sym, err)
	}
	for _, p := range prices {
		if p == nil || !strings.EqualFold(p.Symbol, binanceSymbol) {
			continue
		}
		last, err := decimal.NewFromString(strings.TrimSpace(p.Price))
		if err != nil {
			return exchange.Ticker{}, fmt.Errorf("parse price %q for %s: %w", p.Price, sym, err)
		}
		return exchange.Ticker{Symbol: sym, Last: last, UpdatedAt: time.Now().UTC()}, nil
	}
	return exchange.Ticker{}, fmt.Errorf("ticker not available for %s", sym)
}

func (c *Client) MarketPrecision(ctx context.Context, sym string) (int, bool, error) {
	binanceSymbol, err := toBinance(sym)
	if err != nil {
		return 0, false, err
	}
	info, err := c.client.NewExchangeInfoService().Symbol(binanceSymbol).Do(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("exchange info %s: %w", sym, err)
	}
	for i := range info.Symbols {
		s := &info.Symbols[i]
		if !strings.EqualFold(s.Symbol, binanceSymbol) {
			continue
		}
		p, ok := amountPrecision(s)
		return p, ok, nil
	}
	return 0, false, fmt.Errorf("market %s not listed", sym)
}

func (c *Client) CreateMarketBuyOrder(ctx context.Context, sym string, amount decimal.Decimal) (exchange.OrderReceipt, error) {
	return c.marketOrder(ctx, sym, exchange.SideBuy, amount)
}

func (c *Client) CreateMarketSellOrder(ctx context.Context, sym string, amount decimal.Decimal) (exchange.OrderReceipt, error) {
	return c.marketOrder(ctx, sym, exchange.SideSell, amount)
}

func (c *Client) marketOrder(ctx context.Context, sym string, side exchange.Side, amount decimal.Decimal) (exchange.OrderReceipt, error) {
	binanceSymbol, err := toBinance(sym)
	if err != nil {
		return exchange.OrderReceipt{}, err
	}
	if !amount.IsPositive() {
		return exchange.OrderReceipt{}, fmt.Errorf("order amount must be positive, got %s", amount)
	}
	sideType := binance.SideTypeBuy
	if side == exchange.SideSell {
		sideType = binance.SideTypeSell
	}
	clientID := newClientOrderID()
	res, err := c.client.NewCreateOrderService().
		Symbol(binanceSymbol).
		Side(sideType).
		Type(binance.OrderTypeMarket).
		Quantity(amount.String()).
		NewClientOrderID(clientID).
		Do(ctx)
	if err != nil {
		logger.Errorf("[binance] %s %s amount=%s failed: %v", side, sym, amount, err)
		return exchange.OrderReceipt{}, fmt.Errorf("binance %s order %s: %w", side, sym, err)
	}
	receipt := receiptFromResponse(sym, side, amount, res)
	if receipt.ClientOrderID == "" {
		receipt.ClientOrderID = clientID
	}
	return receipt, nil
}

func toBinance(sym string) (string, error) {
	parsed := symbolpkg.Parse(sym)
	if parsed.Base == "" || parsed.Quote == "" {
		return "", fmt.Errorf("invalid symbol: %s", sym)
	}
	return symbolpkg.Binance.ToExchange(parsed.Internal()), nil
}

// amountPrecision derives the amount precision from the LOT_SIZE step size.
func amountPrecision(s *binance.Symbol) (int, bool) {
	lot := s.LotSizeFilter()
	if lot == nil {
		return 0, false
	}
	return trading.PrecisionFromStep(lot.StepSize)
}

func receiptFromResponse(sym string, side exchange.Side, requested decimal.Decimal, res *binance.CreateOrderResponse) exchange.OrderReceipt {
	receipt := exchange.OrderReceipt{
		Symbol:    sym,
		Side:      side,
		Requested: requested,
	}
	if res == nil {
		return receipt
	}
	receipt.OrderID = strconv.FormatInt(res.OrderID, 10)
	receipt.ClientOrderID = res.ClientOrderID
	receipt.Status = string(res.Status)
	receipt.Executed = parseDecimal(res.ExecutedQuantity)
	receipt.QuoteAmount = parseDecimal(res.CummulativeQuoteQuantity)
	if res.TransactTime > 0 {
		receipt.TransactedAt = time.UnixMilli(res.TransactTime).UTC()
	}
	if raw, err := json.Marshal(res); err == nil {
		receipt.Raw = raw
	}
	return receipt
}

func parseDecimal(v string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// newClientOrderID fits Binance's 36-character client order id limit.
func newClientOrderID() string {
	return "dip" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
