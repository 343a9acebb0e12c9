package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pyar/asocmembers/internal/config"
	"github.com/pyar/asocmembers/internal/reconcile"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrMissingToken = errors.New("mercadopago_missing_token")
	ErrRequest      = errors.New("mercadopago_request_failed")
)

// Payment is the subset of a gateway payment the importer reads.
type Payment struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	Description       string          `json:"description"`
	DateApproved      string          `json:"date_approved"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Payer             *Payer          `json:"payer"`
}

type Payer struct {
	ID PayerID `json:"id"`
}

// PayerID accepts both numeric and string ids.
type PayerID string

func (p *PayerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PayerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PayerID(n.String())
	return nil
}

type searchResponse struct {
	Paging struct {
		Total  int `json:"total"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	} `json:"paging"`
	Results []Payment `json:"results"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type Client struct {
	baseURL     string
	accessToken string
	http        *http.Client
	gateway     *config.GatewayConfigHolder
	log         *zap.Logger
}

func NewClient(cfg config.Config, gateway *config.GatewayConfigHolder, log *zap.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.MercadoPago.BaseURL, "/"),
		accessToken: strings.TrimSpace(cfg.MercadoPago.AccessToken),
		http:        &http.Client{Timeout: cfg.MercadoPago.Timeout},
		gateway:     gateway,
		log:         log.Named("mercadopago"),
	}
}

// SearchApproved pages through every approved payment.
func (c *Client) SearchApproved(ctx context.Context) ([]Payment, error) {
	if c.accessToken == "" {
		return nil, ErrMissingToken
	}

	limit := c.gateway.Get().PageSize
	results := []Payment{}
	for offset := 0; ; offset += limit {
		page, err := c.search(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		c.log.Debug("fetched payments page",
			zap.Int("offset", page.Paging.Offset),
			zap.Int("total", page.Paging.Total),
			zap.Int("results", len(page.Results)),
		)
		results = append(results, page.Results...)
		if len(page.Results) < limit {
			break
		}
	}

	c.log.Info("fetched approved payments", zap.Int("items", len(results)))
	return results, nil
}

// FetchRecords downloads approved payments and keeps the subscription ones.
func (c *Client) FetchRecords(ctx context.Context, filter Filter) ([]reconcile.Record, error) {
	raw, err := c.SearchApproved(ctx)
	if err != nil {
		return nil, err
	}
	if len(filter.Prefixes) == 0 {
		filter.Prefixes = c.gateway.Get().SubscriptionPrefixes
	}
	return ParseRecords(c.log, raw, filter), nil
}

func (c *Client) search(ctx context.Context, limit, offset int) (searchResponse, error) {
	query := url.Values{}
	query.Set("status", "approved")
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/search?"+query.Encode(), nil)
	if err != nil {
		return searchResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return searchResponse{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return searchResponse{}, fmt.Errorf("%w: status %d: %s", ErrRequest, resp.StatusCode, message)
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return searchResponse{}, fmt.Errorf("%w: decode search response: %v", ErrRequest, err)
	}
	return page, nil
}
