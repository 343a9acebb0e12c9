package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pyar/asocmembers/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestClient(baseURL string, pageSize int) *Client {
	cfg := config.Config{
		MercadoPago: config.MercadoPagoConfig{
			BaseURL:     baseURL,
			AccessToken: "test-token",
			Timeout:     5 * time.Second,
		},
	}
	gateway := config.DefaultGatewayConfig()
	gateway.PageSize = pageSize
	return NewClient(cfg, config.NewStaticGatewayConfigHolder(gateway), zap.NewNop())
}

func TestSearchApprovedPages(t *testing.T) {
	const total = 5
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/payments/search", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "approved", r.URL.Query().Get("status"))

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		resp := searchResponse{}
		resp.Paging.Total = total
		resp.Paging.Limit = limit
		resp.Paging.Offset = offset
		for i := offset; i < total && i < offset+limit; i++ {
			resp.Results = append(resp.Results, Payment{
				ID:                int64(i + 1),
				Description:       "Cuota mensual",
				DateApproved:      "2018-01-01T00:00:00Z",
				TransactionAmount: decimal.NewFromInt(100),
				Payer:             &Payer{ID: PayerID(strconv.Itoa(i))},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 2)
	payments, err := client.SearchApproved(context.Background())
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	assert.Len(t, payments, total)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, int64(5), payments[4].ID)
}

func TestSearchApprovedStopsOnExactPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		resp := searchResponse{}
		if n == 1 {
			resp.Results = []Payment{{ID: 1}, {ID: 2}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	payments, err := newTestClient(srv.URL, 2).SearchApproved(context.Background())
	assert.NoError(t, err)
	assert.Len(t, payments, 2)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSearchApprovedReportsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid access token","error":"unauthorized"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).SearchApproved(context.Background())
	assert.ErrorIs(t, err, ErrRequest)
	assert.Contains(t, err.Error(), "invalid access token")
}

func TestSearchApprovedRequiresToken(t *testing.T) {
	client := NewClient(config.Config{}, config.NewStaticGatewayConfigHolder(config.DefaultGatewayConfig()), zap.NewNop())
	_, err := client.SearchApproved(context.Background())
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestFetchRecordsUsesConfiguredPrefixes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := searchResponse{Results: []Payment{
			{ID: 1, Description: "Cuota mensual 2018", DateApproved: "2018-01-01T00:00:00Z", TransactionAmount: decimal.NewFromInt(100), Payer: &Payer{ID: "9"}},
			{ID: 2, Description: "Remera", DateApproved: "2018-01-01T00:00:00Z", TransactionAmount: decimal.NewFromInt(100), Payer: &Payer{ID: "9"}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	records, err := newTestClient(srv.URL, 10).FetchRecords(context.Background(), Filter{})
	assert.NoError(t, err)
	if assert.Len(t, records, 1) {
		assert.Equal(t, "9", records[0].PayerID)
	}
}

func TestSearchApprovedWrapsTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	_, err := newTestClient(baseURL, 2).SearchApproved(context.Background())
	assert.ErrorIs(t, err, ErrRequest)
}

func TestSearchApprovedWrapsDecodeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).SearchApproved(context.Background())
	assert.ErrorIs(t, err, ErrRequest)
	assert.Contains(t, err.Error(), "decode search response")
}
