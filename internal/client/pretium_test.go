package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"semunipay/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPretiumClient_ExchangeRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/exchange-rate", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ETB", body["currency_code"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"buying_rate":"130.00","selling_rate":"132.50"}}`))
	}))
	defer srv.Close()

	c := NewPretiumClient(srv.URL, "test-key")
	rate, err := c.ExchangeRate(context.Background(), "ETB")
	require.NoError(t, err)
	assert.Equal(t, "130.00", rate.StringFixed(2))
}

func TestPretiumClient_ExchangeRateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, `{}`},
		{"malformed rate", http.StatusOK, `{"data":{"buying_rate":"not-a-number"}}`},
		{"zero rate", http.StatusOK, `{"data":{"buying_rate":"0"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewPretiumClient(srv.URL, "test-key")
			_, err := c.ExchangeRate(context.Background(), "ETB")
			assert.Error(t, err)
		})
	}
}

func TestPretiumClient_Pay(t *testing.T) {
	var got model.SettlementRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pay/ETB", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"accepted"}`))
	}))
	defer srv.Close()

	c := NewPretiumClient(srv.URL, "test-key")
	err := c.Pay(context.Background(), "ETB", model.SettlementRequest{
		TransactionHash: "0xabc",
		Amount:          650.00,
		Shortcode:       "+251911234567",
		MobileNetwork:   "Telebirr",
		Chain:           "BASE",
	})
	require.NoError(t, err)

	assert.Equal(t, "0xabc", got.TransactionHash)
	assert.Equal(t, 650.00, got.Amount)
	assert.Equal(t, "+251911234567", got.Shortcode)
	assert.Equal(t, "Telebirr", got.MobileNetwork)
	assert.Equal(t, "BASE", got.Chain)
}

func TestPretiumClient_PayRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"unknown shortcode"}`))
	}))
	defer srv.Close()

	c := NewPretiumClient(srv.URL, "test-key")
	err := c.Pay(context.Background(), "ETB", model.SettlementRequest{TransactionHash: "0xabc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
