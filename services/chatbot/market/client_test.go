// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package market

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeSymbol(t *testing.T) {
	c := New("http://unused", []string{"AAPL", "TSLA", "MSFT"}, nil)
	cases := []struct {
		in   string
		want string
	}{
		{"TCS", "TCS.NS"},
		{"tcs", "TCS.NS"},
		{" reliance ", "RELIANCE.NS"},
		{"AAPL", "AAPL"},
		{"tsla", "TSLA"},
		{"INFY.NS", "INFY.NS"},
		{"SENSEX.BO", "SENSEX.BO"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := c.NormalizeSymbol(tc.in); got != tc.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/price/TCS.NS" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Quote{Symbol: "TCS.NS", Price: 4012.3, Currency: "INR", Exchange: "NSE"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	q, err := c.Price(context.Background(), "tcs")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if q.Price != 4012.3 || q.Currency != "INR" {
		t.Errorf("unexpected quote %+v", q)
	}
}

func TestPrice_FillsSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Quote{Price: 190.2, Currency: "USD"})
	}))
	defer srv.Close()

	c := New(srv.URL, []string{"AAPL"}, nil)
	q, err := c.Price(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if q.Symbol != "AAPL" {
		t.Errorf("symbol not backfilled: %q", q.Symbol)
	}
}

func TestPrice_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	_, err := c.Price(context.Background(), "NOPE")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/spot/gold":
			json.NewEncoder(w).Encode(spotResponse{PriceUSD: 2400.0})
		case "/fx/usdinr":
			json.NewEncoder(w).Encode(fxResponse{Rate: 84.0})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	rate, err := c.Gold(context.Background())
	if err != nil {
		t.Fatalf("Gold: %v", err)
	}
	want := 2400.0 / gramsPerOunce * 10 * 84.0
	if math.Abs(rate.PricePerTenGramINR-want) > 0.01 {
		t.Errorf("PricePerTenGramINR = %v, want %v", rate.PricePerTenGramINR, want)
	}
	if rate.SpotUSD != 2400.0 || rate.USDINR != 84.0 {
		t.Errorf("source rates not carried: %+v", rate)
	}
}

func TestGold_InvalidRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/spot/gold":
			json.NewEncoder(w).Encode(spotResponse{PriceUSD: 2400.0})
		case "/fx/usdinr":
			json.NewEncoder(w).Encode(fxResponse{Rate: 0})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	if _, err := c.Gold(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for zero fx rate, got %v", err)
	}
}

func TestGold_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/spot/gold":
			json.NewEncoder(w).Encode(spotResponse{PriceUSD: 2400.0})
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	if _, err := c.Gold(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable when one leg fails, got %v", err)
	}
}
