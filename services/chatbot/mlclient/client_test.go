// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mlclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPredict_Defaults(t *testing.T) {
	var gotReq PredictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(PredictResponse{
			Ticker:         gotReq.Ticker,
			Algorithm:      "lstm",
			CurrentPrice:   182.5,
			PredictedPrice: 187.2,
			ChangePercent:  2.57,
			Currency:       "USD",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	resp, err := c.Predict(context.Background(), PredictRequest{Ticker: "AAPL"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if gotReq.Algorithm != DefaultAlgorithm {
		t.Errorf("algorithm defaulted to %q, want %q", gotReq.Algorithm, DefaultAlgorithm)
	}
	if gotReq.InputDays != 60 {
		t.Errorf("input_days defaulted to %d, want 60", gotReq.InputDays)
	}
	if resp.PredictedPrice != 187.2 {
		t.Errorf("predicted price = %v", resp.PredictedPrice)
	}
}

func TestPredict_ExplicitAlgorithm(t *testing.T) {
	var gotReq PredictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(PredictResponse{Ticker: gotReq.Ticker})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Predict(context.Background(), PredictRequest{Ticker: "TCS.NS", Algorithm: "arima", InputDays: 90})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if gotReq.Algorithm != "arima" || gotReq.InputDays != 90 {
		t.Errorf("request overrides lost: %+v", gotReq)
	}
}

func TestPredict_ServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Predict(context.Background(), PredictRequest{Ticker: "AAPL"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPredict_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"model not trained"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Predict(context.Background(), PredictRequest{Ticker: "AAPL"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTrain_DefaultAlgorithms(t *testing.T) {
	var gotReq TrainRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/train" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(TrainResponse{JobID: "job-1", Status: "queued", Tickers: gotReq.Tickers})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	resp, err := c.Train(context.Background(), TrainRequest{Tickers: []string{"INFY.NS"}})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(gotReq.Algorithms) != 1 || gotReq.Algorithms[0] != DefaultAlgorithm {
		t.Errorf("algorithms defaulted to %v", gotReq.Algorithms)
	}
	if resp.Status != "queued" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestHistory_PathAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/history/RELIANCE.NS" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]HistoryPoint{
			{Date: "2026-08-26", Close: 2950.1},
			{Date: "2026-08-27", Close: 2961.4},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	points, err := c.History(context.Background(), "RELIANCE.NS")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(points) != 2 || points[1].Close != 2961.4 {
		t.Errorf("unexpected history %+v", points)
	}
}

func TestInvestmentAdvice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/investment-advice/TSLA" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Advice{Ticker: "TSLA", Recommendation: "hold", ChangePercent: 1.2})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	advice, err := c.InvestmentAdvice(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("InvestmentAdvice: %v", err)
	}
	if advice.Recommendation != "hold" {
		t.Errorf("recommendation = %q", advice.Recommendation)
	}
}
