// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Unit tests that don't require a running server.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetServerBaseURL(t *testing.T) {
	serverFlag = ""
	t.Setenv("FINSIGHT_SERVER_URL", "")
	if got := getServerBaseURL(); got != "http://localhost:8080" {
		t.Errorf("default server URL = %q", got)
	}

	t.Setenv("FINSIGHT_SERVER_URL", "http://finsight:9090")
	if got := getServerBaseURL(); got != "http://finsight:9090" {
		t.Errorf("env server URL = %q", got)
	}

	serverFlag = "http://flagged:7070"
	defer func() { serverFlag = "" }()
	if got := getServerBaseURL(); got != "http://flagged:7070" {
		t.Errorf("flag should win over env, got %q", got)
	}
}

func TestSendChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Message != "predict AAPL" {
			t.Errorf("message = %q", req.Message)
		}
		json.NewEncoder(w).Encode(chatResponse{Reply: "AAPL looks up.", Intent: "predict", Symbols: []string{"AAPL"}})
	}))
	defer srv.Close()

	serverFlag = srv.URL
	defer func() { serverFlag = "" }()

	resp, err := sendChat("predict AAPL", "u1")
	if err != nil {
		t.Fatalf("sendChat: %v", err)
	}
	if resp.Intent != "predict" || resp.Reply == "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSendChat_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"message is required","code":"MISSING_MESSAGE"}`))
	}))
	defer srv.Close()

	serverFlag = srv.URL
	defer func() { serverFlag = "" }()

	if _, err := sendChat("", "u1"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
