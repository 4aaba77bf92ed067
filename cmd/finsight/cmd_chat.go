// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Wire types mirror the server's /v1/chat contract.

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Lang    string `json:"lang,omitempty"`
}

type chatResponse struct {
	Reply        string   `json:"reply"`
	Intent       string   `json:"intent"`
	Confidence   int      `json:"confidence"`
	Symbols      []string `json:"symbols"`
	Sentiment    string   `json:"sentiment"`
	Language     string   `json:"language"`
	Suggestions  []string `json:"suggestions"`
	GuardBlocked bool     `json:"guard_blocked,omitempty"`
}

type historyMessage struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Intent    string    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type historyResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []historyMessage `json:"messages"`
}

// colorize wraps s in an ANSI color code when stdout is a terminal. Piped
// output stays clean.
func colorize(code, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func runAskCommand(_ *cobra.Command, args []string) {
	question := strings.Join(args, " ")
	resp, err := sendChat(question, userFlag)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	printReply(resp)
}

func runChatCommand(_ *cobra.Command, _ []string) {
	sessionID := userFlag
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	fmt.Println(colorize("1;36", "FinSight chat") + " — type a question, or 'exit' to quit.")
	fmt.Printf("Session: %s\n\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(colorize("1;32", "you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "q" {
			fmt.Println("Goodbye.")
			break
		}

		resp, err := sendChat(line, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		printReply(resp)
	}
}

func runHistoryCommand(_ *cobra.Command, args []string) {
	sessionID := args[0]
	url := fmt.Sprintf("%s/v1/chat/history/%s", getServerBaseURL(), sessionID)

	client := &http.Client{Timeout: 15 * time.Second}
	httpResp, err := client.Get(url)
	if err != nil {
		log.Fatalf("Error: server unavailable at %s: %v", getServerBaseURL(), err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		log.Fatalf("Error reading response: %v", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		log.Fatalf("Error: server returned status %d", httpResp.StatusCode)
	}

	var resp historyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}
	if len(resp.Messages) == 0 {
		fmt.Printf("No history for session %s.\n", sessionID)
		return
	}
	for _, msg := range resp.Messages {
		label := colorize("1;32", "you ")
		if msg.Role == "bot" {
			label = colorize("1;36", "bot ")
		}
		fmt.Printf("%s %s  %s\n", msg.Timestamp.Local().Format("15:04:05"), label, msg.Text)
	}
}

func sendChat(message, userID string) (*chatResponse, error) {
	payload := chatRequest{Message: message, UserID: userID, Lang: langFlag}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 60 * time.Second}
	httpResp, err := client.Post(getServerBaseURL()+"/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("server unavailable at %s: %w (start it with: go run ./cmd/chatbot)", getServerBaseURL(), err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func printReply(resp *chatResponse) {
	fmt.Printf("%s %s\n", colorize("1;36", "bot>"), resp.Reply)
	if len(resp.Suggestions) > 0 {
		for _, s := range resp.Suggestions {
			fmt.Printf("     %s %s\n", colorize("2", "tip:"), s)
		}
	}
	if resp.Intent != "" && resp.Intent != "unknown" {
		meta := fmt.Sprintf("[%s, confidence %d", resp.Intent, resp.Confidence)
		if len(resp.Symbols) > 0 {
			meta += ", " + strings.Join(resp.Symbols, " ")
		}
		meta += "]"
		fmt.Println("     " + colorize("2", meta))
	}
	fmt.Println()
}
