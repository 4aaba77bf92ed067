// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command finsight is the terminal client for the FinSight chat server.
//
// Usage:
//
//	finsight ask what is the price of TCS
//	finsight chat
//	finsight history <session-id>
//
// The server address defaults to http://localhost:8080 and can be overridden
// with FINSIGHT_SERVER_URL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverFlag and langFlag hold persistent flag values.
var (
	serverFlag string
	langFlag   string
	userFlag   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "finsight",
		Short: "Chat with the FinSight stock assistant",
		Long: "FinSight answers stock market questions in English, Tamil, and Tanglish:\n" +
			"price predictions, live quotes, comparisons, and market basics.",
	}
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server URL (default $FINSIGHT_SERVER_URL or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "Force response language: en or ta")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "Session/user id for chat history")

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and exit",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand,
	}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Run:   runChatCommand,
	}

	historyCmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "Show a session's chat history",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryCommand,
	}

	rootCmd.AddCommand(askCmd, chatCmd, historyCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getServerBaseURL resolves the server address: flag, then environment, then
// the local default.
func getServerBaseURL() string {
	if serverFlag != "" {
		return serverFlag
	}
	if url := os.Getenv("FINSIGHT_SERVER_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}
