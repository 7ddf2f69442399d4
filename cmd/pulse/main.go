// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command pulse is the terminal client for a running ParkPulse server.
//
// Usage:
//
//	pulse ask "how long is the wait for Space Mountain?"
//	pulse ask --force-search "what are epcot's hours today?"
//	pulse waits "space mountain at magic kingdom"
//	pulse parks
//
// The server address comes from PARKPULSE_URL (default
// http://localhost:8080); PARKPULSE_API_TOKEN supplies the bearer token
// for the chat endpoint.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var forceSearch bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Terminal client for the ParkPulse server",
	}

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the concierge a question",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand,
	}
	askCmd.Flags().BoolVar(&forceSearch, "force-search", false, "Force a web search even without recency keywords")

	waitsCmd := &cobra.Command{
		Use:   "waits [query]",
		Short: "Look up current ride wait times",
		Args:  cobra.MinimumNArgs(1),
		Run:   runWaitsCommand,
	}

	parksCmd := &cobra.Command{
		Use:   "parks",
		Short: "List known resorts and parks",
		Args:  cobra.NoArgs,
		Run:   runParksCommand,
	}

	rootCmd.AddCommand(askCmd, waitsCmd, parksCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAskCommand(_ *cobra.Command, args []string) {
	question := strings.Join(args, " ")
	fmt.Printf("Asking: %s\n", question)
	fmt.Println("---")

	resp, err := sendChatRequest(question, forceSearch)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("\n%s\n", resp.Reply)
}

func runWaitsCommand(_ *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	results, err := fetchWaits(query)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if len(results) == 0 {
		fmt.Println("No matching rides found.")
		return
	}

	for _, rw := range results {
		wait := "wait unknown"
		if rw.WaitMinutes != nil {
			wait = fmt.Sprintf("%d min", *rw.WaitMinutes)
		}
		status := ""
		if rw.IsOpen != nil && !*rw.IsOpen {
			status = " (closed)"
		}
		fmt.Printf("%s — %s: %s%s\n", rw.ParkName, rw.RideName, wait, status)
	}
}

func runParksCommand(_ *cobra.Command, _ []string) {
	resorts, err := fetchParks()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	for _, resort := range resorts {
		fmt.Printf("%s\n", resort.Name)
		for _, park := range resort.Parks {
			fmt.Printf("  %4d  %s\n", park.ID, park.Name)
		}
	}
}
