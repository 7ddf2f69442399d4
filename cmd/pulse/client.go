// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/AleutianAI/ParkPulse/services/datatypes"
	"github.com/AleutianAI/ParkPulse/services/parks"
	"github.com/AleutianAI/ParkPulse/services/waits"
)

type chatRequest struct {
	Messages    []datatypes.Message `json:"messages"`
	ForceSearch bool                `json:"force_search"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	RequestID string `json:"request_id"`
}

type waitsResponse struct {
	Results []waits.RideWait `json:"results"`
}

// getServerBaseURL resolves the ParkPulse server address from the
// environment, defaulting to localhost.
func getServerBaseURL() string {
	if base := os.Getenv("PARKPULSE_URL"); base != "" {
		return base
	}
	return "http://localhost:8080"
}

func sendChatRequest(question string, force bool) (chatResponse, error) {
	var chatResp chatResponse

	postBody, err := json.Marshal(chatRequest{
		Messages:    []datatypes.Message{{Role: "user", Content: question}},
		ForceSearch: force,
	})
	if err != nil {
		return chatResp, fmt.Errorf("failed to create request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, getServerBaseURL()+"/v1/chat", bytes.NewBuffer(postBody))
	if err != nil {
		return chatResp, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := os.Getenv("PARKPULSE_API_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 3 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return chatResp, fmt.Errorf("failed to reach the ParkPulse server: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return chatResp, fmt.Errorf("failed to read server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return chatResp, fmt.Errorf("server returned an error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return chatResp, fmt.Errorf("failed to parse server response: %w", err)
	}
	return chatResp, nil
}

func fetchWaits(query string) ([]waits.RideWait, error) {
	reqURL := getServerBaseURL() + "/v1/waits?query=" + url.QueryEscape(query)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the ParkPulse server: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned an error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var waitsResp waitsResponse
	if err := json.Unmarshal(bodyBytes, &waitsResp); err != nil {
		return nil, fmt.Errorf("failed to parse server response: %w", err)
	}
	return waitsResp.Results, nil
}

func fetchParks() ([]parks.Resort, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(getServerBaseURL() + "/v1/parks")
	if err != nil {
		return nil, fmt.Errorf("failed to reach the ParkPulse server: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned an error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var resorts []parks.Resort
	if err := json.Unmarshal(bodyBytes, &resorts); err != nil {
		return nil, fmt.Errorf("failed to parse server response: %w", err)
	}
	return resorts, nil
}
