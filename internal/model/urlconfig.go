// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// ScrapeStatus is the processing state of a URL configuration.
type ScrapeStatus string

const (
	StatusPending    ScrapeStatus = "pending"
	StatusProcessing ScrapeStatus = "processing"
	StatusCompleted  ScrapeStatus = "completed"
	StatusFailed     ScrapeStatus = "failed"
)

// Label returns the badge text for the status.
func (s ScrapeStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusProcessing:
		return "Processing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// URLConfig is a site registered for scraping into the knowledge base.
type URLConfig struct {
	ID           int64        `json:"id"`
	URL          string       `json:"url"`
	Status       ScrapeStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// CanScrape reports whether a scrape may be started for the config.
func (c URLConfig) CanScrape() bool {
	return c.Status != StatusProcessing && c.Status != StatusCompleted
}

// ConfigPage is one page of URL configurations.
type ConfigPage struct {
	Items    []URLConfig `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
