// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rln-tomas/chatbot-rag-front/internal/model"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 50
)

type configPayload struct {
	ID           flexID   `json:"id"`
	URL          string   `json:"url"`
	Status       string   `json:"status"`
	CreatedAt    flexTime `json:"created_at"`
	ErrorMessage string   `json:"error_message"`
}

func (p configPayload) toModel() model.URLConfig {
	return model.URLConfig{
		ID:           int64(p.ID),
		URL:          p.URL,
		Status:       model.ScrapeStatus(p.Status),
		CreatedAt:    p.CreatedAt.Time(),
		ErrorMessage: p.ErrorMessage,
	}
}

// ListConfigs returns one page of URL configurations. Non-positive arguments
// fall back to DefaultPage and DefaultPageSize.
func (c *Client) ListConfigs(ctx context.Context, page, pageSize int) (model.ConfigPage, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out struct {
		Items    []configPayload `json:"items"`
		Total    int             `json:"total"`
		Page     int             `json:"page"`
		PageSize int             `json:"page_size"`
	}
	if err := c.doJSON(ctx, "list configs", http.MethodGet, "/api/v1/configs?"+q.Encode(), nil, &out); err != nil {
		return model.ConfigPage{}, err
	}

	res := model.ConfigPage{Total: out.Total, Page: out.Page, PageSize: out.PageSize}
	if res.Page == 0 {
		res.Page = page
	}
	if res.PageSize == 0 {
		res.PageSize = pageSize
	}
	for _, p := range out.Items {
		res.Items = append(res.Items, p.toModel())
	}
	if res.Total == 0 {
		res.Total = len(res.Items)
	}
	return res, nil
}

// CreateURLConfig registers a URL for scraping.
func (c *Client) CreateURLConfig(ctx context.Context, rawURL string) (model.URLConfig, error) {
	in := struct {
		URL string `json:"url"`
	}{rawURL}
	var out configPayload
	if err := c.doJSON(ctx, "create config", http.MethodPost, "/api/v1/configs", in, &out); err != nil {
		return model.URLConfig{}, err
	}
	cfg := out.toModel()
	if cfg.URL == "" {
		cfg.URL = rawURL
	}
	if cfg.Status == "" {
		cfg.Status = model.StatusPending
	}
	return cfg, nil
}

// StartScraping starts a scrape of the given configuration and returns the
// task id assigned by the server.
func (c *Client) StartScraping(ctx context.Context, configID int64) (string, error) {
	in := struct {
		ConfigID int64 `json:"config_id"`
	}{configID}
	var out struct {
		TaskID any `json:"task_id"`
		ID     any `json:"id"`
	}
	if err := c.doJSON(ctx, "start scraping", http.MethodPost, "/api/v1/scraping/start", in, &out); err != nil {
		return "", err
	}
	if id := taskID(out.TaskID); id != "" {
		return id, nil
	}
	return taskID(out.ID), nil
}

func taskID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
