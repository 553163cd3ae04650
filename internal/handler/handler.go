// Package handler provides HTTP request handlers for the REST API.
package handler

import "github.com/vyrodovalexey/articulos-api/internal/model"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}

// Publisher receives item changes after they have been stored.
type Publisher interface {
	Publish(event model.ItemEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(model.ItemEvent) {}
