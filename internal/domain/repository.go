package domain

import (
	"context"
	"time"
)

// RunStats counts what happened while a script ran against one warehouse
type RunStats struct {
	EventsApplied     int `json:"eventsApplied" bson:"eventsApplied"`
	EventsRefused     int `json:"eventsRefused" bson:"eventsRefused"`
	EventsUnavailable int `json:"eventsUnavailable" bson:"eventsUnavailable"`
	MalformedLines    int `json:"malformedLines" bson:"malformedLines"`
	OrdersAccepted    int `json:"ordersAccepted" bson:"ordersAccepted"`
	PickRequests      int `json:"pickRequests" bson:"pickRequests"`
	PalletsLoaded     int `json:"palletsLoaded" bson:"palletsLoaded"`
	LowStockAlerts    int `json:"lowStockAlerts" bson:"lowStockAlerts"`
	Replenishments    int `json:"replenishments" bson:"replenishments"`
}

// RunResult is the archived outcome of one warehouse in one run
type RunResult struct {
	RunID          string    `json:"runId" bson:"runId"`
	Warehouse      int       `json:"warehouse" bson:"warehouse"`
	FinalInventory []string  `json:"finalInventory" bson:"finalInventory"`
	OrderManifest  []string  `json:"orderManifest" bson:"orderManifest"`
	Stats          RunStats  `json:"stats" bson:"stats"`
	CompletedAt    time.Time `json:"completedAt" bson:"completedAt"`
}

// RunRepository archives run results. Saving the same run and warehouse
// twice replaces the earlier result.
type RunRepository interface {
	Save(ctx context.Context, result *RunResult) error
	FindByRunID(ctx context.Context, runID string) ([]*RunResult, error)
	FindOne(ctx context.Context, runID string, warehouse int) (*RunResult, error)
}
