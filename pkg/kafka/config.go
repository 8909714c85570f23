package kafka

import (
	"strings"
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers  []string
	ClientID string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		ClientID:     "fulfillment-simulator",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: -1,
	}
}

// ParseBrokers splits a comma separated broker list, dropping blanks
func ParseBrokers(list string) []string {
	var brokers []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Topics contains the simulator's Kafka topic names
var Topics = struct {
	SimulationEvents string
	InventoryEvents  string
	ShippingEvents   string
}{
	SimulationEvents: "wms.simulation.events",
	InventoryEvents:  "wms.inventory.events",
	ShippingEvents:   "wms.shipping.events",
}

// TopicFor routes an event type to its topic by the type's domain prefix.
// Unrecognised types go to the simulation topic.
func TopicFor(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "wms.inventory."):
		return Topics.InventoryEvents
	case strings.HasPrefix(eventType, "wms.shipping."):
		return Topics.ShippingEvents
	default:
		return Topics.SimulationEvents
	}
}
