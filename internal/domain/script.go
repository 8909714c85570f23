package domain

import (
	"fmt"
	"strings"

	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
)

// EventKind identifies one line of an event script
type EventKind string

const (
	EventOrder     EventKind = "order"
	EventReady     EventKind = "ready"
	EventScan      EventKind = "scan"
	EventRescan    EventKind = "rescan"
	EventComplete  EventKind = "complete"
	EventDiscard   EventKind = "discard"
	EventReplenish EventKind = "replenish"
)

// script verbs
var verbs = map[string]EventKind{
	"ready":     EventReady,
	"scans":     EventScan,
	"rescans":   EventRescan,
	"completes": EventComplete,
	"discards":  EventDiscard,
	"replenish": EventReplenish,
}

// Event is one parsed script line
type Event struct {
	Kind     EventKind       `json:"kind"`
	Station  StationKind     `json:"station,omitempty"`
	Worker   string          `json:"worker,omitempty"`
	Model    string          `json:"model,omitempty"`
	Colour   string          `json:"colour,omitempty"`
	SKU      string          `json:"sku,omitempty"`
	Location shared.Location `json:"location,omitzero"`
	Line     string          `json:"line,omitempty"`
}

// ParseEvent parses one whitespace-delimited script line:
//
//	Order <model> <colour>
//	<Picker|Sequencer|Loader> <name> ready|scans <sku>|rescans|completes|discards
//	Replenisher <name> ready|replenish <zone> <aisle> <rack> <level>
func ParseEvent(line string) (Event, error) {
	fields := strings.Fields(line)
	ev := Event{Line: strings.TrimSpace(line)}
	if len(fields) == 0 {
		return ev, fmt.Errorf("%w: empty line", ErrMalformedEvent)
	}

	if fields[0] == "Order" {
		if len(fields) != 3 {
			return ev, fmt.Errorf("%w: order needs a model and a colour: %q", ErrMalformedEvent, ev.Line)
		}
		ev.Kind = EventOrder
		ev.Model = fields[1]
		ev.Colour = fields[2]
		return ev, nil
	}

	station, err := ParseStationKind(fields[0])
	if err != nil {
		return ev, fmt.Errorf("%w: unknown event %q", ErrMalformedEvent, fields[0])
	}
	if len(fields) < 3 {
		return ev, fmt.Errorf("%w: %s event needs a worker and a verb: %q", ErrMalformedEvent, station, ev.Line)
	}
	kind, ok := verbs[fields[2]]
	if !ok {
		return ev, fmt.Errorf("%w: unknown verb %q", ErrMalformedEvent, fields[2])
	}
	ev.Station = station
	ev.Worker = fields[1]
	ev.Kind = kind
	args := fields[3:]

	// replenishers only get ready and replenish; the others never replenish
	if kind == EventReplenish && station != StationReplenisher {
		return ev, fmt.Errorf("%w: %s cannot %s", ErrMalformedEvent, station, fields[2])
	}
	if station == StationReplenisher && kind != EventReady && kind != EventReplenish {
		return ev, fmt.Errorf("%w: %s cannot %s", ErrMalformedEvent, station, fields[2])
	}

	switch kind {
	case EventScan:
		if len(args) != 1 {
			return ev, fmt.Errorf("%w: scan needs one sku: %q", ErrMalformedEvent, ev.Line)
		}
		ev.SKU = args[0]
	case EventReplenish:
		loc, err := shared.ParseLocation(args...)
		if err != nil {
			return ev, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		ev.Location = loc
	default:
		if len(args) != 0 {
			return ev, fmt.Errorf("%w: unexpected arguments: %q", ErrMalformedEvent, ev.Line)
		}
	}
	return ev, nil
}

// String renders the event back into script form
func (e Event) String() string {
	switch e.Kind {
	case EventOrder:
		return "Order " + e.Model + " " + e.Colour
	case EventScan:
		return fmt.Sprintf("%s %s scans %s", e.Station, e.Worker, e.SKU)
	case EventReplenish:
		return fmt.Sprintf("%s %s replenish %s", e.Station, e.Worker, e.Location)
	}
	for verb, kind := range verbs {
		if kind == e.Kind {
			return fmt.Sprintf("%s %s %s", e.Station, e.Worker, verb)
		}
	}
	return e.Line
}
