package asyncapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const documentURL = "asyncapi://document.json"

// ErrNoSchema is returned for an event type the document does not describe
var ErrNoSchema = errors.New("no schema for event type")

// EventValidator validates CloudEvents against AsyncAPI message payloads.
type EventValidator struct {
	schemas map[string]*jsonschema.Schema
}

// CloudEvent is the envelope shape the validator inspects.
type CloudEvent struct {
	SpecVersion string      `json:"specversion"`
	Type        string      `json:"type"`
	Source      string      `json:"source"`
	ID          string      `json:"id"`
	Data        interface{} `json:"data,omitempty"`
}

// Spec represents the parts of an AsyncAPI document the validator reads.
// Each component message names the CloudEvents type it carries and points
// at its payload schema.
type Spec struct {
	AsyncAPI   string     `yaml:"asyncapi"`
	Info       Info       `yaml:"info"`
	Components Components `yaml:"components"`
}

// Info contains the AsyncAPI info section.
type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Components contains reusable components.
type Components struct {
	Messages map[string]Message     `yaml:"messages"`
	Schemas  map[string]interface{} `yaml:"schemas"`
}

// Message is one component message.
type Message struct {
	Name    string            `yaml:"name"`
	Payload map[string]string `yaml:"payload"`
}

// NewEventValidatorFromBytes creates a new event validator from AsyncAPI specification bytes.
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var spec Spec
	if err := yaml.Unmarshal(specBytes, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}

	var raw interface{}
	if err := yaml.Unmarshal(specBytes, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}
	doc, err := toJSONDocument(raw)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(documentURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add AsyncAPI document: %w", err)
	}

	schemas := make(map[string]*jsonschema.Schema, len(spec.Components.Messages))
	for key, msg := range spec.Components.Messages {
		ref := msg.Payload["$ref"]
		if msg.Name == "" || !strings.HasPrefix(ref, "#/") {
			return nil, fmt.Errorf("message %s needs a name and a local payload $ref", key)
		}
		compiled, err := compiler.Compile(documentURL + ref)
		if err != nil {
			return nil, fmt.Errorf("failed to compile payload of %s: %w", key, err)
		}
		schemas[msg.Name] = compiled
	}

	return &EventValidator{schemas: schemas}, nil
}

// toJSONDocument round-trips a YAML value through JSON so the schema
// compiler sees JSON types
func toJSONDocument(v interface{}) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to convert AsyncAPI spec to JSON: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to convert AsyncAPI spec to JSON: %w", err)
	}
	return doc, nil
}

// ValidateEvent validates a CloudEvent envelope and its payload.
func (v *EventValidator) ValidateEvent(event CloudEvent) error {
	if event.SpecVersion != "1.0" {
		return fmt.Errorf("unsupported specversion %q", event.SpecVersion)
	}
	if event.ID == "" || event.Source == "" || event.Type == "" {
		return fmt.Errorf("event id, source and type are required")
	}

	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSchema, event.Type)
	}
	if event.Data == nil {
		return fmt.Errorf("event data is required")
	}

	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(dataJSON))
	if err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}

	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}

	return nil
}

// ValidateEventJSON validates a CloudEvent from JSON bytes.
func (v *EventValidator) ValidateEventJSON(eventJSON []byte) error {
	var event CloudEvent
	if err := json.Unmarshal(eventJSON, &event); err != nil {
		return fmt.Errorf("failed to parse CloudEvent: %w", err)
	}
	return v.ValidateEvent(event)
}

// SupportedEventTypes returns all event types that have registered schemas, sorted.
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for eventType := range v.schemas {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}

// HasSchema checks if a schema exists for the given event type.
func (v *EventValidator) HasSchema(eventType string) bool {
	_, ok := v.schemas[eventType]
	return ok
}
