// Package api holds the contract documents of the simulator's HTTP and event
// surfaces.
package api

import _ "embed"

// OpenAPI is the OpenAPI document of the session API
//
//go:embed openapi.yaml
var OpenAPI []byte

// AsyncAPI is the AsyncAPI document of the published CloudEvents
//
//go:embed asyncapi.yaml
var AsyncAPI []byte
