package cloudevents

// CloudEvents extension attribute names for simulation context
const (
	ExtRunID         = "wmsrunid"
	ExtWarehouse     = "wmswarehouse"
	ExtCorrelationID = "wmscorrelationid"
	ExtWorkflowID    = "wmsworkflowid"
)

// HTTP and message header names for simulation context
const (
	HeaderRunID     = "X-WMS-Run-ID"
	HeaderWarehouse = "X-WMS-Warehouse"
)

// WithRun sets the run and warehouse extensions and returns the event
func (e *WMSCloudEvent) WithRun(runID string, warehouse int) *WMSCloudEvent {
	e.RunID = runID
	e.Warehouse = &warehouse
	return e
}

// HasRunContext returns true if the event carries a run id and warehouse
func (e *WMSCloudEvent) HasRunContext() bool {
	return e.RunID != "" && e.Warehouse != nil
}

// ExtensionAttributes returns the set extension attributes by CloudEvents name
func (e *WMSCloudEvent) ExtensionAttributes() map[string]interface{} {
	attrs := make(map[string]interface{}, len(e.Extensions)+4)
	for k, v := range e.Extensions {
		attrs[k] = v
	}
	if e.RunID != "" {
		attrs[ExtRunID] = e.RunID
	}
	if e.Warehouse != nil {
		attrs[ExtWarehouse] = *e.Warehouse
	}
	if e.CorrelationID != "" {
		attrs[ExtCorrelationID] = e.CorrelationID
	}
	if e.WorkflowID != "" {
		attrs[ExtWorkflowID] = e.WorkflowID
	}
	return attrs
}
