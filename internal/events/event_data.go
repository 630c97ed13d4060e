package events

import (
	"encoding/json"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// ExecutionStartedData contains data for ExecutionStarted events
type ExecutionStartedData struct {
	ExecutionID string `json:"execution_id"`
	PortfolioID int64  `json:"portfolio_id"`
	Legs        int    `json:"legs"`
}

// EventType returns the event type for ExecutionStartedData
func (d *ExecutionStartedData) EventType() EventType {
	return ExecutionStarted
}

// TradeExecutedData contains data for TradeExecuted events
type TradeExecutedData struct {
	ExecutionID string  `json:"execution_id"`
	PortfolioID int64   `json:"portfolio_id"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	Amount      float64 `json:"amount"`
	Closed      bool    `json:"closed,omitempty"`
}

// EventType returns the event type for TradeExecutedData
func (d *TradeExecutedData) EventType() EventType {
	return TradeExecuted
}

// ExecutionFinishedData contains data for ExecutionFinished events
type ExecutionFinishedData struct {
	ExecutionID      string  `json:"execution_id"`
	PortfolioID      int64   `json:"portfolio_id"`
	Complete         bool    `json:"complete"`
	Legs             int     `json:"legs"`
	RemainingCapital float64 `json:"remaining_capital"`
	Error            string  `json:"error,omitempty"`
}

// EventType returns the event type for ExecutionFinishedData
func (d *ExecutionFinishedData) EventType() EventType {
	return ExecutionFinished
}

// UnmarshalJSON decodes Data into the concrete type for the event's Type
func (e *Event) UnmarshalJSON(data []byte) error {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Data) == 0 || string(aux.Data) == "null" {
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case ExecutionStarted:
		eventData = &ExecutionStartedData{}
	case TradeExecuted:
		eventData = &TradeExecutedData{}
	case ExecutionFinished:
		eventData = &ExecutionFinishedData{}
	default:
		generic := &GenericEventData{Type: aux.Type}
		if err := json.Unmarshal(aux.Data, &generic.Data); err != nil {
			return err
		}
		e.Data = generic
		return nil
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}
