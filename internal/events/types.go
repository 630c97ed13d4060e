// Package events carries execution progress from the trading engine to
// stream subscribers.
package events

import "time"

// EventType names an event
type EventType string

const (
	ExecutionStarted  EventType = "EXECUTION_STARTED"
	TradeExecuted     EventType = "TRADE_EXECUTED"
	ExecutionFinished EventType = "EXECUTION_FINISHED"
)

// AllTypes lists every event type the bus carries
var AllTypes = []EventType{ExecutionStarted, TradeExecuted, ExecutionFinished}

// Event is one published occurrence
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}
