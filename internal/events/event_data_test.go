package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeExecutedData(t *testing.T) {
	data := TradeExecutedData{
		ExecutionID: "exec-1",
		PortfolioID: 7,
		Symbol:      "AAPL",
		Side:        "SELL",
		Quantity:    10,
		Price:       150,
		Amount:      1500,
	}

	jsonData, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"symbol":"AAPL"`)
	assert.NotContains(t, string(jsonData), "closed")

	var unmarshaled TradeExecutedData
	require.NoError(t, json.Unmarshal(jsonData, &unmarshaled))
	assert.Equal(t, data, unmarshaled)
}

func TestEvent_RoundTripKeepsConcreteData(t *testing.T) {
	event := Event{
		Type:      ExecutionFinished,
		Timestamp: time.Date(2026, 10, 16, 15, 30, 0, 0, time.UTC),
		Module:    "trading",
		Data: &ExecutionFinishedData{
			ExecutionID:      "exec-1",
			PortfolioID:      1,
			Complete:         false,
			Legs:             2,
			RemainingCapital: 50,
			Error:            "insufficient funds",
		},
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, ExecutionFinished, decoded.Type)
	assert.True(t, event.Timestamp.Equal(decoded.Timestamp))

	data, ok := decoded.Data.(*ExecutionFinishedData)
	require.True(t, ok)
	assert.Equal(t, "insufficient funds", data.Error)
	assert.Equal(t, 2, data.Legs)
}

func TestEvent_UnknownTypeIsGeneric(t *testing.T) {
	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(`{"type":"SOMETHING","module":"x","data":{"a":1}}`), &decoded))

	generic, ok := decoded.Data.(*GenericEventData)
	require.True(t, ok)
	assert.Equal(t, EventType("SOMETHING"), generic.EventType())
	assert.Equal(t, float64(1), generic.Data["a"])
}

func TestEventDataInterface(t *testing.T) {
	var _ EventData = &ExecutionStartedData{}
	var _ EventData = &TradeExecutedData{}
	var _ EventData = &ExecutionFinishedData{}

	assert.Equal(t, ExecutionStarted, (&ExecutionStartedData{}).EventType())
	assert.Equal(t, TradeExecuted, (&TradeExecutedData{}).EventType())
	assert.Equal(t, ExecutionFinished, (&ExecutionFinishedData{}).EventType())
}
