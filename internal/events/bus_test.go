package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var received []*Event
	unsubscribe := bus.Subscribe(TradeExecuted, func(e *Event) {
		received = append(received, e)
	})
	bus.Subscribe(ExecutionStarted, func(e *Event) {
		t.Fatalf("unexpected %s", e.Type)
	})

	bus.Publish("trading", &TradeExecutedData{Symbol: "AAPL"})
	require.Len(t, received, 1)
	assert.Equal(t, TradeExecuted, received[0].Type)
	assert.Equal(t, "trading", received[0].Module)
	assert.Equal(t, "AAPL", received[0].Data.(*TradeExecutedData).Symbol)
	assert.False(t, received[0].Timestamp.IsZero())

	unsubscribe()
	assert.Equal(t, 0, bus.Subscribers(TradeExecuted))

	bus.Publish("trading", &TradeExecutedData{Symbol: "MSFT"})
	assert.Len(t, received, 1)
}
