package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := Errorf(KindInsufficientFunds, nil, "need %.2f, have %.2f", 100.0, 50.0)

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.False(t, errors.Is(err, ErrInsufficientQuantity))
	assert.Equal(t, "need 100.00, have 50.00", err.Error())
}

func TestError_WrappedKeepsKind(t *testing.T) {
	inner := Errorf(KindNoPriceFound, nil, "no price for AAPL")
	outer := fmt.Errorf("failed to compute summary: %w", inner)

	assert.True(t, errors.Is(outer, ErrNoPriceFound))
	assert.Equal(t, KindNoPriceFound, KindOf(outer))
}

func TestError_CausePreserved(t *testing.T) {
	cause := errors.New("connection refused")
	err := Errorf(KindDataUnavailable, cause, "quote unavailable for %s", "IBM")

	assert.Equal(t, "quote unavailable for IBM: connection refused", err.Error())
	assert.Equal(t, "connection refused", RootCause(err))
	assert.True(t, errors.Is(err, cause))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestRootCause_Nil(t *testing.T) {
	assert.Equal(t, "", RootCause(nil))
}
