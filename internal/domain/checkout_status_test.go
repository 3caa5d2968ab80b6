package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    CheckoutStatus
		to      CheckoutStatus
		allowed bool
	}{
		{"initializing to ready", CheckoutStatusInitializing, CheckoutStatusReady, true},
		{"initializing to failed", CheckoutStatusInitializing, CheckoutStatusFailed, true},
		{"ready to submitting", CheckoutStatusReady, CheckoutStatusSubmitting, true},
		{"submitting to succeeded", CheckoutStatusSubmitting, CheckoutStatusSucceeded, true},
		{"submitting to failed", CheckoutStatusSubmitting, CheckoutStatusFailed, true},
		{"failed allows resubmit", CheckoutStatusFailed, CheckoutStatusSubmitting, true},
		{"succeeded is terminal", CheckoutStatusSucceeded, CheckoutStatusSubmitting, false},
		{"ready cannot succeed directly", CheckoutStatusReady, CheckoutStatusSucceeded, false},
		{"empty goes nowhere", CheckoutStatusEmpty, CheckoutStatusInitializing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, CheckoutStatusSucceeded.IsTerminal())
	assert.True(t, CheckoutStatusEmpty.IsTerminal())
	assert.False(t, CheckoutStatusFailed.IsTerminal())
	assert.False(t, CheckoutStatusReady.IsTerminal())
}
