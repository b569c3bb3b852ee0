package shipping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackingWithEvent(status, message string, at time.Time) *TrackingInfo {
	return &TrackingInfo{
		TrackingNumber: "1Z999",
		Provider:       ProviderUPS,
		Status:         status,
		LastUpdate:     at,
		Events: []TrackingEvent{
			{Timestamp: at, Status: status, Message: message},
		},
	}
}

func TestDetectException_ReturnedToSender(t *testing.T) {
	now := time.Now()
	info := trackingWithEvent(StatusException, "Package is being returned to sender", now)

	exc := detectExceptionAt(info, now)

	require.NotNil(t, exc)
	assert.Equal(t, ExceptionReturnedToSender, exc.Type)
	assert.True(t, exc.RequiresAction)
	assert.NotEmpty(t, exc.SuggestedAction)
}

func TestDetectException_KeywordClassification(t *testing.T) {
	now := time.Now()

	tests := []struct {
		message        string
		wantType       ExceptionType
		requiresAction bool
	}{
		{"Delivery attempt failed, no one home", ExceptionDeliveryFailed, true},
		{"Carrier cannot locate the package", ExceptionLost, true},
		{"Package arrived damaged", ExceptionDamaged, true},
		{"Undeliverable as addressed", ExceptionAddressIssue, true},
		{"Delay due to severe weather", ExceptionWeatherDelay, false},
		{"Held for customs clearance", ExceptionCustomsDelay, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantType), func(t *testing.T) {
			info := trackingWithEvent(StatusException, tt.message, now)
			exc := detectExceptionAt(info, now)
			require.NotNil(t, exc)
			assert.Equal(t, tt.wantType, exc.Type)
			assert.Equal(t, tt.requiresAction, exc.RequiresAction)
		})
	}
}

func TestDetectException_StaleInTransitIsAtRisk(t *testing.T) {
	now := time.Now()
	info := trackingWithEvent(StatusInTransit, "Departed facility", now.Add(-10*24*time.Hour))

	exc := detectExceptionAt(info, now)

	require.NotNil(t, exc)
	assert.Equal(t, ExceptionAtRisk, exc.Type)
	assert.False(t, exc.RequiresAction)
}

func TestDetectException_RecentInTransitIsClean(t *testing.T) {
	now := time.Now()
	info := trackingWithEvent(StatusInTransit, "Departed facility", now.Add(-2*24*time.Hour))

	assert.Nil(t, detectExceptionAt(info, now))
}

func TestDetectException_DeliveredIsClean(t *testing.T) {
	now := time.Now()
	info := trackingWithEvent(StatusDelivered, "Delivered to front door", now)

	assert.Nil(t, detectExceptionAt(info, now))
}

func TestDetectException_UnmatchedCarrierExceptionIsOther(t *testing.T) {
	now := time.Now()
	info := trackingWithEvent(StatusException, "Unspecified handling event", now)

	exc := detectExceptionAt(info, now)

	require.NotNil(t, exc)
	assert.Equal(t, ExceptionOther, exc.Type)
	assert.False(t, exc.RequiresAction)
}

func TestDetectException_NilAndEmptyInput(t *testing.T) {
	assert.Nil(t, detectExceptionAt(nil, time.Now()))

	empty := &TrackingInfo{Status: StatusPreTransit}
	assert.Nil(t, detectExceptionAt(empty, time.Now()))
}

func TestDetectException_KeywordBeatsStaleness(t *testing.T) {
	// A stale shipment with a returned-to-sender event classifies by the
	// keyword rule, not as AT_RISK
	now := time.Now()
	info := trackingWithEvent(StatusInTransit, "Return to sender initiated", now.Add(-10*24*time.Hour))

	exc := detectExceptionAt(info, now)

	require.NotNil(t, exc)
	assert.Equal(t, ExceptionReturnedToSender, exc.Type)
}
