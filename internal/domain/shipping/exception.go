package shipping

import (
	"strings"
	"time"
)

// ExceptionType classifies a tracking anomaly
type ExceptionType string

const (
	ExceptionReturnedToSender ExceptionType = "RETURNED_TO_SENDER"
	ExceptionDeliveryFailed   ExceptionType = "DELIVERY_FAILED"
	ExceptionAtRisk           ExceptionType = "AT_RISK"
	ExceptionLost             ExceptionType = "LOST"
	ExceptionDamaged          ExceptionType = "DAMAGED"
	ExceptionAddressIssue     ExceptionType = "ADDRESS_ISSUE"
	ExceptionWeatherDelay     ExceptionType = "WEATHER_DELAY"
	ExceptionCustomsDelay     ExceptionType = "CUSTOMS_DELAY"
	ExceptionOther            ExceptionType = "OTHER"
)

// atRiskAfter is how long a shipment may sit without updates while in
// transit before it is flagged
const atRiskAfter = 7 * 24 * time.Hour

// Exception describes an anomalous tracking condition requiring attention
type Exception struct {
	Type            ExceptionType `json:"type"`
	Message         string        `json:"message"`
	Timestamp       time.Time     `json:"timestamp"`
	RequiresAction  bool          `json:"requiresAction"`
	SuggestedAction string        `json:"suggestedAction"`
}

// classificationRule maps message keywords to an exception classification
// Rules are checked in order; the first match wins, so more specific
// conditions must come before broader ones
type classificationRule struct {
	keywords        []string
	excType         ExceptionType
	requiresAction  bool
	suggestedAction string
}

var classificationRules = []classificationRule{
	{
		keywords:        []string{"returned to sender", "return to sender"},
		excType:         ExceptionReturnedToSender,
		requiresAction:  true,
		suggestedAction: "Contact customer to confirm the address and arrange reshipment or refund",
	},
	{
		keywords:        []string{"delivery failed", "failed delivery", "delivery attempt failed", "unable to deliver"},
		excType:         ExceptionDeliveryFailed,
		requiresAction:  true,
		suggestedAction: "Ask customer to confirm availability or pick up at the carrier facility",
	},
	{
		keywords:        []string{"lost", "cannot locate"},
		excType:         ExceptionLost,
		requiresAction:  true,
		suggestedAction: "File a claim with the carrier and offer the customer a replacement",
	},
	{
		keywords:        []string{"damaged"},
		excType:         ExceptionDamaged,
		requiresAction:  true,
		suggestedAction: "File a damage claim and arrange a replacement shipment",
	},
	{
		keywords:        []string{"incorrect address", "invalid address", "address issue", "insufficient address", "undeliverable as addressed"},
		excType:         ExceptionAddressIssue,
		requiresAction:  true,
		suggestedAction: "Verify the shipping address with the customer",
	},
	{
		keywords:        []string{"weather", "natural disaster"},
		excType:         ExceptionWeatherDelay,
		requiresAction:  false,
		suggestedAction: "No action needed; the carrier will resume delivery when conditions allow",
	},
	{
		keywords:        []string{"customs", "clearance"},
		excType:         ExceptionCustomsDelay,
		requiresAction:  false,
		suggestedAction: "Monitor customs clearance; provide documentation if the carrier requests it",
	},
}

// DetectException inspects the latest tracking event against the keyword
// rules, then applies the staleness check. Returns nil when nothing
// matches, which is a legitimate non-error outcome
func DetectException(info *TrackingInfo) *Exception {
	return detectExceptionAt(info, time.Now())
}

func detectExceptionAt(info *TrackingInfo, now time.Time) *Exception {
	if info == nil {
		return nil
	}

	var message, status string
	ts := info.LastUpdate
	if ev := info.LatestEvent(); ev != nil {
		message = ev.Message
		status = ev.Status
		if !ev.Timestamp.IsZero() {
			ts = ev.Timestamp
		}
	}
	haystack := strings.ToLower(message + " " + status + " " + info.Status)

	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return &Exception{
					Type:            rule.excType,
					Message:         message,
					Timestamp:       ts,
					RequiresAction:  rule.requiresAction,
					SuggestedAction: rule.suggestedAction,
				}
			}
		}
	}

	// Stale in-transit shipments are at risk even without an exception event
	if info.Status == StatusInTransit && !info.LastUpdate.IsZero() && now.Sub(info.LastUpdate) > atRiskAfter {
		return &Exception{
			Type:            ExceptionAtRisk,
			Message:         "No tracking updates for more than 7 days while in transit",
			Timestamp:       info.LastUpdate,
			RequiresAction:  false,
			SuggestedAction: "Check with the carrier; prepare a replacement if the shipment is lost",
		}
	}

	// Carrier flagged an exception but no rule matched the message
	if info.Status == StatusException {
		return &Exception{
			Type:            ExceptionOther,
			Message:         message,
			Timestamp:       ts,
			RequiresAction:  false,
			SuggestedAction: "Review the carrier tracking page for details",
		}
	}

	return nil
}
