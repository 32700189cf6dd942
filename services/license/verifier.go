package license

import (
	"fmt"
	"time"

	"commercehub-adminpanel/pkg/domainutil"
	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/services/tenant"
)

// Outcome is the terminal result of the verification pipeline. Err carries
// the transport semantics; MarkExpired asks the caller to persist the
// subscription flip discovered in the expiry step.
type Outcome struct {
	Valid       bool
	Status      VerificationStatus
	Message     string
	Err         error
	MarkExpired bool
	Client      *ClientInfo
}

// Invalid builds the outcome for a license key that matched no client.
func Invalid() Outcome {
	msg := "Invalid license key"
	return Outcome{
		Status:  VerificationInvalid,
		Message: msg,
		Err:     errutil.Unauthorized(msg),
	}
}

// Evaluate runs the decision pipeline against a known client record. Each
// step either returns a terminal outcome or falls through to the next one.
// It performs no I/O; the caller applies MarkExpired and the success touch.
func Evaluate(record *tenant.Tenant, requestedDomain string, now time.Time) Outcome {
	// account gate
	if record.Status != tenant.StatusActive {
		msg := fmt.Sprintf("License is %s", record.Status)
		return Outcome{
			Status:  VerificationSuspended,
			Message: msg,
			Err:     errutil.Forbidden(msg),
		}
	}

	// domain binding, exact canonical match only
	expected := domainutil.ExtractDomain(record.WebsiteDomain)
	received := domainutil.ExtractDomain(requestedDomain)
	if expected != received {
		msg := fmt.Sprintf("License is registered to domain %q, received %q", expected, received)
		return Outcome{
			Status:  VerificationInvalid,
			Message: msg,
			Err:     errutil.Forbidden(msg),
		}
	}

	// subscription gate
	if record.SubscriptionStatus != tenant.SubscriptionActive {
		msg := fmt.Sprintf("Subscription is %s", record.SubscriptionStatus)
		return Outcome{
			Status:  VerificationExpired,
			Message: msg,
			Err:     errutil.PaymentRequired(msg),
		}
	}

	// expiry check; a null end date means lifetime, no expiry
	if record.SubscriptionEndDate != nil && record.SubscriptionEndDate.Before(now) {
		msg := "Subscription has expired"
		return Outcome{
			Status:      VerificationExpired,
			Message:     msg,
			Err:         errutil.PaymentRequired(msg),
			MarkExpired: true,
		}
	}

	return Outcome{
		Valid:  true,
		Status: VerificationValid,
		Client: &ClientInfo{
			ID:                  record.ID,
			CompanyName:         record.CompanyName,
			SubscriptionType:    record.SubscriptionType.String(),
			SubscriptionEndDate: record.SubscriptionEndDate,
		},
	}
}
