package license

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/services/tenant"

	"github.com/stretchr/testify/require"
)

func activeTenant(endDate *time.Time) *tenant.Tenant {
	return &tenant.Tenant{
		ID:                  "1001",
		CompanyName:         "Acme Store",
		WebsiteDomain:       "shop.example.com",
		Status:              tenant.StatusActive,
		SubscriptionType:    tenant.SubscriptionYearly,
		SubscriptionStatus:  tenant.SubscriptionActive,
		SubscriptionEndDate: endDate,
	}
}

func httpStatusOf(t *testing.T, err error) int {
	t.Helper()
	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	return base.Code.HTTPStatus()
}

func TestEvaluateValid(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)
	outcome := Evaluate(activeTenant(&end), "shop.example.com", time.Now())

	require.True(t, outcome.Valid)
	require.Equal(t, VerificationValid, outcome.Status)
	require.False(t, outcome.MarkExpired)
	require.NotNil(t, outcome.Client)
	require.Equal(t, "1001", outcome.Client.ID)
	require.Equal(t, "Acme Store", outcome.Client.CompanyName)
	require.Equal(t, "yearly", outcome.Client.SubscriptionType)
}

func TestEvaluateDomainNormalization(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)

	for _, domain := range []string{
		"HTTPS://Shop.Example.COM/",
		"http://shop.example.com/checkout",
		"Shop.Example.Com",
	} {
		outcome := Evaluate(activeTenant(&end), domain, time.Now())
		require.True(t, outcome.Valid, "domain %q should verify", domain)
	}
}

func TestEvaluateSuspendedAccount(t *testing.T) {
	record := activeTenant(nil)
	record.Status = tenant.StatusSuspended

	outcome := Evaluate(record, "shop.example.com", time.Now())

	require.False(t, outcome.Valid)
	require.Equal(t, VerificationSuspended, outcome.Status)
	require.Contains(t, outcome.Message, "suspended")
	require.Equal(t, http.StatusForbidden, httpStatusOf(t, outcome.Err))
}

func TestEvaluateDomainMismatch(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)
	outcome := Evaluate(activeTenant(&end), "https://other.example.com", time.Now())

	require.False(t, outcome.Valid)
	require.Equal(t, VerificationInvalid, outcome.Status)
	require.Contains(t, outcome.Message, "shop.example.com")
	require.Contains(t, outcome.Message, "other.example.com")
	require.Equal(t, http.StatusForbidden, httpStatusOf(t, outcome.Err))
}

func TestEvaluateSubscriptionGate(t *testing.T) {
	record := activeTenant(nil)
	record.SubscriptionStatus = tenant.SubscriptionCancelled

	outcome := Evaluate(record, "shop.example.com", time.Now())

	require.False(t, outcome.Valid)
	require.Equal(t, VerificationExpired, outcome.Status)
	require.Equal(t, "Subscription is cancelled", outcome.Message)
	require.Equal(t, http.StatusPaymentRequired, httpStatusOf(t, outcome.Err))
}

func TestEvaluateExpiry(t *testing.T) {
	end := time.Now().Add(-time.Hour)
	outcome := Evaluate(activeTenant(&end), "shop.example.com", time.Now())

	require.False(t, outcome.Valid)
	require.Equal(t, VerificationExpired, outcome.Status)
	require.Equal(t, "Subscription has expired", outcome.Message)
	require.True(t, outcome.MarkExpired)
	require.Equal(t, http.StatusPaymentRequired, httpStatusOf(t, outcome.Err))
}

func TestEvaluateLifetimeNeverExpires(t *testing.T) {
	outcome := Evaluate(activeTenant(nil), "shop.example.com", time.Now().Add(100*365*24*time.Hour))

	require.True(t, outcome.Valid)
	require.Nil(t, outcome.Client.SubscriptionEndDate)
}

func TestInvalidOutcome(t *testing.T) {
	outcome := Invalid()

	require.False(t, outcome.Valid)
	require.Equal(t, VerificationInvalid, outcome.Status)
	require.Equal(t, "Invalid license key", outcome.Message)
	require.Equal(t, http.StatusUnauthorized, httpStatusOf(t, outcome.Err))

	var base errutil.BaseError
	require.True(t, errors.As(outcome.Err, &base))
	require.Equal(t, errutil.StatusUnauthorized, base.Code)
}
