package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Logins counts authentication attempts by method (password, oauth)
	// and outcome (success, invalid_credentials, error).
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accountd_logins_total",
		Help: "Authentication attempts by method and outcome",
	}, []string{"method", "outcome"})

	// AccountsProvisioned counts accounts created from provider assertions.
	AccountsProvisioned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accountd_accounts_provisioned_total",
		Help: "Accounts created from identity-provider assertions",
	})

	// ProvisionRetries counts targeted retries during provisioning by the
	// conflicting field.
	ProvisionRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accountd_provision_retries_total",
		Help: "Provisioning retries by conflicting field",
	}, []string{"conflict"})
)
