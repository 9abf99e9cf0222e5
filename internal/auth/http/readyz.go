package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/totpgate/pkg/authsdk"
	"github.com/aussiebroadwan/totpgate/pkg/httpx"
	"github.com/aussiebroadwan/totpgate/pkg/slogx"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything that can report whether its backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessChecks names the backends /readyz pings. Sessions may be nil
// when sessions live in the account store.
type ReadinessChecks struct {
	Accounts Pinger
	Sessions Pinger
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness check that pings the account store and the session store
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, checks ReadinessChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		log := slogx.FromContext(ctx)

		report := &authsdk.HealthChecks{
			Accounts: ping(ctx, checks.Accounts),
			Sessions: "ok",
		}
		if checks.Sessions != nil {
			report.Sessions = ping(ctx, checks.Sessions)
		} else {
			report.Sessions = report.Accounts
		}

		status, code := "ok", http.StatusOK
		if report.Accounts != "ok" || report.Sessions != "ok" {
			log.Warn("readiness check failed", "accounts", report.Accounts, "sessions", report.Sessions)
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Truncate(time.Second).String(),
			Version: version,
			Checks:  report,
		})
	}
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "error: not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return "error: unreachable"
	}
	return "ok"
}
