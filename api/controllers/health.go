package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/payflow-checkout/api/responses"
	"github.com/angelmondragon/payflow-checkout/pkg/config"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is any dependency that can report its own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a named readiness check. A nil Pinger marks an optional
// dependency that is not configured and is reported as skipped.
type Dependency struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PayFlow-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and answers 503 when any of them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PayFlow-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		failed := false
		for _, dep := range deps {
			if dep.Pinger == nil {
				checks[dep.Name] = "skipped"
				continue
			}
			if err := dep.Pinger.Ping(ctx); err != nil {
				failed = true
				checks[dep.Name] = "down"
				if logg != nil {
					logg.WarnErr(logg.WithField(ctx, "dependency", dep.Name), "health.ready.dependency_down", err)
				}
				continue
			}
			checks[dep.Name] = "ok"
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").
				WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
