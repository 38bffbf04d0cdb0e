package capability

import (
	"context"
	"encoding/json"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/msplens/dirsync/pkg/graph"
)

var tracer = otel.Tracer("dirsync/capability")

// Fallback probe endpoint. Premium-tier-only; a denial here and on the
// sign-in activity probe is the tenant's entitlement state, not a transient
// condition, so nothing in this package is ever retried.
const mfaReportPath = "/reports/authenticationMethods/userRegistrationDetails"

// Detect decides whether a tenant may use the premium capability tier. The
// result gates which fields the rest of the pipeline requests and which
// sentinel policy the transform stage applies.
//
// The probe fetches exactly one entity via the base tier. An empty tenant
// yields non-premium with a low-confidence warning, since there is no entity
// to probe against.
func Detect(ctx context.Context, base *graph.Client, beta *graph.Client) bool {
	ctx, span := tracer.Start(ctx, "capability.Detect")
	defer span.End()

	l := ctxzap.Extract(ctx).With(zap.String("tenant_id", base.TenantID()))

	users, err := base.Get(ctx, "/users",
		graph.WithSelect("id", "userPrincipalName"),
		graph.WithTop(1),
	)
	if err != nil {
		l.Warn("could not determine tenant capability", zap.Error(err))
		return false
	}
	if len(users) == 0 {
		l.Warn("no users available for capability probe, assuming non-premium")
		return false
	}

	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(users[0], &probe); err != nil || probe.ID == "" {
		l.Warn("capability probe user is malformed, assuming non-premium", zap.Error(err))
		return false
	}

	var activity json.RawMessage
	err = beta.GetObject(ctx, "/users/"+probe.ID+"/signInActivity", &activity,
		graph.WithSelect("lastSignInDateTime"))
	if err == nil {
		l.Info("tenant is premium, sign-in activity accessible")
		return true
	}

	// One alternate probe before concluding non-premium.
	_, err = beta.Get(ctx, mfaReportPath, graph.WithSelect("id"), graph.WithTop(1))
	if err == nil {
		l.Info("tenant is premium, mfa registration report accessible")
		return true
	}

	l.Info("tenant is not premium, no premium endpoints accessible")
	return false
}
