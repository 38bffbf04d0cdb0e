package health

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/msplens/dirsync/pkg/graph"
)

// maxSampleTenants bounds how many tenant IDs a report carries per error
// category; fleets run to thousands of tenants and the report has to stay
// loggable.
const maxSampleTenants = 3

// TenantResult is the outcome of one tenant's sync pass for one kind.
type TenantResult struct {
	TenantID string
	Records  int64
	Err      error
}

// Thresholds control when a report escalates a category count into a
// warning. A zero Thresholds means DefaultThresholds.
type Thresholds struct {
	AuthErrors       int
	PermissionErrors int
	ServiceErrors    int
	FailureRatePct   float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		AuthErrors:       10,
		PermissionErrors: 15,
		ServiceErrors:    5,
		FailureRatePct:   50,
	}
}

// Report summarizes one fleet-wide sync pass for a single kind.
type Report struct {
	SyncKind      string
	TotalTenants  int
	Succeeded     int
	Failed        int
	FailureRate   float64
	ByCategory    map[graph.Category]int
	SampleTenants map[graph.Category][]string
	Warnings      []string
	Critical      bool
}

// Classify assigns an error to a category. Typed upstream errors carry
// their own category; everything else is matched on message text so wrapped
// and stringified errors from any stage still land in the right bucket.
func Classify(err error) graph.Category {
	var ge *graph.Error
	if errors.As(err, &ge) {
		return ge.Category
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "authorization_identitynotfound"),
		strings.Contains(msg, "unauthorized"):
		return graph.CategoryAuth
	case strings.Contains(msg, "403"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "insufficient privileges"):
		return graph.CategoryPermission
	case strings.Contains(msg, "503"),
		strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "serviceunavailable"):
		return graph.CategoryService
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"):
		return graph.CategoryTimeout
	default:
		return graph.CategoryOther
	}
}

// Categorize builds a report from the per-tenant results of one sync pass.
func Categorize(kind string, results []TenantResult, thresholds Thresholds) Report {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}

	rep := Report{
		SyncKind:      kind,
		TotalTenants:  len(results),
		ByCategory:    map[graph.Category]int{},
		SampleTenants: map[graph.Category][]string{},
	}

	for _, r := range results {
		if r.Err == nil {
			rep.Succeeded++
			continue
		}
		rep.Failed++
		cat := Classify(r.Err)
		rep.ByCategory[cat]++
		if len(rep.SampleTenants[cat]) < maxSampleTenants {
			rep.SampleTenants[cat] = append(rep.SampleTenants[cat], r.TenantID)
		}
	}

	if rep.TotalTenants > 0 {
		rep.FailureRate = float64(rep.Failed) / float64(rep.TotalTenants) * 100
	}

	if n := rep.ByCategory[graph.CategoryAuth]; n > thresholds.AuthErrors {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("high auth failure count: %d tenants with 401 errors", n))
	}
	if n := rep.ByCategory[graph.CategoryPermission]; n > thresholds.PermissionErrors {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("widespread permission issues: %d tenants with 403 errors", n))
	}
	if n := rep.ByCategory[graph.CategoryService]; n > thresholds.ServiceErrors {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("service degradation: %d tenants with 503 errors", n))
	}
	if rep.FailureRate > thresholds.FailureRatePct {
		rep.Critical = true
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("critical sync failure rate: %.1f%% of tenants failed", rep.FailureRate))
	}

	return rep
}

// Log writes the report at a severity matching its content: error when
// critical, warn when degraded, info when clean.
func (r Report) Log(ctx context.Context) {
	l := ctxzap.Extract(ctx)

	fields := []zap.Field{
		zap.String("sync_kind", r.SyncKind),
		zap.Int("total_tenants", r.TotalTenants),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("failed", r.Failed),
		zap.Float64("failure_rate_pct", r.FailureRate),
	}
	for cat, n := range r.ByCategory {
		fields = append(fields, zap.Int("errors_"+string(cat), n))
		if samples := r.SampleTenants[cat]; len(samples) > 0 {
			fields = append(fields, zap.Strings("sample_tenants_"+string(cat), samples))
		}
	}
	if len(r.Warnings) > 0 {
		fields = append(fields, zap.Strings("warnings", r.Warnings))
	}

	switch {
	case r.Critical:
		l.Error("sync pass unhealthy", fields...)
	case len(r.Warnings) > 0 || r.Failed > 0:
		l.Warn("sync pass degraded", fields...)
	default:
		l.Info("sync pass healthy", fields...)
	}
}
