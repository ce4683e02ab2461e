package cron

import (
	"context"
	"fmt"

	"github.com/vendora-app/vendora-backend/internal/audit"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
	"github.com/vendora-app/vendora-backend/pkg/logger"
	"github.com/vendora-app/vendora-backend/pkg/metrics"
)

const auditVerifyJobName = "audit-chain-verify"

// AuditVerifyJobParams configure the verification job.
type AuditVerifyJobParams struct {
	Logger  *logger.Logger
	Audit   audit.Service
	Metrics *metrics.AuditChainMetrics
	// EveryNRuns makes the walk run on a sub-cadence of the cron interval.
	// Zero or one verifies every cycle.
	EveryNRuns int
}

// AuditVerifyJob walks the audit chain end to end. It only ever reads and
// reports: a broken chain is escalated, never repaired.
type AuditVerifyJob struct {
	logg       *logger.Logger
	audit      audit.Service
	metrics    *metrics.AuditChainMetrics
	everyNRuns int
	runCount   int
}

// NewAuditVerifyJob builds the verification job.
func NewAuditVerifyJob(params AuditVerifyJobParams) (*AuditVerifyJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service required")
	}
	every := params.EveryNRuns
	if every < 1 {
		every = 1
	}
	return &AuditVerifyJob{
		logg:       params.Logger,
		audit:      params.Audit,
		metrics:    params.Metrics,
		everyNRuns: every,
	}, nil
}

// Name implements Job.
func (j *AuditVerifyJob) Name() string {
	return auditVerifyJobName
}

// Run implements Job.
func (j *AuditVerifyJob) Run(ctx context.Context) error {
	j.runCount++
	if j.runCount%j.everyNRuns != 0 {
		j.logg.Info(ctx, "audit verification skipped this cycle")
		return nil
	}

	result, err := j.audit.VerifyChain(ctx)
	if err != nil {
		return fmt.Errorf("verifying audit chain: %w", err)
	}

	j.metrics.SetResult(result.IsValid, result.CheckedCount, result.TotalCount)

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"checked": result.CheckedCount,
		"total":   result.TotalCount,
	})
	if !result.IsValid {
		breakID := ""
		if result.FirstBreakID != nil {
			breakID = result.FirstBreakID.String()
		}
		reportCtx = j.logg.WithFields(reportCtx, map[string]any{
			"severity":       "critical",
			"first_break_id": breakID,
			"break_reason":   result.BreakReason,
		})
		j.logg.Error(reportCtx, "audit chain verification found a break", nil)
		// integrity failures are never retryable; callers must not lump this
		// in with transient run errors
		return pkgerrors.New(pkgerrors.CodeIntegrity, "audit chain broken").WithDetails(map[string]any{
			"first_break_id": breakID,
			"break_reason":   result.BreakReason,
		})
	}

	j.logg.Info(reportCtx, "audit chain verified")
	return nil
}
