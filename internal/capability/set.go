package capability

import (
	"context"

	"github.com/dusk-indust/safeguard/internal/operation"
	"github.com/dusk-indust/safeguard/internal/safety"
	"github.com/dusk-indust/safeguard/internal/scope"
)

// Capability names, as used by the catalog, the CLI and the MCP tools.
const (
	NameDetectBullying     = "detect_bullying"
	NameDetectGrooming     = "detect_grooming"
	NameDetectUnsafe       = "detect_unsafe"
	NameAnalyze            = "analyze"
	NameAnalyzeEmotions    = "analyze_emotions"
	NameGetActionPlan      = "get_action_plan"
	NameGenerateReport     = "generate_report"
	NameDeleteAccountData  = "delete_account_data"
	NameExportAccountData  = "export_account_data"
	NameRecordConsent      = "record_consent"
	NameGetConsentStatus   = "get_consent_status"
	NameWithdrawConsent    = "withdraw_consent"
	NameRectifyData        = "rectify_data"
	NameGetAuditLogs       = "get_audit_logs"
	NameLogBreach          = "log_breach"
	NameListBreaches       = "list_breaches"
	NameGetBreach          = "get_breach"
	NameUpdateBreachStatus = "update_breach_status"
)

// Set holds one operation per capability, all bound to the same client.
// Operations are independent: executing or resetting one never touches
// another.
type Set struct {
	DetectBullying  *operation.Operation[safety.DetectBullyingInput, *safety.BullyingResult]
	DetectGrooming  *operation.Operation[safety.DetectGroomingInput, *safety.GroomingResult]
	DetectUnsafe    *operation.Operation[safety.DetectUnsafeInput, *safety.UnsafeResult]
	Analyze         *operation.Operation[safety.AnalyzeInput, *safety.AnalyzeResult]
	AnalyzeEmotions *operation.Operation[safety.AnalyzeEmotionsInput, *safety.EmotionsResult]
	GetActionPlan   *operation.Operation[safety.ActionPlanInput, *safety.ActionPlanResult]
	GenerateReport  *operation.Operation[safety.ReportInput, *safety.ReportResult]

	DeleteAccountData *operation.Operation[operation.None, *safety.AccountDeletionResult]
	ExportAccountData *operation.Operation[operation.None, *safety.AccountExportResult]
	RecordConsent     *operation.Operation[safety.RecordConsentInput, *safety.ConsentResult]
	GetConsentStatus  *operation.Operation[*safety.ConsentStatusFilter, *safety.ConsentStatusResult]
	WithdrawConsent   *operation.Operation[safety.WithdrawConsentInput, *safety.ConsentResult]
	RectifyData       *operation.Operation[safety.RectifyDataInput, *safety.RectifyDataResult]
	GetAuditLogs      *operation.Operation[*safety.AuditLogFilter, *safety.AuditLogsResult]

	LogBreach          *operation.Operation[safety.LogBreachInput, *safety.BreachResult]
	ListBreaches       *operation.Operation[*safety.BreachListFilter, *safety.BreachListResult]
	GetBreach          *operation.Operation[safety.GetBreachInput, *safety.BreachResult]
	UpdateBreachStatus *operation.Operation[safety.UpdateBreachStatusInput, *safety.BreachResult]
}

// NewSet binds every capability to the client of s.
func NewSet(s *scope.Scope, opts ...operation.Option) (*Set, error) {
	h, err := s.Handle()
	if err != nil {
		return nil, err
	}
	c := h.Client()

	return &Set{
		DetectBullying:  bind(c, NameDetectBullying, safety.Client.DetectBullying, opts),
		DetectGrooming:  bind(c, NameDetectGrooming, safety.Client.DetectGrooming, opts),
		DetectUnsafe:    bind(c, NameDetectUnsafe, safety.Client.DetectUnsafe, opts),
		Analyze:         bind(c, NameAnalyze, safety.Client.Analyze, opts),
		AnalyzeEmotions: bind(c, NameAnalyzeEmotions, safety.Client.AnalyzeEmotions, opts),
		GetActionPlan:   bind(c, NameGetActionPlan, safety.Client.GetActionPlan, opts),
		GenerateReport:  bind(c, NameGenerateReport, safety.Client.GenerateReport, opts),

		DeleteAccountData: bindNone(c, NameDeleteAccountData, safety.Client.DeleteAccountData, opts),
		ExportAccountData: bindNone(c, NameExportAccountData, safety.Client.ExportAccountData, opts),
		RecordConsent:     bind(c, NameRecordConsent, safety.Client.RecordConsent, opts),
		GetConsentStatus:  bind(c, NameGetConsentStatus, safety.Client.GetConsentStatus, opts),
		WithdrawConsent:   bind(c, NameWithdrawConsent, safety.Client.WithdrawConsent, opts),
		RectifyData:       bind(c, NameRectifyData, safety.Client.RectifyData, opts),
		GetAuditLogs:      bind(c, NameGetAuditLogs, safety.Client.GetAuditLogs, opts),

		LogBreach:          bind(c, NameLogBreach, safety.Client.LogBreach, opts),
		ListBreaches:       bind(c, NameListBreaches, safety.Client.ListBreaches, opts),
		GetBreach:          bind(c, NameGetBreach, safety.Client.GetBreach, opts),
		UpdateBreachStatus: bind(c, NameUpdateBreachStatus, safety.Client.UpdateBreachStatus, opts),
	}, nil
}

// FromContext binds every capability to the scope carried by ctx. It fails
// with a *scope.MissingError outside a scope.
func FromContext(ctx context.Context, opts ...operation.Option) (*Set, error) {
	s, err := scope.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return NewSet(s, opts...)
}

// ResetAll returns every operation in the set to Idle.
func (s *Set) ResetAll() {
	for _, d := range catalog {
		d.reset(s)
	}
}
