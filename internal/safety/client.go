// Package safety is the client for the child-safety and compliance API.
//
// Client is the contract the rest of the module binds to; HTTPClient is the
// REST implementation. Request construction, authentication, transport and
// retries all live here.
package safety

import "context"

// Client is the interface for the safety API. Every method is one remote
// capability.
type Client interface {
	// DetectBullying classifies a piece of content for bullying.
	DetectBullying(ctx context.Context, in DetectBullyingInput) (*BullyingResult, error)

	// DetectGrooming classifies a conversation for grooming patterns.
	DetectGrooming(ctx context.Context, in DetectGroomingInput) (*GroomingResult, error)

	// DetectUnsafe classifies content for self-harm, violence and similar categories.
	DetectUnsafe(ctx context.Context, in DetectUnsafeInput) (*UnsafeResult, error)

	// Analyze runs bullying and unsafe-content detection in one call.
	Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error)

	// AnalyzeEmotions reports the emotional state expressed in content.
	AnalyzeEmotions(ctx context.Context, in AnalyzeEmotionsInput) (*EmotionsResult, error)

	// GetActionPlan returns recommended next steps for a situation.
	GetActionPlan(ctx context.Context, in ActionPlanInput) (*ActionPlanResult, error)

	// GenerateReport builds an incident report from a conversation.
	GenerateReport(ctx context.Context, in ReportInput) (*ReportResult, error)

	// DeleteAccountData erases all data held for the authenticated account.
	DeleteAccountData(ctx context.Context) (*AccountDeletionResult, error)

	// ExportAccountData returns all data held for the authenticated account.
	ExportAccountData(ctx context.Context) (*AccountExportResult, error)

	// RecordConsent grants consent for a processing type.
	RecordConsent(ctx context.Context, in RecordConsentInput) (*ConsentResult, error)

	// GetConsentStatus lists consent records. A nil filter returns all of them.
	GetConsentStatus(ctx context.Context, filter *ConsentStatusFilter) (*ConsentStatusResult, error)

	// WithdrawConsent withdraws consent for a processing type.
	WithdrawConsent(ctx context.Context, in WithdrawConsentInput) (*ConsentResult, error)

	// RectifyData corrects fields on a stored document.
	RectifyData(ctx context.Context, in RectifyDataInput) (*RectifyDataResult, error)

	// GetAuditLogs lists audit log entries. A nil filter returns the default page.
	GetAuditLogs(ctx context.Context, filter *AuditLogFilter) (*AuditLogsResult, error)

	// LogBreach records a new data breach.
	LogBreach(ctx context.Context, in LogBreachInput) (*BreachResult, error)

	// ListBreaches lists logged breaches. A nil filter returns all of them.
	ListBreaches(ctx context.Context, filter *BreachListFilter) (*BreachListResult, error)

	// GetBreach fetches one breach by ID.
	GetBreach(ctx context.Context, in GetBreachInput) (*BreachResult, error)

	// UpdateBreachStatus moves a breach to a new status.
	UpdateBreachStatus(ctx context.Context, in UpdateBreachStatusInput) (*BreachResult, error)
}
