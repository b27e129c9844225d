// Package safetytest provides an in-process safety.Client for tests and
// offline runs.
//
// Fake answers detection calls with a small keyword heuristic and serves the
// compliance calls from an in-memory Store. Any method can be overridden by
// setting its Func field; every call is counted.
package safetytest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dusk-indust/safeguard/internal/safety"
)

// Compile-time interface check.
var _ safety.Client = (*Fake)(nil)

// Fake is a test double for safety.Client.
type Fake struct {
	DetectBullyingFunc     func(context.Context, safety.DetectBullyingInput) (*safety.BullyingResult, error)
	DetectGroomingFunc     func(context.Context, safety.DetectGroomingInput) (*safety.GroomingResult, error)
	DetectUnsafeFunc       func(context.Context, safety.DetectUnsafeInput) (*safety.UnsafeResult, error)
	AnalyzeFunc            func(context.Context, safety.AnalyzeInput) (*safety.AnalyzeResult, error)
	AnalyzeEmotionsFunc    func(context.Context, safety.AnalyzeEmotionsInput) (*safety.EmotionsResult, error)
	GetActionPlanFunc      func(context.Context, safety.ActionPlanInput) (*safety.ActionPlanResult, error)
	GenerateReportFunc     func(context.Context, safety.ReportInput) (*safety.ReportResult, error)
	DeleteAccountDataFunc  func(context.Context) (*safety.AccountDeletionResult, error)
	ExportAccountDataFunc  func(context.Context) (*safety.AccountExportResult, error)
	RecordConsentFunc      func(context.Context, safety.RecordConsentInput) (*safety.ConsentResult, error)
	GetConsentStatusFunc   func(context.Context, *safety.ConsentStatusFilter) (*safety.ConsentStatusResult, error)
	WithdrawConsentFunc    func(context.Context, safety.WithdrawConsentInput) (*safety.ConsentResult, error)
	RectifyDataFunc        func(context.Context, safety.RectifyDataInput) (*safety.RectifyDataResult, error)
	GetAuditLogsFunc       func(context.Context, *safety.AuditLogFilter) (*safety.AuditLogsResult, error)
	LogBreachFunc          func(context.Context, safety.LogBreachInput) (*safety.BreachResult, error)
	ListBreachesFunc       func(context.Context, *safety.BreachListFilter) (*safety.BreachListResult, error)
	GetBreachFunc          func(context.Context, safety.GetBreachInput) (*safety.BreachResult, error)
	UpdateBreachStatusFunc func(context.Context, safety.UpdateBreachStatusInput) (*safety.BreachResult, error)

	// UserID is reported by ExportAccountData and stamped on audit entries.
	UserID string

	// Now supplies timestamps. Defaults to time.Now in UTC.
	Now func() time.Time

	store *Store

	mu    sync.Mutex
	calls map[string]int
}

// New returns a Fake backed by an empty Store.
func New() *Fake {
	return &Fake{
		UserID: "user-test",
		store:  NewStore(),
		calls:  make(map[string]int),
	}
}

// Store exposes the backing store so tests can seed or inspect it.
func (f *Fake) Store() *Store { return f.store }

// Calls returns how many times method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of invocations across all methods.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *Fake) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *Fake) now() string {
	if f.Now != nil {
		return f.Now().UTC().Format(time.RFC3339)
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func (f *Fake) audit(action string, details map[string]any) {
	f.store.AppendAudit(safety.AuditLogEntry{
		UserID:    f.UserID,
		Action:    action,
		Details:   details,
		CreatedAt: f.now(),
	})
}

// --- Detection ---

var (
	bullyingTerms = []string{"worthless", "stupid", "loser", "nobody likes you", "hate you"}
	groomingTerms = []string{"our secret", "don't tell", "dont tell", "delete this chat", "send a photo"}
	unsafeTerms   = []string{"hurt myself", "kill", "end it all", "weapon"}
)

func matchTerms(content string, terms []string) []string {
	lower := strings.ToLower(content)
	var hits []string
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits = append(hits, t)
		}
	}
	return hits
}

func (f *Fake) DetectBullying(ctx context.Context, in safety.DetectBullyingInput) (*safety.BullyingResult, error) {
	f.record("DetectBullying")
	if f.DetectBullyingFunc != nil {
		return f.DetectBullyingFunc(ctx, in)
	}
	if err := requireField("DetectBullying", "content", in.Content); err != nil {
		return nil, err
	}
	return bullyingVerdict(in.Content, in.ExternalID), nil
}

func bullyingVerdict(content, externalID string) *safety.BullyingResult {
	hits := matchTerms(content, bullyingTerms)
	res := &safety.BullyingResult{Severity: safety.SeverityNone, Confidence: 0.9, ExternalID: externalID}
	if len(hits) > 0 {
		res.IsBullying = true
		res.BullyingType = []string{"insult"}
		res.Severity = safety.SeverityHigh
		res.RiskScore = 0.85
		res.Rationale = "matched: " + strings.Join(hits, ", ")
		res.RecommendedAction = "flag_for_moderator"
	}
	return res
}

func (f *Fake) DetectGrooming(ctx context.Context, in safety.DetectGroomingInput) (*safety.GroomingResult, error) {
	f.record("DetectGrooming")
	if f.DetectGroomingFunc != nil {
		return f.DetectGroomingFunc(ctx, in)
	}
	if len(in.Messages) == 0 {
		return nil, validationError("DetectGrooming", "messages required")
	}
	res := &safety.GroomingResult{GroomingRisk: safety.RiskLow, Confidence: 0.8, ExternalID: in.ExternalID}
	for _, m := range in.Messages {
		res.Flags = append(res.Flags, matchTerms(m.Content, groomingTerms)...)
	}
	if len(res.Flags) > 0 {
		res.GroomingRisk = safety.RiskHigh
		res.RiskScore = 0.9
		res.RecommendedAction = "notify_guardian"
	}
	return res, nil
}

func (f *Fake) DetectUnsafe(ctx context.Context, in safety.DetectUnsafeInput) (*safety.UnsafeResult, error) {
	f.record("DetectUnsafe")
	if f.DetectUnsafeFunc != nil {
		return f.DetectUnsafeFunc(ctx, in)
	}
	if err := requireField("DetectUnsafe", "content", in.Content); err != nil {
		return nil, err
	}
	return unsafeVerdict(in.Content, in.ExternalID), nil
}

func unsafeVerdict(content, externalID string) *safety.UnsafeResult {
	hits := matchTerms(content, unsafeTerms)
	res := &safety.UnsafeResult{Severity: safety.SeverityNone, Confidence: 0.9, ExternalID: externalID}
	if len(hits) > 0 {
		res.Unsafe = true
		res.Categories = []string{"self_harm"}
		res.Severity = safety.SeverityCritical
		res.RiskScore = 0.95
		res.RecommendedAction = "escalate"
	}
	return res
}

func (f *Fake) Analyze(ctx context.Context, in safety.AnalyzeInput) (*safety.AnalyzeResult, error) {
	f.record("Analyze")
	if f.AnalyzeFunc != nil {
		return f.AnalyzeFunc(ctx, in)
	}
	if err := requireField("Analyze", "content", in.Content); err != nil {
		return nil, err
	}
	b := bullyingVerdict(in.Content, in.ExternalID)
	u := unsafeVerdict(in.Content, in.ExternalID)
	res := &safety.AnalyzeResult{
		RiskLevel: safety.RiskSafe,
		Bullying:  b,
		Unsafe:    u,
		Summary:   "no concerns detected",
	}
	switch {
	case u.Unsafe:
		res.RiskLevel, res.RiskScore, res.Summary = safety.RiskCritical, u.RiskScore, "unsafe content detected"
		res.RecommendedAction = u.RecommendedAction
	case b.IsBullying:
		res.RiskLevel, res.RiskScore, res.Summary = safety.RiskHigh, b.RiskScore, "bullying detected"
		res.RecommendedAction = b.RecommendedAction
	}
	return res, nil
}

func (f *Fake) AnalyzeEmotions(ctx context.Context, in safety.AnalyzeEmotionsInput) (*safety.EmotionsResult, error) {
	f.record("AnalyzeEmotions")
	if f.AnalyzeEmotionsFunc != nil {
		return f.AnalyzeEmotionsFunc(ctx, in)
	}
	if in.Content == "" && len(in.Messages) == 0 {
		return nil, validationError("AnalyzeEmotions", "content or messages required")
	}
	text := in.Content
	for _, m := range in.Messages {
		text += " " + m.Content
	}
	res := &safety.EmotionsResult{
		DominantEmotions: []string{"neutral"},
		EmotionScores:    map[string]float64{"neutral": 0.7},
		Trend:            "stable",
	}
	if len(matchTerms(text, bullyingTerms)) > 0 || len(matchTerms(text, unsafeTerms)) > 0 {
		res.DominantEmotions = []string{"sadness", "anger"}
		res.EmotionScores = map[string]float64{"sadness": 0.6, "anger": 0.4}
		res.Trend = "worsening"
		res.RecommendedFollowup = "check in with the child"
	}
	return res, nil
}

// --- Guidance ---

func (f *Fake) GetActionPlan(ctx context.Context, in safety.ActionPlanInput) (*safety.ActionPlanResult, error) {
	f.record("GetActionPlan")
	if f.GetActionPlanFunc != nil {
		return f.GetActionPlanFunc(ctx, in)
	}
	if err := requireField("GetActionPlan", "situation", in.Situation); err != nil {
		return nil, err
	}
	audience := in.Audience
	if audience == "" {
		audience = safety.AudienceParent
	}
	return &safety.ActionPlanResult{
		Audience: audience,
		Steps: []string{
			"Stay calm and listen",
			"Save evidence of the messages",
			"Report the account on the platform",
		},
		Tone: "supportive",
	}, nil
}

func (f *Fake) GenerateReport(ctx context.Context, in safety.ReportInput) (*safety.ReportResult, error) {
	f.record("GenerateReport")
	if f.GenerateReportFunc != nil {
		return f.GenerateReportFunc(ctx, in)
	}
	if len(in.Messages) == 0 {
		return nil, validationError("GenerateReport", "messages required")
	}
	return &safety.ReportResult{
		Summary:              fmt.Sprintf("incident covering %d messages", len(in.Messages)),
		RiskLevel:            safety.RiskMedium,
		Categories:           []string{in.IncidentType},
		RecommendedNextSteps: []string{"review with a trusted adult"},
	}, nil
}

// --- Account rights ---

func (f *Fake) DeleteAccountData(ctx context.Context) (*safety.AccountDeletionResult, error) {
	f.record("DeleteAccountData")
	if f.DeleteAccountDataFunc != nil {
		return f.DeleteAccountDataFunc(ctx)
	}
	n := f.store.Erase()
	return &safety.AccountDeletionResult{Message: "account data deleted", DeletedCount: n}, nil
}

func (f *Fake) ExportAccountData(ctx context.Context) (*safety.AccountExportResult, error) {
	f.record("ExportAccountData")
	if f.ExportAccountDataFunc != nil {
		return f.ExportAccountDataFunc(ctx)
	}
	f.audit("data_export", nil)
	return &safety.AccountExportResult{
		UserID:     f.UserID,
		ExportedAt: f.now(),
		Data: map[string]any{
			"consents":   f.store.Consents(""),
			"audit_logs": f.store.Audit("", 0),
		},
	}, nil
}

func (f *Fake) RecordConsent(ctx context.Context, in safety.RecordConsentInput) (*safety.ConsentResult, error) {
	f.record("RecordConsent")
	if f.RecordConsentFunc != nil {
		return f.RecordConsentFunc(ctx, in)
	}
	if err := requireField("RecordConsent", "consent_type", string(in.ConsentType)); err != nil {
		return nil, err
	}
	c := f.store.PutConsent(safety.ConsentRecord{
		ConsentType: in.ConsentType,
		Status:      safety.ConsentGranted,
		Version:     in.Version,
		CreatedAt:   f.now(),
	})
	f.audit("consent_granted", map[string]any{"consent_type": string(in.ConsentType)})
	return &safety.ConsentResult{Message: "consent recorded", Consent: c}, nil
}

func (f *Fake) GetConsentStatus(ctx context.Context, filter *safety.ConsentStatusFilter) (*safety.ConsentStatusResult, error) {
	f.record("GetConsentStatus")
	if f.GetConsentStatusFunc != nil {
		return f.GetConsentStatusFunc(ctx, filter)
	}
	var t safety.ConsentType
	if filter != nil {
		t = filter.Type
	}
	return &safety.ConsentStatusResult{Consents: f.store.Consents(t)}, nil
}

func (f *Fake) WithdrawConsent(ctx context.Context, in safety.WithdrawConsentInput) (*safety.ConsentResult, error) {
	f.record("WithdrawConsent")
	if f.WithdrawConsentFunc != nil {
		return f.WithdrawConsentFunc(ctx, in)
	}
	c, ok := f.store.WithdrawConsent(in.ConsentType, f.now())
	if !ok {
		return nil, notFound("WithdrawConsent", fmt.Sprintf("no granted consent of type %q", in.ConsentType))
	}
	f.audit("consent_withdrawn", map[string]any{"consent_type": string(in.ConsentType)})
	return &safety.ConsentResult{Message: "consent withdrawn", Consent: c}, nil
}

func (f *Fake) RectifyData(ctx context.Context, in safety.RectifyDataInput) (*safety.RectifyDataResult, error) {
	f.record("RectifyData")
	if f.RectifyDataFunc != nil {
		return f.RectifyDataFunc(ctx, in)
	}
	if in.Collection == "" || in.DocumentID == "" || len(in.Fields) == 0 {
		return nil, validationError("RectifyData", "collection, document_id and fields required")
	}
	fields := make([]string, 0, len(in.Fields))
	for k := range in.Fields {
		fields = append(fields, k)
	}
	f.audit("data_rectified", map[string]any{"collection": in.Collection, "document_id": in.DocumentID})
	return &safety.RectifyDataResult{Message: "data rectified", UpdatedFields: fields}, nil
}

func (f *Fake) GetAuditLogs(ctx context.Context, filter *safety.AuditLogFilter) (*safety.AuditLogsResult, error) {
	f.record("GetAuditLogs")
	if f.GetAuditLogsFunc != nil {
		return f.GetAuditLogsFunc(ctx, filter)
	}
	var (
		action string
		limit  int
	)
	if filter != nil {
		action, limit = filter.Action, filter.Limit
	}
	return &safety.AuditLogsResult{AuditLogs: f.store.Audit(action, limit)}, nil
}

// --- Breach management ---

func (f *Fake) LogBreach(ctx context.Context, in safety.LogBreachInput) (*safety.BreachResult, error) {
	f.record("LogBreach")
	if f.LogBreachFunc != nil {
		return f.LogBreachFunc(ctx, in)
	}
	if err := requireField("LogBreach", "title", in.Title); err != nil {
		return nil, err
	}
	now := f.now()
	b, err := f.store.CreateBreach(safety.BreachRecord{
		Title:              in.Title,
		Description:        in.Description,
		Severity:           in.Severity,
		Status:             safety.BreachDetected,
		NotificationStatus: safety.NotificationPending,
		AffectedUserIDs:    in.AffectedUserIDs,
		DataCategories:     in.DataCategories,
		ReportedBy:         in.ReportedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return nil, validationError("LogBreach", err.Error())
	}
	return &safety.BreachResult{Message: "breach logged", Breach: b}, nil
}

func (f *Fake) ListBreaches(ctx context.Context, filter *safety.BreachListFilter) (*safety.BreachListResult, error) {
	f.record("ListBreaches")
	if f.ListBreachesFunc != nil {
		return f.ListBreachesFunc(ctx, filter)
	}
	var (
		status safety.BreachStatus
		limit  int
	)
	if filter != nil {
		status, limit = filter.Status, filter.Limit
	}
	return &safety.BreachListResult{Breaches: f.store.ListBreaches(status, limit)}, nil
}

func (f *Fake) GetBreach(ctx context.Context, in safety.GetBreachInput) (*safety.BreachResult, error) {
	f.record("GetBreach")
	if f.GetBreachFunc != nil {
		return f.GetBreachFunc(ctx, in)
	}
	b, ok := f.store.GetBreach(in.ID)
	if !ok {
		return nil, notFound("GetBreach", fmt.Sprintf("breach %q not found", in.ID))
	}
	return &safety.BreachResult{Breach: b}, nil
}

func (f *Fake) UpdateBreachStatus(ctx context.Context, in safety.UpdateBreachStatusInput) (*safety.BreachResult, error) {
	f.record("UpdateBreachStatus")
	if f.UpdateBreachStatusFunc != nil {
		return f.UpdateBreachStatusFunc(ctx, in)
	}
	if err := requireField("UpdateBreachStatus", "status", string(in.Status)); err != nil {
		return nil, err
	}
	now := f.now()
	b, ok := f.store.UpdateBreach(in.ID, func(b *safety.BreachRecord) {
		b.Status = in.Status
		if in.NotificationStatus != "" {
			b.NotificationStatus = in.NotificationStatus
		}
		if in.Notes != "" {
			b.Notes = in.Notes
		}
		b.UpdatedAt = now
	})
	if !ok {
		return nil, notFound("UpdateBreachStatus", fmt.Sprintf("breach %q not found", in.ID))
	}
	return &safety.BreachResult{Message: "breach updated", Breach: b}, nil
}

// --- Errors ---

func requireField(endpoint, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return validationError(endpoint, field+" required")
	}
	return nil
}

func validationError(endpoint, msg string) error {
	return &safety.APIError{
		Kind:       safety.KindValidation,
		Endpoint:   endpoint,
		StatusCode: http.StatusBadRequest,
		Message:    msg,
	}
}

func notFound(endpoint, msg string) error {
	return &safety.APIError{
		Kind:       safety.KindNotFound,
		Endpoint:   endpoint,
		StatusCode: http.StatusNotFound,
		Message:    msg,
	}
}
