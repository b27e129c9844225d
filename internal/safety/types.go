package safety

// --- Enums ---

// Severity grades how serious a detected risk is.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskLevel is the overall risk label attached to an analysis.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Audience selects who an action plan is written for.
type Audience string

const (
	AudienceChild    Audience = "child"
	AudienceParent   Audience = "parent"
	AudienceEducator Audience = "educator"
	AudiencePlatform Audience = "platform"
)

// ConsentType names a category of processing a user can consent to.
type ConsentType string

const (
	ConsentDataProcessing ConsentType = "data_processing"
	ConsentAnalytics      ConsentType = "analytics"
	ConsentMarketing      ConsentType = "marketing"
	ConsentThirdParty     ConsentType = "third_party_sharing"
	ConsentChildSafety    ConsentType = "child_safety_monitoring"
)

// ConsentStatus is the current state of a consent record.
type ConsentStatus string

const (
	ConsentGranted   ConsentStatus = "granted"
	ConsentWithdrawn ConsentStatus = "withdrawn"
)

// BreachStatus tracks a breach through its investigation.
type BreachStatus string

const (
	BreachDetected      BreachStatus = "detected"
	BreachInvestigating BreachStatus = "investigating"
	BreachContained     BreachStatus = "contained"
	BreachReported      BreachStatus = "reported"
	BreachResolved      BreachStatus = "resolved"
)

// NotificationStatus tracks notification of affected users and authorities.
type NotificationStatus string

const (
	NotificationPending       NotificationStatus = "pending"
	NotificationUsersNotified NotificationStatus = "users_notified"
	NotificationDPANotified   NotificationStatus = "dpa_notified"
	NotificationCompleted     NotificationStatus = "completed"
)

// --- Shared records ---

// AnalysisContext carries optional hints about where content came from.
type AnalysisContext struct {
	Language  string `json:"language,omitempty"`
	AgeGroup  string `json:"age_group,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Relation  string `json:"relationship,omitempty"`
	Sensitive bool   `json:"sensitive,omitempty"`
}

// Message is one turn of a conversation submitted for analysis.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	SentAt  string `json:"sent_at,omitempty"`
}

// --- Detection ---

// DetectBullyingInput is the request for bullying detection.
type DetectBullyingInput struct {
	Content    string            `json:"content"`
	Context    *AnalysisContext  `json:"context,omitempty"`
	ExternalID string            `json:"external_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// BullyingResult is the outcome of bullying detection.
type BullyingResult struct {
	IsBullying        bool     `json:"is_bullying"`
	BullyingType      []string `json:"bullying_type,omitempty"`
	Confidence        float64  `json:"confidence,omitempty"`
	Severity          Severity `json:"severity"`
	Rationale         string   `json:"rationale,omitempty"`
	RecommendedAction string   `json:"recommended_action,omitempty"`
	RiskScore         float64  `json:"risk_score,omitempty"`
	ExternalID        string   `json:"external_id,omitempty"`
}

// DetectGroomingInput is the request for grooming detection over a conversation.
type DetectGroomingInput struct {
	Messages   []Message         `json:"messages"`
	ChildAge   int               `json:"child_age,omitempty"`
	Context    *AnalysisContext  `json:"context,omitempty"`
	ExternalID string            `json:"external_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// GroomingResult is the outcome of grooming detection.
type GroomingResult struct {
	GroomingRisk      RiskLevel `json:"grooming_risk"`
	Confidence        float64   `json:"confidence,omitempty"`
	Flags             []string  `json:"flags,omitempty"`
	Rationale         string    `json:"rationale,omitempty"`
	RecommendedAction string    `json:"recommended_action,omitempty"`
	RiskScore         float64   `json:"risk_score,omitempty"`
	ExternalID        string    `json:"external_id,omitempty"`
}

// DetectUnsafeInput is the request for unsafe-content detection.
type DetectUnsafeInput struct {
	Content    string            `json:"content"`
	Context    *AnalysisContext  `json:"context,omitempty"`
	ExternalID string            `json:"external_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// UnsafeResult is the outcome of unsafe-content detection.
type UnsafeResult struct {
	Unsafe            bool     `json:"unsafe"`
	Categories        []string `json:"categories,omitempty"`
	Severity          Severity `json:"severity"`
	Confidence        float64  `json:"confidence,omitempty"`
	Rationale         string   `json:"rationale,omitempty"`
	RecommendedAction string   `json:"recommended_action,omitempty"`
	RiskScore         float64  `json:"risk_score,omitempty"`
	ExternalID        string   `json:"external_id,omitempty"`
}

// --- Analysis ---

// AnalyzeInput requests a combined quick analysis. Include limits the checks
// that run; empty means all of them.
type AnalyzeInput struct {
	Content    string           `json:"content"`
	Context    *AnalysisContext `json:"context,omitempty"`
	Include    []string         `json:"include,omitempty"`
	ExternalID string           `json:"external_id,omitempty"`
}

// AnalyzeResult combines the individual detections into one verdict.
type AnalyzeResult struct {
	RiskLevel         RiskLevel       `json:"risk_level"`
	RiskScore         float64         `json:"risk_score"`
	Summary           string          `json:"summary,omitempty"`
	Bullying          *BullyingResult `json:"bullying,omitempty"`
	Unsafe            *UnsafeResult   `json:"unsafe,omitempty"`
	RecommendedAction string          `json:"recommended_action,omitempty"`
}

// AnalyzeEmotionsInput requests emotion analysis over content or a conversation.
type AnalyzeEmotionsInput struct {
	Content  string           `json:"content,omitempty"`
	Messages []Message        `json:"messages,omitempty"`
	Context  *AnalysisContext `json:"context,omitempty"`
}

// EmotionsResult reports dominant emotions and their trend.
type EmotionsResult struct {
	DominantEmotions    []string           `json:"dominant_emotions"`
	EmotionScores       map[string]float64 `json:"emotion_scores,omitempty"`
	Trend               string             `json:"trend,omitempty"`
	Summary             string             `json:"summary,omitempty"`
	RecommendedFollowup string             `json:"recommended_followup,omitempty"`
}

// --- Guidance ---

// ActionPlanInput describes the situation an action plan should address.
type ActionPlanInput struct {
	Situation string   `json:"situation"`
	ChildAge  int      `json:"child_age,omitempty"`
	Audience  Audience `json:"audience,omitempty"`
	Severity  Severity `json:"severity,omitempty"`
}

// ActionPlanResult is a sequence of recommended steps.
type ActionPlanResult struct {
	Audience     Audience `json:"audience"`
	Steps        []string `json:"steps"`
	Tone         string   `json:"tone,omitempty"`
	ReadingLevel string   `json:"reading_level,omitempty"`
}

// ReportInput is the conversation an incident report is generated from.
type ReportInput struct {
	Messages     []Message `json:"messages"`
	ChildAge     int       `json:"child_age,omitempty"`
	IncidentType string    `json:"incident_type,omitempty"`
}

// ReportResult is a structured incident report.
type ReportResult struct {
	Summary              string    `json:"summary"`
	RiskLevel            RiskLevel `json:"risk_level"`
	Categories           []string  `json:"categories,omitempty"`
	RecommendedNextSteps []string  `json:"recommended_next_steps,omitempty"`
}

// --- Account rights ---

// AccountDeletionResult confirms erasure of the caller's data.
type AccountDeletionResult struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
}

// AccountExportResult carries every stored record for the caller.
type AccountExportResult struct {
	UserID     string         `json:"user_id"`
	ExportedAt string         `json:"exported_at"`
	Data       map[string]any `json:"data"`
}

// ConsentRecord is one stored consent decision.
type ConsentRecord struct {
	ID          string        `json:"id"`
	ConsentType ConsentType   `json:"consent_type"`
	Status      ConsentStatus `json:"status"`
	Version     string        `json:"version"`
	CreatedAt   string        `json:"created_at"`
	WithdrawnAt string        `json:"withdrawn_at,omitempty"`
}

// RecordConsentInput grants consent for a type at a policy version.
type RecordConsentInput struct {
	ConsentType ConsentType `json:"consent_type"`
	Version     string      `json:"version"`
}

// ConsentResult wraps a single consent record.
type ConsentResult struct {
	Message string        `json:"message,omitempty"`
	Consent ConsentRecord `json:"consent"`
}

// ConsentStatusFilter narrows a consent status query to one type.
type ConsentStatusFilter struct {
	Type ConsentType `json:"type,omitempty"`
}

// ConsentStatusResult lists consent records.
type ConsentStatusResult struct {
	Consents []ConsentRecord `json:"consents"`
}

// WithdrawConsentInput withdraws consent for a type.
type WithdrawConsentInput struct {
	ConsentType ConsentType `json:"consent_type"`
}

// RectifyDataInput corrects fields on a stored document.
type RectifyDataInput struct {
	Collection string         `json:"collection"`
	DocumentID string         `json:"document_id"`
	Fields     map[string]any `json:"fields"`
}

// RectifyDataResult lists the fields that were changed.
type RectifyDataResult struct {
	Message       string   `json:"message"`
	UpdatedFields []string `json:"updated_fields"`
}

// AuditLogFilter narrows an audit-log query.
type AuditLogFilter struct {
	Action string `json:"action,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// AuditLogEntry is one recorded access or change.
type AuditLogEntry struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// AuditLogsResult lists audit log entries, newest first.
type AuditLogsResult struct {
	AuditLogs []AuditLogEntry `json:"audit_logs"`
}

// --- Breach management ---

// BreachRecord is a logged data breach.
type BreachRecord struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Severity           Severity           `json:"severity"`
	Status             BreachStatus       `json:"status"`
	NotificationStatus NotificationStatus `json:"notification_status"`
	AffectedUserIDs    []string           `json:"affected_user_ids,omitempty"`
	DataCategories     []string           `json:"data_categories,omitempty"`
	ReportedBy         string             `json:"reported_by"`
	Notes              string             `json:"notes,omitempty"`
	NotificationDue    string             `json:"notification_deadline,omitempty"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
}

// LogBreachInput records a new breach.
type LogBreachInput struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Severity        Severity `json:"severity"`
	AffectedUserIDs []string `json:"affected_user_ids"`
	DataCategories  []string `json:"data_categories"`
	ReportedBy      string   `json:"reported_by"`
}

// BreachResult wraps a single breach record.
type BreachResult struct {
	Message string       `json:"message,omitempty"`
	Breach  BreachRecord `json:"breach"`
}

// BreachListFilter narrows a breach listing.
type BreachListFilter struct {
	Status BreachStatus `json:"status,omitempty"`
	Limit  int          `json:"limit,omitempty"`
}

// BreachListResult lists breaches in the order they were logged.
type BreachListResult struct {
	Breaches []BreachRecord `json:"breaches"`
}

// GetBreachInput fetches one breach.
type GetBreachInput struct {
	ID string `json:"id"`
}

// UpdateBreachStatusInput moves a breach to a new status.
type UpdateBreachStatusInput struct {
	ID                 string             `json:"id"`
	Status             BreachStatus       `json:"status"`
	NotificationStatus NotificationStatus `json:"notification_status,omitempty"`
	Notes              string             `json:"notes,omitempty"`
}
