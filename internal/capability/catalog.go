package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dusk-indust/safeguard/internal/operation"
	"github.com/dusk-indust/safeguard/internal/safety"
)

// ErrUnknown is returned for a capability name the catalog does not know.
var ErrUnknown = errors.New("capability: unknown capability")

// ErrBadInput is returned when raw input cannot be decoded for a capability.
var ErrBadInput = errors.New("capability: invalid input")

// Descriptor names one capability and knows how to drive its operation in a
// Set from raw JSON input.
type Descriptor struct {
	Name        string `json:"name"`
	Arity       Arity  `json:"arity"`
	Description string `json:"description"`

	invoke func(ctx context.Context, s *Set, raw json.RawMessage) (any, error)
	reset  func(s *Set)
	status func(s *Set) operation.Status
}

// Invoke decodes raw into the capability's input and executes its operation
// in s. Empty or null input leaves the input at its zero value, which is a
// nil filter for optional capabilities.
func (d Descriptor) Invoke(ctx context.Context, s *Set, raw json.RawMessage) (any, error) {
	return d.invoke(ctx, s, raw)
}

// Reset returns the capability's operation in s to Idle.
func (d Descriptor) Reset(s *Set) { d.reset(s) }

// Status reports the current status of the capability's operation in s.
func (d Descriptor) Status(s *Set) operation.Status { return d.status(s) }

func entry[In, Out any](name string, arity Arity, desc string, pick func(*Set) *operation.Operation[In, Out]) Descriptor {
	return Descriptor{
		Name:        name,
		Arity:       arity,
		Description: desc,
		invoke: func(ctx context.Context, s *Set, raw json.RawMessage) (any, error) {
			var in In
			if err := decode(name, arity, raw, &in); err != nil {
				return nil, err
			}
			out, err := pick(s).Execute(ctx, in)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
		reset:  func(s *Set) { pick(s).Reset() },
		status: func(s *Set) operation.Status { return pick(s).State().Status },
	}
}

func decode(name string, arity Arity, raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if arity == ArityNone {
		if bytes.Equal(raw, []byte("{}")) {
			return nil
		}
		return fmt.Errorf("%w: %s takes no input", ErrBadInput, name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadInput, name, err)
	}
	return nil
}

var catalog = []Descriptor{
	entry(NameDetectBullying, ArityRequired, "Classify content for bullying.",
		func(s *Set) *operation.Operation[safety.DetectBullyingInput, *safety.BullyingResult] { return s.DetectBullying }),
	entry(NameDetectGrooming, ArityRequired, "Classify a conversation for grooming patterns.",
		func(s *Set) *operation.Operation[safety.DetectGroomingInput, *safety.GroomingResult] { return s.DetectGrooming }),
	entry(NameDetectUnsafe, ArityRequired, "Classify content for self-harm, violence and other unsafe categories.",
		func(s *Set) *operation.Operation[safety.DetectUnsafeInput, *safety.UnsafeResult] { return s.DetectUnsafe }),
	entry(NameAnalyze, ArityRequired, "Run bullying and unsafe-content detection in one call.",
		func(s *Set) *operation.Operation[safety.AnalyzeInput, *safety.AnalyzeResult] { return s.Analyze }),
	entry(NameAnalyzeEmotions, ArityRequired, "Report the emotional state expressed in content.",
		func(s *Set) *operation.Operation[safety.AnalyzeEmotionsInput, *safety.EmotionsResult] { return s.AnalyzeEmotions }),
	entry(NameGetActionPlan, ArityRequired, "Recommend next steps for a situation.",
		func(s *Set) *operation.Operation[safety.ActionPlanInput, *safety.ActionPlanResult] { return s.GetActionPlan }),
	entry(NameGenerateReport, ArityRequired, "Build an incident report from a conversation.",
		func(s *Set) *operation.Operation[safety.ReportInput, *safety.ReportResult] { return s.GenerateReport }),

	entry(NameDeleteAccountData, ArityNone, "Erase all data held for the account.",
		func(s *Set) *operation.Operation[operation.None, *safety.AccountDeletionResult] { return s.DeleteAccountData }),
	entry(NameExportAccountData, ArityNone, "Export all data held for the account.",
		func(s *Set) *operation.Operation[operation.None, *safety.AccountExportResult] { return s.ExportAccountData }),
	entry(NameRecordConsent, ArityRequired, "Grant consent for a processing type.",
		func(s *Set) *operation.Operation[safety.RecordConsentInput, *safety.ConsentResult] { return s.RecordConsent }),
	entry(NameGetConsentStatus, ArityOptional, "List consent records, optionally for one type.",
		func(s *Set) *operation.Operation[*safety.ConsentStatusFilter, *safety.ConsentStatusResult] { return s.GetConsentStatus }),
	entry(NameWithdrawConsent, ArityRequired, "Withdraw consent for a processing type.",
		func(s *Set) *operation.Operation[safety.WithdrawConsentInput, *safety.ConsentResult] { return s.WithdrawConsent }),
	entry(NameRectifyData, ArityRequired, "Correct fields on a stored document.",
		func(s *Set) *operation.Operation[safety.RectifyDataInput, *safety.RectifyDataResult] { return s.RectifyData }),
	entry(NameGetAuditLogs, ArityOptional, "List audit log entries, newest first.",
		func(s *Set) *operation.Operation[*safety.AuditLogFilter, *safety.AuditLogsResult] { return s.GetAuditLogs }),

	entry(NameLogBreach, ArityRequired, "Record a new data breach.",
		func(s *Set) *operation.Operation[safety.LogBreachInput, *safety.BreachResult] { return s.LogBreach }),
	entry(NameListBreaches, ArityOptional, "List logged breaches, optionally by status.",
		func(s *Set) *operation.Operation[*safety.BreachListFilter, *safety.BreachListResult] { return s.ListBreaches }),
	entry(NameGetBreach, ArityRequired, "Fetch one breach by ID.",
		func(s *Set) *operation.Operation[safety.GetBreachInput, *safety.BreachResult] { return s.GetBreach }),
	entry(NameUpdateBreachStatus, ArityRequired, "Move a breach to a new status.",
		func(s *Set) *operation.Operation[safety.UpdateBreachStatusInput, *safety.BreachResult] { return s.UpdateBreachStatus }),
}

// Catalog returns every capability in a stable order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a capability by name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Invoke executes the named capability in s with raw JSON input.
func Invoke(ctx context.Context, s *Set, name string, raw json.RawMessage) (any, error) {
	d, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return d.Invoke(ctx, s, raw)
}
