package capability

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/safeguard/internal/operation"
	"github.com/dusk-indust/safeguard/internal/safety"
	"github.com/dusk-indust/safeguard/internal/safety/safetytest"
	"github.com/dusk-indust/safeguard/internal/scope"
)

func fakeScope(f *safetytest.Fake) *scope.Scope {
	return scope.New("key", nil, scope.WithFactory(func(string, *safety.Config) (safety.Client, error) {
		return f, nil
	}))
}

func newSet(t *testing.T, f *safetytest.Fake) *Set {
	t.Helper()
	set, err := NewSet(fakeScope(f))
	require.NoError(t, err)
	return set
}

func TestDetectBullying_Fulfilled(t *testing.T) {
	f := safetytest.New()
	f.DetectBullyingFunc = func(_ context.Context, in safety.DetectBullyingInput) (*safety.BullyingResult, error) {
		assert.Equal(t, "you are worthless", in.Content)
		return &safety.BullyingResult{IsBullying: true, Severity: safety.SeverityHigh}, nil
	}
	set := newSet(t, f)

	out, err := set.DetectBullying.Execute(context.Background(), safety.DetectBullyingInput{Content: "you are worthless"})
	require.NoError(t, err)
	assert.True(t, out.IsBullying)

	st := set.DetectBullying.State()
	assert.Equal(t, operation.StatusFulfilled, st.Status)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
	require.NotNil(t, st.Data)
	assert.Equal(t, safety.SeverityHigh, st.Data.Severity)
}

func TestDetectBullying_RejectedKeepsAPIError(t *testing.T) {
	f := safetytest.New()
	set := newSet(t, f)

	_, err := set.DetectBullying.Execute(context.Background(), safety.DetectBullyingInput{})
	require.Error(t, err)
	assert.ErrorIs(t, err, safety.ErrValidation)

	st := set.DetectBullying.State()
	assert.Equal(t, operation.StatusRejected, st.Status)
	require.NotNil(t, st.Err)
	assert.Equal(t, NameDetectBullying, st.Err.Op)

	var apiErr *safety.APIError
	require.True(t, errors.As(st.Err, &apiErr))
	assert.Equal(t, safety.KindValidation, apiErr.Kind)
	assert.Nil(t, st.Data)
}

func TestSet_EveryCapability(t *testing.T) {
	ctx := context.Background()
	f := safetytest.New()
	set := newSet(t, f)

	_, err := set.DetectBullying.Execute(ctx, safety.DetectBullyingInput{Content: "hello"})
	require.NoError(t, err)
	_, err = set.DetectGrooming.Execute(ctx, safety.DetectGroomingInput{
		Messages: []safety.Message{{Role: "adult", Content: "this is our secret"}},
	})
	require.NoError(t, err)
	_, err = set.DetectUnsafe.Execute(ctx, safety.DetectUnsafeInput{Content: "hello"})
	require.NoError(t, err)
	_, err = set.Analyze.Execute(ctx, safety.AnalyzeInput{Content: "hello"})
	require.NoError(t, err)
	_, err = set.AnalyzeEmotions.Execute(ctx, safety.AnalyzeEmotionsInput{Content: "hello"})
	require.NoError(t, err)
	_, err = set.GetActionPlan.Execute(ctx, safety.ActionPlanInput{Situation: "name calling"})
	require.NoError(t, err)
	_, err = set.GenerateReport.Execute(ctx, safety.ReportInput{Messages: []safety.Message{{Role: "child", Content: "hi"}}})
	require.NoError(t, err)

	_, err = set.RecordConsent.Execute(ctx, safety.RecordConsentInput{ConsentType: safety.ConsentAnalytics, Version: "1"})
	require.NoError(t, err)
	consents, err := set.GetConsentStatus.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, consents.Consents, 1)
	_, err = set.WithdrawConsent.Execute(ctx, safety.WithdrawConsentInput{ConsentType: safety.ConsentAnalytics})
	require.NoError(t, err)
	_, err = set.RectifyData.Execute(ctx, safety.RectifyDataInput{Collection: "users", DocumentID: "u1", Fields: map[string]any{"name": "A"}})
	require.NoError(t, err)
	logs, err := set.GetAuditLogs.Execute(ctx, &safety.AuditLogFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, logs.AuditLogs, 2)
	_, err = set.ExportAccountData.Execute(ctx, operation.None{})
	require.NoError(t, err)
	del, err := set.DeleteAccountData.Execute(ctx, operation.None{})
	require.NoError(t, err)
	assert.Positive(t, del.DeletedCount)

	logged, err := set.LogBreach.Execute(ctx, safety.LogBreachInput{Title: "leak", Severity: safety.SeverityHigh})
	require.NoError(t, err)
	id := logged.Breach.ID
	_, err = set.GetBreach.Execute(ctx, safety.GetBreachInput{ID: id})
	require.NoError(t, err)
	_, err = set.UpdateBreachStatus.Execute(ctx, safety.UpdateBreachStatusInput{ID: id, Status: safety.BreachContained})
	require.NoError(t, err)
	list, err := set.ListBreaches.Execute(ctx, &safety.BreachListFilter{Status: safety.BreachContained})
	require.NoError(t, err)
	require.Len(t, list.Breaches, 1)
	assert.Equal(t, id, list.Breaches[0].ID)

	for _, d := range Catalog() {
		assert.Equal(t, operation.StatusFulfilled, d.Status(set), d.Name)
	}
	assert.Equal(t, len(Catalog()), f.TotalCalls())
}

func TestSet_OperationsAreIndependent(t *testing.T) {
	ctx := context.Background()
	set := newSet(t, safetytest.New())

	_, err := set.DetectBullying.Execute(ctx, safety.DetectBullyingInput{Content: "hi"})
	require.NoError(t, err)
	_, err = set.DetectUnsafe.Execute(ctx, safety.DetectUnsafeInput{})
	require.Error(t, err)

	assert.Equal(t, operation.StatusFulfilled, set.DetectBullying.State().Status)
	assert.Equal(t, operation.StatusRejected, set.DetectUnsafe.State().Status)
	assert.True(t, set.Analyze.State().Idle())

	set.DetectUnsafe.Reset()
	assert.Equal(t, operation.StatusFulfilled, set.DetectBullying.State().Status)

	set.ResetAll()
	for _, d := range Catalog() {
		assert.Equal(t, operation.StatusIdle, d.Status(set), d.Name)
	}
}

func TestSet_SharesOneClient(t *testing.T) {
	var built atomic.Int32
	f := safetytest.New()
	s := scope.New("key", nil, scope.WithFactory(func(string, *safety.Config) (safety.Client, error) {
		built.Add(1)
		return f, nil
	}))

	a, err := NewSet(s)
	require.NoError(t, err)
	b, err := NewSet(s)
	require.NoError(t, err)
	_, err = Bind(s, "extra", safety.Client.DetectBullying)
	require.NoError(t, err)

	_, err = a.DetectBullying.Execute(context.Background(), safety.DetectBullyingInput{Content: "x"})
	require.NoError(t, err)
	_, err = b.DetectBullying.Execute(context.Background(), safety.DetectBullyingInput{Content: "y"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), built.Load())
	assert.Equal(t, 2, f.Calls("DetectBullying"))
	assert.True(t, b.DetectUnsafe.State().Idle(), "sets do not share operation state")
}

func TestFromContext_OutsideScope(t *testing.T) {
	set, err := FromContext(context.Background())
	assert.Nil(t, set)
	assert.ErrorIs(t, err, scope.ErrMissing)
}

func TestFromContext_InsideScope(t *testing.T) {
	f := safetytest.New()
	ctx := scope.NewContext(context.Background(), fakeScope(f))

	set, err := FromContext(ctx)
	require.NoError(t, err)
	_, err = set.ExportAccountData.Execute(ctx, operation.None{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls("ExportAccountData"))
}

func TestNewSet_ConstructionError(t *testing.T) {
	s := scope.New("", nil)
	_, err := NewSet(s)
	assert.ErrorIs(t, err, safety.ErrMissingCredential)

	_, err = BindNone(s, NameExportAccountData, safety.Client.ExportAccountData)
	assert.ErrorIs(t, err, safety.ErrMissingCredential)
}

func TestBindOptional_NilFilterPassesThrough(t *testing.T) {
	f := safetytest.New()
	var got *safety.BreachListFilter
	called := false
	f.ListBreachesFunc = func(_ context.Context, filter *safety.BreachListFilter) (*safety.BreachListResult, error) {
		called, got = true, filter
		return &safety.BreachListResult{}, nil
	}

	op, err := BindOptional(fakeScope(f), NameListBreaches, safety.Client.ListBreaches)
	require.NoError(t, err)
	_, err = op.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Nil(t, got)
}

func TestCatalog(t *testing.T) {
	cat := Catalog()
	require.Len(t, cat, 18)

	seen := make(map[string]bool)
	for _, d := range cat {
		assert.False(t, seen[d.Name], "duplicate %s", d.Name)
		seen[d.Name] = true
		assert.NotEmpty(t, d.Description)
	}

	arity := map[string]Arity{
		NameDeleteAccountData: ArityNone,
		NameExportAccountData: ArityNone,
		NameGetConsentStatus:  ArityOptional,
		NameGetAuditLogs:      ArityOptional,
		NameListBreaches:      ArityOptional,
	}
	for _, d := range cat {
		want, ok := arity[d.Name]
		if !ok {
			want = ArityRequired
		}
		assert.Equal(t, want, d.Arity, d.Name)
	}

	cat[0].Name = "mutated"
	d, ok := Lookup(NameDetectBullying)
	require.True(t, ok)
	assert.Equal(t, NameDetectBullying, d.Name)
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()
	set := newSet(t, safetytest.New())

	out, err := Invoke(ctx, set, NameDetectBullying, json.RawMessage(`{"content":"you are worthless"}`))
	require.NoError(t, err)
	res, ok := out.(*safety.BullyingResult)
	require.True(t, ok)
	assert.True(t, res.IsBullying)
	assert.Equal(t, operation.StatusFulfilled, set.DetectBullying.State().Status)

	out, err = Invoke(ctx, set, NameListBreaches, nil)
	require.NoError(t, err)
	assert.IsType(t, &safety.BreachListResult{}, out)

	_, err = Invoke(ctx, set, NameExportAccountData, json.RawMessage(`{}`))
	require.NoError(t, err)
}

func TestInvoke_Errors(t *testing.T) {
	ctx := context.Background()
	set := newSet(t, safetytest.New())

	_, err := Invoke(ctx, set, "nope", nil)
	assert.ErrorIs(t, err, ErrUnknown)

	_, err = Invoke(ctx, set, NameDetectBullying, json.RawMessage(`{"content":`))
	assert.ErrorIs(t, err, ErrBadInput)
	assert.True(t, set.DetectBullying.State().Idle(), "bad input never starts the operation")

	_, err = Invoke(ctx, set, NameDeleteAccountData, json.RawMessage(`{"force":true}`))
	assert.ErrorIs(t, err, ErrBadInput)

	out, err := Invoke(ctx, set, NameGetBreach, json.RawMessage(`{"id":"missing"}`))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, safety.ErrNotFound)
	assert.Equal(t, operation.StatusRejected, set.GetBreach.State().Status)
}

func TestScreen(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    safety.RiskLevel
	}{
		{name: "clean", content: "see you at practice", want: safety.RiskSafe},
		{name: "bullying", content: "you are worthless", want: safety.RiskHigh},
		{name: "unsafe", content: "i want to hurt myself", want: safety.RiskCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := safetytest.New()
			set := newSet(t, f)

			got, err := Screen(context.Background(), set, tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.RiskLevel)
			assert.NotNil(t, got.Bullying)
			assert.NotNil(t, got.Unsafe)
			assert.NotNil(t, got.Emotions)
			assert.Equal(t, 3, f.TotalCalls())
			assert.Equal(t, operation.StatusFulfilled, set.AnalyzeEmotions.State().Status)
		})
	}
}

func TestScreen_MediumAndLow(t *testing.T) {
	f := safetytest.New()
	f.DetectBullyingFunc = func(context.Context, safety.DetectBullyingInput) (*safety.BullyingResult, error) {
		return &safety.BullyingResult{IsBullying: true, Severity: safety.SeverityLow}, nil
	}
	got, err := Screen(context.Background(), newSet(t, f), "meh")
	require.NoError(t, err)
	assert.Equal(t, safety.RiskMedium, got.RiskLevel)

	f = safetytest.New()
	f.AnalyzeEmotionsFunc = func(context.Context, safety.AnalyzeEmotionsInput) (*safety.EmotionsResult, error) {
		return &safety.EmotionsResult{Trend: "worsening"}, nil
	}
	got, err = Screen(context.Background(), newSet(t, f), "meh")
	require.NoError(t, err)
	assert.Equal(t, safety.RiskLow, got.RiskLevel)
}

func TestScreen_Failure(t *testing.T) {
	f := safetytest.New()
	f.DetectUnsafeFunc = func(context.Context, safety.DetectUnsafeInput) (*safety.UnsafeResult, error) {
		return nil, &safety.APIError{Kind: safety.KindServer, StatusCode: 502}
	}
	set := newSet(t, f)

	got, err := Screen(context.Background(), set, "hello")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, safety.ErrServer)
	assert.Equal(t, operation.StatusRejected, set.DetectUnsafe.State().Status)

	_, err = Screen(context.Background(), set, "  ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}
