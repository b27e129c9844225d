package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dusk-indust/safeguard/internal/capability"
	"github.com/dusk-indust/safeguard/internal/config"
	"github.com/dusk-indust/safeguard/internal/safety"
)

// execCLI runs the root command with a no-op logger and an empty config dir.
func execCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{logger: zap.NewNop()}
	defer a.teardown()

	root := a.rootCmd()
	var out bytes.Buffer
	root.SetArgs(append([]string{"--config-dir", t.TempDir()}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestCapabilities(t *testing.T) {
	out, err := execCLI(t, "", "capabilities")
	require.NoError(t, err)
	for _, d := range capability.Catalog() {
		assert.Contains(t, out, d.Name)
	}

	out, err = execCLI(t, "", "capabilities", "--json")
	require.NoError(t, err)
	var got []capability.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, len(capability.Catalog()))
}

func TestDetectBullyingOffline(t *testing.T) {
	out, err := execCLI(t, "", "--offline", "detect", "bullying", "you are worthless")
	require.NoError(t, err)

	var res safety.BullyingResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.IsBullying)
	assert.Equal(t, safety.SeverityHigh, res.Severity)
}

func TestMissingCredential(t *testing.T) {
	t.Setenv("SAFEGUARD_API_KEY", "")

	_, err := execCLI(t, "", "detect", "bullying", "hi")
	assert.ErrorIs(t, err, config.ErrNoCredential)

	// Commands that never reach the client do not need one.
	_, err = execCLI(t, "", "version")
	assert.NoError(t, err)
}

func TestDetectBullyingLive(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotPath = r.Header.Get("Authorization"), r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_bullying":true,"severity":"high"}`))
	}))
	defer srv.Close()
	t.Setenv("SAFEGUARD_API_KEY", "live-key")

	out, err := execCLI(t, "", "--base-url", srv.URL, "detect", "bullying", "you are worthless")
	require.NoError(t, err)
	assert.Equal(t, "Bearer live-key", gotAuth)
	assert.Equal(t, "/api/v1/safety/bullying", gotPath)
	assert.Contains(t, out, `"is_bullying": true`)
}

func TestLiveErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"AUTH","message":"bad key"}}`))
	}))
	defer srv.Close()
	t.Setenv("SAFEGUARD_API_KEY", "wrong")

	_, err := execCLI(t, "", "--base-url", srv.URL, "account", "export")
	assert.ErrorIs(t, err, safety.ErrAuthentication)
	assert.Contains(t, err.Error(), "bad key")
}

func TestRunByName(t *testing.T) {
	out, err := execCLI(t, "", "--offline", "run", "detect_unsafe", "--input", `{"content":"i want to hurt myself"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"unsafe": true`)

	out, err = execCLI(t, `{"situation":"name calling at school"}`, "--offline", "run", "get_action_plan", "--input", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"steps"`)

	_, err = execCLI(t, "", "--offline", "run", "no_such_capability")
	assert.ErrorIs(t, err, capability.ErrUnknown)
}

func TestScreenOffline(t *testing.T) {
	out, err := execCLI(t, "", "--offline", "screen", "nobody", "likes", "you")
	require.NoError(t, err)

	var res capability.Screening
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, safety.RiskHigh, res.RiskLevel)
	assert.Equal(t, "nobody likes you", res.Content)
}

func TestAccountEraseNeedsConfirmation(t *testing.T) {
	_, err := execCLI(t, "", "--offline", "account", "erase")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out, err := execCLI(t, "", "--offline", "account", "erase", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted_count")
}

func TestBreachLogOffline(t *testing.T) {
	out, err := execCLI(t, "", "--offline", "breach", "log", "--title", "exposed bucket", "--severity", "high", "--affected", "u1,u2")
	require.NoError(t, err)

	var res safety.BreachResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, safety.BreachDetected, res.Breach.Status)
	assert.Equal(t, []string{"u1", "u2"}, res.Breach.AffectedUserIDs)
	assert.NotEmpty(t, res.Breach.ID)
}

func TestGroomingNeedsInput(t *testing.T) {
	_, err := execCLI(t, "", "--offline", "detect", "grooming")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--input")

	out, err := execCLI(t, "", "--offline", "detect", "grooming", "--input", `{"messages":[{"role":"adult","content":"keep this our secret"}]}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"grooming_risk": "high"`)
}
