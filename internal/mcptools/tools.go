package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dusk-indust/safeguard/internal/capability"
	"github.com/dusk-indust/safeguard/internal/operation"
	"github.com/dusk-indust/safeguard/internal/safety"
)

// ToolService holds the operations the MCP tool handlers drive.
type ToolService struct {
	set    *capability.Set
	logger *zap.Logger
}

// NoArgs is the input of tools whose capability takes no argument.
type NoArgs struct{}

// ScreenInput is the input for the screen tool.
type ScreenInput struct {
	Content string `json:"content" jsonschema:"text to screen"`
}

// CapabilityStatus is one row of the capability_status tool.
type CapabilityStatus struct {
	Name   string           `json:"name"`
	Arity  capability.Arity `json:"arity"`
	Status operation.Status `json:"status"`
}

// StatusOutput is the result of the capability_status tool.
type StatusOutput struct {
	Capabilities []CapabilityStatus `json:"capabilities"`
}

func registerCapabilities(server *mcp.Server, svc *ToolService) {
	s := svc.set
	addTool(server, svc, capability.NameDetectBullying, s.DetectBullying, same[safety.DetectBullyingInput])
	addTool(server, svc, capability.NameDetectGrooming, s.DetectGrooming, same[safety.DetectGroomingInput])
	addTool(server, svc, capability.NameDetectUnsafe, s.DetectUnsafe, same[safety.DetectUnsafeInput])
	addTool(server, svc, capability.NameAnalyze, s.Analyze, same[safety.AnalyzeInput])
	addTool(server, svc, capability.NameAnalyzeEmotions, s.AnalyzeEmotions, same[safety.AnalyzeEmotionsInput])
	addTool(server, svc, capability.NameGetActionPlan, s.GetActionPlan, same[safety.ActionPlanInput])
	addTool(server, svc, capability.NameGenerateReport, s.GenerateReport, same[safety.ReportInput])

	addTool(server, svc, capability.NameDeleteAccountData, s.DeleteAccountData, none)
	addTool(server, svc, capability.NameExportAccountData, s.ExportAccountData, none)
	addTool(server, svc, capability.NameRecordConsent, s.RecordConsent, same[safety.RecordConsentInput])
	addTool(server, svc, capability.NameGetConsentStatus, s.GetConsentStatus, optional[safety.ConsentStatusFilter])
	addTool(server, svc, capability.NameWithdrawConsent, s.WithdrawConsent, same[safety.WithdrawConsentInput])
	addTool(server, svc, capability.NameRectifyData, s.RectifyData, same[safety.RectifyDataInput])
	addTool(server, svc, capability.NameGetAuditLogs, s.GetAuditLogs, optional[safety.AuditLogFilter])

	addTool(server, svc, capability.NameLogBreach, s.LogBreach, same[safety.LogBreachInput])
	addTool(server, svc, capability.NameListBreaches, s.ListBreaches, optional[safety.BreachListFilter])
	addTool(server, svc, capability.NameGetBreach, s.GetBreach, same[safety.GetBreachInput])
	addTool(server, svc, capability.NameUpdateBreachStatus, s.UpdateBreachStatus, same[safety.UpdateBreachStatusInput])
}

// addTool registers op as a tool. conv maps the tool arguments onto the
// operation input; results are returned by value as structured content.
func addTool[Args, In, Out any](server *mcp.Server, svc *ToolService, name string, op *operation.Operation[In, *Out], conv func(Args) In) {
	d, _ := capability.Lookup(name)
	mcp.AddTool(server, &mcp.Tool{
		Name:        name,
		Description: d.Description,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args Args) (*mcp.CallToolResult, Out, error) {
		var zero Out
		out, err := op.Execute(ctx, conv(args))
		if err != nil {
			svc.logger.Debug("tool failed", zap.String("tool", name), zap.Error(err))
			return nil, zero, err
		}
		if out == nil {
			return nil, zero, nil
		}
		return nil, *out, nil
	})
}

func same[T any](v T) T { return v }

// optional maps an all-zero filter to nil so the client applies no filter.
func optional[F comparable](f F) *F {
	var zero F
	if f == zero {
		return nil
	}
	return &f
}

func none(NoArgs) operation.None { return operation.None{} }

// Screen runs capability.Screen on the input content.
func (svc *ToolService) Screen(ctx context.Context, _ *mcp.CallToolRequest, in ScreenInput) (*mcp.CallToolResult, capability.Screening, error) {
	res, err := capability.Screen(ctx, svc.set, in.Content)
	if err != nil {
		return nil, capability.Screening{}, err
	}
	return nil, *res, nil
}

// Status reports the state of every capability.
func (svc *ToolService) Status(_ context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, StatusOutput, error) {
	cat := capability.Catalog()
	out := StatusOutput{Capabilities: make([]CapabilityStatus, 0, len(cat))}
	for _, d := range cat {
		out.Capabilities = append(out.Capabilities, CapabilityStatus{
			Name:   d.Name,
			Arity:  d.Arity,
			Status: d.Status(svc.set),
		})
	}
	return nil, out, nil
}
