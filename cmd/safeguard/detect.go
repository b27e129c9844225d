package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/safeguard/internal/capability"
	"github.com/dusk-indust/safeguard/internal/operation"
	"github.com/dusk-indust/safeguard/internal/safety"
)

// contextFlags are the optional analysis hints shared by the content commands.
type contextFlags struct {
	language string
	ageGroup string
	platform string
}

func (f *contextFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.language, "language", "", "content language hint")
	cmd.Flags().StringVar(&f.ageGroup, "age-group", "", "age group hint, e.g. 10-12")
	cmd.Flags().StringVar(&f.platform, "platform", "", "platform the content came from")
}

func (f *contextFlags) value() *safety.AnalysisContext {
	if f.language == "" && f.ageGroup == "" && f.platform == "" {
		return nil
	}
	return &safety.AnalysisContext{Language: f.language, AgeGroup: f.ageGroup, Platform: f.platform}
}

// readInput resolves an --input value: "-" reads stdin, "@path" reads a file,
// anything else is taken as literal JSON.
func readInput(cmd *cobra.Command, v string) (json.RawMessage, error) {
	switch {
	case v == "":
		return nil, nil
	case v == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	case strings.HasPrefix(v, "@"):
		data, err := os.ReadFile(strings.TrimPrefix(v, "@"))
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return data, nil
	}
	return json.RawMessage(v), nil
}

// decodeInput reads --input into v. Missing input is an error.
func decodeInput(cmd *cobra.Command, raw string, v any) error {
	data, err := readInput(cmd, raw)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("--input is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}

func (a *app) detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect bullying, grooming or unsafe content",
	}

	var bctx contextFlags
	var externalID string
	bullying := &cobra.Command{
		Use:   "bullying <content>",
		Short: "Classify content for bullying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.DetectBullyingInput, *safety.BullyingResult] {
				return s.DetectBullying
			}, safety.DetectBullyingInput{Content: args[0], Context: bctx.value(), ExternalID: externalID})
		},
	}
	bctx.register(bullying)
	bullying.Flags().StringVar(&externalID, "external-id", "", "caller reference echoed in the result")

	var groomingInput string
	grooming := &cobra.Command{
		Use:   "grooming",
		Short: "Classify a conversation for grooming patterns",
		Long: `Reads a grooming request from --input, for example:

  safeguard detect grooming --input '{"messages":[{"role":"adult","content":"..."}],"child_age":12}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in safety.DetectGroomingInput
			if err := decodeInput(cmd, groomingInput, &in); err != nil {
				return err
			}
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.DetectGroomingInput, *safety.GroomingResult] {
				return s.DetectGrooming
			}, in)
		},
	}
	grooming.Flags().StringVar(&groomingInput, "input", "", "request JSON, @file or - for stdin")

	var uctx contextFlags
	unsafeCmd := &cobra.Command{
		Use:   "unsafe <content>",
		Short: "Classify content for self-harm, violence and other unsafe categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.DetectUnsafeInput, *safety.UnsafeResult] {
				return s.DetectUnsafe
			}, safety.DetectUnsafeInput{Content: args[0], Context: uctx.value()})
		},
	}
	uctx.register(unsafeCmd)

	cmd.AddCommand(bullying, grooming, unsafeCmd)
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	var cf contextFlags
	var include []string
	cmd := &cobra.Command{
		Use:   "analyze <content>",
		Short: "Run bullying and unsafe-content detection in one call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.AnalyzeInput, *safety.AnalyzeResult] {
				return s.Analyze
			}, safety.AnalyzeInput{Content: args[0], Context: cf.value(), Include: include})
		},
	}
	cf.register(cmd)
	cmd.Flags().StringSliceVar(&include, "include", nil, "checks to run (default all)")
	return cmd
}

func (a *app) emotionsCmd() *cobra.Command {
	var cf contextFlags
	cmd := &cobra.Command{
		Use:   "emotions <content>",
		Short: "Report the emotional state expressed in content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.AnalyzeEmotionsInput, *safety.EmotionsResult] {
				return s.AnalyzeEmotions
			}, safety.AnalyzeEmotionsInput{Content: args[0], Context: cf.value()})
		},
	}
	cf.register(cmd)
	return cmd
}

func (a *app) actionPlanCmd() *cobra.Command {
	var (
		audience string
		severity string
		childAge int
	)
	cmd := &cobra.Command{
		Use:   "action-plan <situation>",
		Short: "Recommend next steps for a situation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.ActionPlanInput, *safety.ActionPlanResult] {
				return s.GetActionPlan
			}, safety.ActionPlanInput{
				Situation: args[0],
				ChildAge:  childAge,
				Audience:  safety.Audience(audience),
				Severity:  safety.Severity(severity),
			})
		},
	}
	cmd.Flags().StringVar(&audience, "audience", "", "child, parent, educator or platform")
	cmd.Flags().StringVar(&severity, "severity", "", "none, low, medium, high or critical")
	cmd.Flags().IntVar(&childAge, "age", 0, "age of the child involved")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build an incident report from a conversation given as --input JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in safety.ReportInput
			if err := decodeInput(cmd, input, &in); err != nil {
				return err
			}
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.ReportInput, *safety.ReportResult] {
				return s.GenerateReport
			}, in)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "request JSON, @file or - for stdin")
	return cmd
}
