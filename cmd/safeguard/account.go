package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/safeguard/internal/capability"
	"github.com/dusk-indust/safeguard/internal/operation"
	"github.com/dusk-indust/safeguard/internal/safety"
)

func (a *app) accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Data-subject rights: erasure, export, consent, rectification and audit",
	}

	var confirm bool
	erase := &cobra.Command{
		Use:   "erase",
		Short: "Erase all data held for the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return fmt.Errorf("refusing to erase account data without --yes")
			}
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[operation.None, *safety.AccountDeletionResult] {
				return s.DeleteAccountData
			}, operation.None{})
		},
	}
	erase.Flags().BoolVar(&confirm, "yes", false, "confirm erasure")

	export := &cobra.Command{
		Use:   "export",
		Short: "Export all data held for the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[operation.None, *safety.AccountExportResult] {
				return s.ExportAccountData
			}, operation.None{})
		},
	}

	var (
		collection string
		documentID string
		fields     map[string]string
	)
	rectify := &cobra.Command{
		Use:   "rectify",
		Short: "Correct fields on a stored document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := safety.RectifyDataInput{
				Collection: collection,
				DocumentID: documentID,
				Fields:     make(map[string]any, len(fields)),
			}
			for k, v := range fields {
				in.Fields[k] = v
			}
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.RectifyDataInput, *safety.RectifyDataResult] {
				return s.RectifyData
			}, in)
		},
	}
	rectify.Flags().StringVar(&collection, "collection", "", "collection holding the document")
	rectify.Flags().StringVar(&documentID, "id", "", "document ID")
	rectify.Flags().StringToStringVar(&fields, "field", nil, "field=value to set (repeatable)")
	_ = rectify.MarkFlagRequired("collection")
	_ = rectify.MarkFlagRequired("id")

	var (
		action string
		limit  int
	)
	audit := &cobra.Command{
		Use:   "audit",
		Short: "List audit log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *safety.AuditLogFilter
			if action != "" || limit > 0 {
				filter = &safety.AuditLogFilter{Action: action, Limit: limit}
			}
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[*safety.AuditLogFilter, *safety.AuditLogsResult] {
				return s.GetAuditLogs
			}, filter)
		},
	}
	audit.Flags().StringVar(&action, "action", "", "only entries for this action")
	audit.Flags().IntVar(&limit, "limit", 0, "maximum entries to return")

	cmd.AddCommand(erase, export, a.consentCmd(), rectify, audit)
	return cmd
}

func (a *app) consentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consent",
		Short: "Record, inspect and withdraw consent",
	}

	var policyVersion string
	record := &cobra.Command{
		Use:   "record <type>",
		Short: "Grant consent for a processing type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.RecordConsentInput, *safety.ConsentResult] {
				return s.RecordConsent
			}, safety.RecordConsentInput{ConsentType: safety.ConsentType(args[0]), Version: policyVersion})
		},
	}
	record.Flags().StringVar(&policyVersion, "policy-version", "1.0", "version of the policy consented to")

	var consentType string
	status := &cobra.Command{
		Use:   "status",
		Short: "List consent records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *safety.ConsentStatusFilter
			if consentType != "" {
				filter = &safety.ConsentStatusFilter{Type: safety.ConsentType(consentType)}
			}
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[*safety.ConsentStatusFilter, *safety.ConsentStatusResult] {
				return s.GetConsentStatus
			}, filter)
		},
	}
	status.Flags().StringVar(&consentType, "type", "", "only records of this consent type")

	withdraw := &cobra.Command{
		Use:   "withdraw <type>",
		Short: "Withdraw consent for a processing type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.WithdrawConsentInput, *safety.ConsentResult] {
				return s.WithdrawConsent
			}, safety.WithdrawConsentInput{ConsentType: safety.ConsentType(args[0])})
		},
	}

	cmd.AddCommand(record, status, withdraw)
	return cmd
}

func (a *app) breachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breach",
		Short: "Log and track data breaches",
	}

	var in safety.LogBreachInput
	var severity string
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Record a new data breach",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Severity = safety.Severity(severity)
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.LogBreachInput, *safety.BreachResult] {
				return s.LogBreach
			}, in)
		},
	}
	lf := logCmd.Flags()
	lf.StringVar(&in.Title, "title", "", "short title")
	lf.StringVar(&in.Description, "description", "", "what happened")
	lf.StringVar(&severity, "severity", string(safety.SeverityMedium), "low, medium, high or critical")
	lf.StringSliceVar(&in.AffectedUserIDs, "affected", nil, "affected user IDs")
	lf.StringSliceVar(&in.DataCategories, "categories", nil, "categories of data involved")
	lf.StringVar(&in.ReportedBy, "reported-by", "", "who reported the breach")
	_ = logCmd.MarkFlagRequired("title")

	var (
		listStatus string
		listLimit  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List logged breaches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *safety.BreachListFilter
			if listStatus != "" || listLimit > 0 {
				filter = &safety.BreachListFilter{Status: safety.BreachStatus(listStatus), Limit: listLimit}
			}
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[*safety.BreachListFilter, *safety.BreachListResult] {
				return s.ListBreaches
			}, filter)
		},
	}
	list.Flags().StringVar(&listStatus, "status", "", "only breaches in this status")
	list.Flags().IntVar(&listLimit, "limit", 0, "maximum breaches to return")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one breach",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.GetBreachInput, *safety.BreachResult] {
				return s.GetBreach
			}, safety.GetBreachInput{ID: args[0]})
		},
	}

	var (
		newStatus    string
		notification string
		notes        string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Move a breach to a new status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, a, func(s *capability.Set) *operation.Operation[safety.UpdateBreachStatusInput, *safety.BreachResult] {
				return s.UpdateBreachStatus
			}, safety.UpdateBreachStatusInput{
				ID:                 args[0],
				Status:             safety.BreachStatus(newStatus),
				NotificationStatus: safety.NotificationStatus(notification),
				Notes:              notes,
			})
		},
	}
	update.Flags().StringVar(&newStatus, "status", "", "investigating, contained, reported or resolved")
	update.Flags().StringVar(&notification, "notification", "", "pending, users_notified, dpa_notified or completed")
	update.Flags().StringVar(&notes, "notes", "", "investigation notes")
	_ = update.MarkFlagRequired("status")

	cmd.AddCommand(logCmd, list, get, update)
	return cmd
}
