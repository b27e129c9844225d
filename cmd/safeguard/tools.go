package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/safeguard/internal/capability"
	"github.com/dusk-indust/safeguard/internal/mcptools"
)

func (a *app) runCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "run <capability>",
		Short: "Run any capability by name with JSON input",
		Long: `Runs a capability from the catalog (see "safeguard capabilities").

Input is JSON matching the capability's request record. Capabilities without
arguments take no input; optional filters may be omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, input)
			if err != nil {
				return err
			}
			set, err := a.set()
			if err != nil {
				return err
			}
			out, err := capability.Invoke(cmd.Context(), set, args[0], raw)
			if err != nil {
				return err
			}
			return a.print(out)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "request JSON, @file or - for stdin")
	return cmd
}

func (a *app) screenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screen <content>",
		Short: "Run bullying, unsafe-content and emotion analysis in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.set()
			if err != nil {
				return err
			}
			res, err := capability.Screen(cmd.Context(), set, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}
}

func (a *app) capabilitiesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "List every capability with its calling convention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat := capability.Catalog()
			if asJSON {
				return a.print(cat)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tARITY\tDESCRIPTION")
			for _, d := range cat {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Arity, d.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) serveMCPCmd() *cobra.Command {
	var (
		addr  string
		stdio bool
	)
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve every capability as an MCP tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := a.set()
			if err != nil {
				return err
			}
			server := mcptools.NewServer(set, a.logger)
			if stdio {
				return mcptools.RunStdio(cmd.Context(), server)
			}
			if addr == "" {
				addr = a.cfg.MCPAddr
			}
			if addr == "" {
				addr = "127.0.0.1:8686"
			}
			return mcptools.RunHTTP(cmd.Context(), server, addr, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address for streamable HTTP (default 127.0.0.1:8686)")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve over stdin/stdout instead of HTTP")
	return cmd
}
