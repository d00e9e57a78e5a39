package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/creatorgraph/internal/core"
	"github.com/agenthands/creatorgraph/internal/core/model"
)

func newSchemaCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create store constraints and the vector index if absent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd.Context(), func(e *core.Engine) error {
				if err := e.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
				return nil
			})
		},
	}
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <profiles.json>",
		Short: "Store and index profiles from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var profiles []model.ProfileRecord
			if err := json.Unmarshal(data, &profiles); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			return ctx.withEngine(cmd.Context(), func(e *core.Engine) error {
				res, err := e.IngestProfiles(cmd.Context(), profiles)
				if err != nil {
					return err
				}
				return writeJSON(cmd, res)
			})
		},
	}
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Rebuild identity clusters over all stored profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd.Context(), func(e *core.Engine) error {
				res, err := e.ResolveIdentities(cmd.Context())
				if err != nil {
					return err
				}
				if full {
					return writeJSON(cmd, res)
				}
				return writeJSON(cmd, map[string]int{
					"compared":    res.Compared,
					"clusters":    len(res.Clusters),
					"suggestions": len(res.Suggestions),
					"conflicts":   len(res.Conflicts),
					"malformed":   res.Malformed,
				})
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print clusters, suggestions and conflicts")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var topK int
	var namespace string
	var output string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Retrieve and rerank creators for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "table" {
				return fmt.Errorf("unknown output format %q (want json or table)", output)
			}
			req := model.SearchRequest{
				Query:     strings.Join(args, " "),
				TopK:      topK,
				Namespace: namespace,
			}
			return ctx.withEngine(cmd.Context(), func(e *core.Engine) error {
				results, err := e.Search(cmd.Context(), req)
				if err != nil {
					return err
				}
				if output == "table" {
					if len(results) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "no results")
						return nil
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderRanked(results))
					return nil
				}
				return writeJSON(cmd, results)
			})
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of candidates to retrieve (default from config)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Vector namespace (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or table")
	return cmd
}
