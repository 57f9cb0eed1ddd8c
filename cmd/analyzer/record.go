package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/domain/merge"
	"company_analyzer/internal/feature/analysis/domain/progress"
	"company_analyzer/internal/feature/analysis/domain/report"
	"company_analyzer/internal/feature/analysis/usecase"
)

const renderWidth = 100

func newScaffoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scaffold <company>",
		Short: "Print an empty analysis record for a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := usecase.ValidateCompanyName(args[0])
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), entity.NewScaffold(name, time.Now()))
		},
	}
}

func newSetCmd() *cobra.Command {
	var section, field, dimension, column, value, out string

	cmd := &cobra.Command{
		Use:   "set <file>",
		Short: "Set one field or comparison cell of a record file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := readRecord(args[0])
			if err != nil {
				return err
			}

			target := entity.ParseTarget(section, field)
			if dimension != "" || column != "" {
				target = entity.Target{Section: entity.Section(section), Dimension: dimension, Column: column}
			}
			updated, err := merge.ApplyUpdate(r, target, value)
			if err != nil {
				return err
			}

			dst := args[0]
			if out != "" {
				dst = out
			}
			if err := writeRecordFile(dst, updated); err != nil {
				return err
			}
			s := progress.Summarize(updated)
			fmt.Fprintf(cmd.ErrOrStderr(), "updated %s (%d/%d complete)\n", target, s.Completed, s.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "company_info, products_services or market_comparison")
	cmd.Flags().StringVar(&field, "field", "", "field name, or <dimension>.<column> for market_comparison")
	cmd.Flags().StringVar(&dimension, "dimension", "", "market comparison dimension")
	cmd.Flags().StringVar(&column, "column", "", "market comparison column")
	cmd.Flags().StringVar(&value, "value", "", "new value")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of updating in place")
	_ = cmd.MarkFlagRequired("section")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <file>",
		Short: "Show how many fields of a record are still placeholders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := readRecord(args[0])
			if err != nil {
				return err
			}
			s := progress.Summarize(r)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d complete (%.0f%%), %d to fill\n",
				r.CompanyName, s.Completed, s.Total, s.Ratio*100, s.Incomplete)
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	var render bool

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Print the markdown report of a record file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := readRecord(args[0])
			if err != nil {
				return err
			}
			md := report.Serialize(r)
			if render {
				tr, err := glamour.NewTermRenderer(
					glamour.WithAutoStyle(),
					glamour.WithWordWrap(renderWidth),
				)
				if err != nil {
					return fmt.Errorf("failed to create renderer: %w", err)
				}
				if md, err = tr.Render(md); err != nil {
					return fmt.Errorf("failed to render report: %w", err)
				}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "render for the terminal")
	return cmd
}
