package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"company_analyzer/internal/feature/analysis/domain/entity"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "analyzer",
		Short: "Work with company analysis records offline",
		Long: `Create, edit and export company analysis records stored as JSON files.

Examples:
  analyzer scaffold "Acme Corp" > acme.json
  analyzer set acme.json --section company_info --field Industry --value Software
  analyzer set acme.json --section market_comparison --dimension Pricing --column "Competitor A" --value "Per seat"
  analyzer progress acme.json
  analyzer report acme.json --render
  analyzer token --subject ops --ttl 1h`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newScaffoldCmd(),
		newSetCmd(),
		newProgressCmd(),
		newReportCmd(),
		newTokenCmd(),
	)
	return root
}

// readRecord loads a record file and coerces it into the closed schema.
// A missing or malformed timestamp is replaced by the file's modification
// time, so reading an unchanged file always yields the same record.
func readRecord(path string) (entity.AnalysisRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.AnalysisRecord{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return entity.AnalysisRecord{}, err
	}
	var raw entity.AnalysisRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return entity.AnalysisRecord{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entity.Conform(raw, raw.CompanyName, info.ModTime()), nil
}

func writeRecord(w io.Writer, r entity.AnalysisRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

func writeRecordFile(path string, r entity.AnalysisRecord) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".analysis-*.json")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := writeRecord(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
