package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/segloom/internal/pipeline"
	"github.com/KaramelBytes/segloom/internal/report"
	"github.com/KaramelBytes/segloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	segOutDir   string
	segJSONPath string
	segQuiet    bool
)

// segmentOutput is the machine-readable summary written by --json.
type segmentOutput struct {
	Report *report.Report `json:"report"`
	Charts []string       `json:"charts"`
}

var segmentCmd = &cobra.Command{
	Use:   "segment <file.csv>",
	Short: "Segment one customer CSV and write the charts as PNG files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir := segOutDir
		if outDir == "" && cfg != nil {
			outDir = cfg.OutputDir
		}
		if outDir == "" {
			outDir = "segloom-out"
		}
		rep, charts, err := segmentFile(cmd.Context(), newRunner(), args[0], outDir)
		if err != nil {
			return err
		}
		if segJSONPath != "" {
			b, err := utils.PrettyJSON(segmentOutput{Report: rep, Charts: charts})
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(segJSONPath, b); err != nil {
				return fmt.Errorf("write json: %w", err)
			}
		}
		if !segQuiet {
			fmt.Println(rep.Markdown())
			fmt.Printf("✓ Wrote %d charts to %s\n", len(charts), outDir)
		}
		return nil
	},
}

// segmentFile runs the pipeline on path and writes every artifact into outDir.
func segmentFile(ctx context.Context, runner *pipeline.Runner, path, outDir string) (*report.Report, []string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := runner.Run(ctx, pipeline.Upload{Filename: filepath.Base(path), Body: f})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	charts, err := utils.WritePNGs(outDir, res.Artifacts)
	if err != nil {
		return nil, nil, err
	}
	return report.New(res.RunID, res.Clustered), charts, nil
}

func init() {
	rootCmd.AddCommand(segmentCmd)
	segmentCmd.Flags().StringVarP(&segOutDir, "out", "o", "", "output directory for charts (default from config output_dir)")
	segmentCmd.Flags().StringVar(&segJSONPath, "json", "", "also write a JSON summary to this path")
	segmentCmd.Flags().BoolVar(&segQuiet, "quiet", false, "suppress the printed report")
}
