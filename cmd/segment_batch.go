package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	sbOutDir string
	sbJobs   int
	sbQuiet  bool
	sbStrict bool
)

var segmentBatchCmd = &cobra.Command{
	Use:   "segment-batch <files...>",
	Short: "Segment several customer CSVs concurrently, one output folder per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		outRoot := sbOutDir
		if outRoot == "" && cfg != nil {
			outRoot = cfg.OutputDir
		}
		if outRoot == "" {
			outRoot = "segloom-out"
		}
		jobs := sbJobs
		if jobs <= 0 && cfg != nil {
			jobs = cfg.BatchJobs
		}
		if jobs <= 0 {
			jobs = 1
		}
		dirs := outputDirs(outRoot, files)

		runner := newRunner()
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)

		var mu sync.Mutex
		var failed []string
		total := len(files)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				rep, charts, err := segmentFile(ctx, runner, path, dirs[i])
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed = append(failed, fmt.Sprintf("%s: %v", filepath.Base(path), err))
					if sbStrict {
						return err
					}
					return nil
				}
				if !sbQuiet {
					fmt.Printf("[%d/%d] %s → %s (%d charts, %d clusters)\n", i+1, total, filepath.Base(path), dirs[i], len(charts), len(rep.Clusters))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if len(failed) > 0 {
			sort.Strings(failed)
			return fmt.Errorf("%d of %d files failed:\n  %s", len(failed), total, strings.Join(failed, "\n  "))
		}
		if !sbQuiet {
			fmt.Printf("✓ Segmented %d files into %s\n", total, outRoot)
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths into a sorted, de-duplicated list.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// outputDirs maps each input to <root>/<basename>, adding a __N suffix when
// two inputs share a basename.
func outputDirs(root string, files []string) []string {
	used := map[string]int{}
	dirs := make([]string, len(files))
	for i, f := range files {
		base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		used[base]++
		name := base
		if n := used[base]; n > 1 {
			name = fmt.Sprintf("%s__%d", base, n)
		}
		dirs[i] = filepath.Join(root, name)
	}
	return dirs
}

func init() {
	rootCmd.AddCommand(segmentBatchCmd)
	segmentBatchCmd.Flags().StringVarP(&sbOutDir, "out", "o", "", "root output directory (default from config output_dir)")
	segmentBatchCmd.Flags().IntVarP(&sbJobs, "jobs", "j", 0, "concurrent files (default from config batch_jobs)")
	segmentBatchCmd.Flags().BoolVar(&sbQuiet, "quiet", false, "suppress progress output")
	segmentBatchCmd.Flags().BoolVar(&sbStrict, "strict", false, "stop at the first failing file")
}
