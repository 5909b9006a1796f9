package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mdanalysis/go-edr/edr"
)

var cmd = &cobra.Command{
	Use:   "edr-batch",
	Short: "edr-batch decodes a directory of GROMACS .edr files concurrently.",
	Run:   run,
}

var directory string
var outdir string
var logLevel string
var runners int
var format string

func init() {
	cmd.PersistentFlags().StringVarP(&directory, "directory", "d", "", "directory of .edr files to process")
	cmd.PersistentFlags().StringVarP(&outdir, "output", "o", "out", "output directory for per-file summaries")
	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "log level, debug, info, warn, error")
	cmd.PersistentFlags().IntVarP(&runners, "threads", "t", runtime.NumCPU(), "threads")
	cmd.PersistentFlags().StringVarP(&format, "format", "f", "csv", "summary format: csv or json")
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("failed to parse level: %s", err)
	}
	logrus.SetLevel(lvl)

	if directory == "" {
		logrus.Fatal("a --directory of .edr files is required")
	}

	batch(directory, outdir)
}

func batch(dir, outdir string) {
	files, err := os.ReadDir(dir)
	if err != nil {
		logrus.Fatal(err)
	}

	if _, err := os.Stat(outdir); os.IsNotExist(err) {
		os.Mkdir(outdir, os.ModePerm)
	}

	bar := pb.StartNew(len(files))

	source := make(chan string, runners)
	wg := sync.WaitGroup{}
	wg.Add(runners)
	for i := 0; i < runners; i++ {
		go func(i int) {
			for edrf := range source {
				in := filepath.Join(dir, edrf)
				f, err := os.Open(in)
				if err != nil {
					logrus.Error(err)
					bar.Increment()
					continue
				}
				result, err := edr.Decode(f, edr.DecodeOptions{})
				f.Close()
				if err != nil {
					logrus.Errorf("%s: %s", edrf, err)
					bar.Increment()
					continue
				}
				for _, w := range result.Warnings {
					logrus.Warnf("%s: %s", edrf, w)
				}
				outf := filepath.Join(outdir, edrf+"."+format)
				if err := writeSummary(outf, result); err != nil {
					logrus.Error(err)
				}
				bar.Increment()
			}
			wg.Done()
		}(i)
	}

	for _, fn := range files {
		if strings.HasSuffix(fn.Name(), ".edr") {
			source <- fn.Name()
		} else {
			bar.Increment()
		}
	}
	close(source)
	wg.Wait()
	bar.Finish()
}

func writeSummary(path string, result *edr.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if format == "json" {
		enc := json.NewEncoder(f)
		return enc.Encode(result)
	}

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(result.ColumnNames); err != nil {
		return err
	}
	for _, row := range result.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
