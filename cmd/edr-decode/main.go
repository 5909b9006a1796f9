package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/mdanalysis/go-edr/edr"
)

var cli struct {
	Args struct {
		Filename string
	} `positional-args:"yes" required:"yes"`
	LogLevel   string `short:"l" long:"log-level" description:"logging level" choice:"error" choice:"info" choice:"debug" choice:"trace" default:"info"`
	UnitsOnly  bool   `long:"units-only" description:"print the unit dictionary and exit without decoding frames"`
}

func main() {
	_, err := flags.Parse(&cli)
	if err != nil {
		os.Exit(1)
	}

	errorLevels := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"trace": logrus.TraceLevel,
	}
	logrus.SetLevel(errorLevels[cli.LogLevel])

	logrus.Info(color.CyanString("decoding " + cli.Args.Filename))

	if cli.UnitsOnly {
		units, err := edr.ReadUnitsFile(cli.Args.Filename)
		if err != nil {
			logrus.Fatal(err)
		}
		for name, unit := range units {
			fmt.Printf("%s (%s)\n", name, unit)
		}
		return
	}

	result, err := edr.DecodeFile(cli.Args.Filename, edr.DecodeOptions{
		ProgressFunc: func(frameIndex int, t float64) {
			logrus.Debugf("frame %d at t=%.3f", frameIndex, t)
		},
	})
	if err != nil {
		logrus.Fatal(err)
	}

	logrus.Info(color.GreenString("done"))
	fmt.Printf("columns: %d\n", len(result.ColumnNames))
	fmt.Printf("frames:  %d\n", len(result.Rows))
	if len(result.Times) > 0 {
		fmt.Printf("time range: %.3f .. %.3f\n", result.Times[0], result.Times[len(result.Times)-1])
	}
	for _, w := range result.Warnings {
		logrus.Warn(w)
	}
}
