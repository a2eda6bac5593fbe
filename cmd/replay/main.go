package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charleschow/fairodds/internal/config"
	"github.com/charleschow/fairodds/internal/core/display"
	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/replay"
	"github.com/charleschow/fairodds/internal/core/state/match"
	"github.com/charleschow/fairodds/internal/core/strategy"
)

func main() {
	modelPath := flag.String("model", "config/model.yaml", "model file with policy presets")
	preset := flag.String("preset", "", "preset for CSV input (default: model default)")
	line := flag.Float64("line", 0, "over/under line override (0 = preset line)")
	home := flag.Float64("home", 0, "pre-match home decimal odd (CSV input)")
	draw := flag.Float64("draw", 0, "pre-match draw decimal odd (CSV input)")
	away := flag.Float64("away", 0, "pre-match away decimal odd (CSV input)")
	out := flag.String("out", "", "write the minute log as CSV to this path")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: replay [flags] <script.yaml|rows.csv>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	model, err := config.LoadModel(*modelPath)
	if errors.Is(err, os.ErrNotExist) {
		model = config.DefaultModel()
	} else if err != nil {
		log.Fatalf("load model: %v", err)
	}

	var sc replay.Script
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		sc, err = replay.LoadScript(path)
		if err != nil {
			log.Fatalf("%v", err)
		}
	case ".csv":
		rows, err := replay.LoadCSV(path)
		if err != nil {
			log.Fatalf("%v", err)
		}
		sc = replay.Script{
			Name:   filepath.Base(path),
			Preset: *preset,
			Odds:   odds.MarketOdds{Home: *home, Draw: *draw, Away: *away},
			Rows:   rows,
		}
	default:
		log.Fatalf("unsupported input %q (want .yaml, .yml or .csv)", path)
	}

	if sc.Preset == "" {
		sc.Preset = model.DefaultPreset
	}
	if *line > 0 {
		sc.Line = *line
	}

	st, res, playErr := sc.Play(model.Presets)
	if st == nil {
		log.Fatalf("start match: %v", playErr)
	}

	h := display.Header{EventType: "replay", MatchID: sc.Name, Home: sc.Home, Away: sc.Away}
	display.PrintState(os.Stdout, h, st, lastVerdict(st, model.Thresholds))
	fmt.Println()
	if err := display.PrintHistory(os.Stdout, st.Log); err != nil {
		log.Fatalf("print history: %v", err)
	}

	if *out != "" {
		if err := writeLog(*out, st.Log); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
		fmt.Printf("\nWrote %d rows to %s\n", len(st.Log), *out)
	}

	fmt.Printf("\nApplied %d/%d rows  preset=%s  line=%.1f\n", res.Applied, len(sc.Rows), st.Policy.Name, st.Policy.Line)
	if playErr != nil {
		var rowErr *replay.RowError
		if errors.As(playErr, &rowErr) {
			fmt.Fprintf(os.Stderr, "stopped at %v\n", rowErr)
		} else {
			fmt.Fprintf(os.Stderr, "stopped: %v\n", playErr)
		}
		os.Exit(1)
	}
}

// lastVerdict re-evaluates the final row when it carried a live odd.
func lastVerdict(st *match.State, th strategy.Thresholds) *strategy.Verdict {
	if len(st.Log) == 0 {
		return nil
	}
	last := st.Log[len(st.Log)-1]
	if last.LiveOdd <= 1 || !last.OddAvailable {
		return nil
	}
	v, err := th.Evaluate(last.FairOdd, last.LiveOdd)
	if err != nil {
		return nil
	}
	return &v
}

func writeLog(path string, recs []match.LogRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := replay.WriteCSV(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
