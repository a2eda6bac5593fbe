package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charleschow/fairodds/internal/core/journal"
)

func main() {
	n := flag.Int("n", 10, "number of recent matches to list")
	matchID := flag.String("match", "", "print the minute rows of one match")
	dbPath := flag.String("db", "data/journal.db", "path to the journal")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "journal %s: %v\n", *dbPath, err)
		os.Exit(1)
	}

	store, err := journal.OpenStore(*dbPath, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open journal: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *matchID != "" {
		printMinutes(store, *matchID)
		return
	}
	printMatches(store, *n)
}

func printMatches(store *journal.Store, n int) {
	matches, err := store.Matches(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(1)
	}
	if len(matches) == 0 {
		fmt.Println("(no matches journaled)")
		return
	}

	fmt.Printf("=== Matches (%d most recent, %d minute rows total) ===\n", len(matches), store.Count())
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tSTARTED\tPRESET\tHOME\tAWAY\tMINUTES\tLAST")
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			m.MatchID, m.StartedAt.Local().Format("2006-01-02 15:04"), m.Preset,
			orDash(m.HomeTeam), orDash(m.AwayTeam), m.Minutes, m.LastEvent)
	}
	tw.Flush()
}

func printMinutes(store *journal.Store, matchID string) {
	rows, err := store.Minutes(matchID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Printf("(no minute rows for %s)\n", matchID)
		return
	}

	fmt.Printf("=== %s (%d rows) ===\n", matchID, len(rows))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tMIN\tSHOTS\tH/A\tATT\tCRN\tGOALS\tΔHOME\tΔAWAY\tTOTAL_EG\tLINE\tP(OVER)\tFAIR\tLIVE\tTIER")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d/%d\t%d\t%d\t%d-%d\t%.4f\t%.4f\t%.4f\t%.1f\t%s\t%s\t%s\t%s\n",
			r.Seq, r.Minute, r.Shots, r.HomeShots, r.AwayShots, r.Attacks, r.Corners,
			r.GoalsHome, r.GoalsAway, r.DeltaHome, r.DeltaAway, r.TotalEG, r.Line,
			fmtPtr(r.Probability, "%.4f"), fmtPtr(r.FairOdd, "%.2f"), fmtPtr(r.LiveOdd, "%.2f"), orDash(r.Tier))
	}
	tw.Flush()
}

func fmtPtr(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
