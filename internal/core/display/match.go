package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charleschow/fairodds/internal/core/state/match"
	"github.com/charleschow/fairodds/internal/core/strategy"
)

const (
	dividerHeavy = "========================================================================"
	dividerLight = "~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~"
)

// Header labels the card being printed.
type Header struct {
	EventType string
	MatchID   string
	Home      string
	Away      string
}

// PrintState writes the match card: pregame shares, score, EG and the
// current projection on the policy line.
func PrintState(w io.Writer, h Header, st *match.State, verdict *strategy.Verdict) {
	divider := dividerHeavy
	if h.EventType == "value_flagged" {
		divider = dividerLight
	}
	homeShort := shortName(h.Home)
	awayShort := shortName(h.Away)
	ts := time.Now().Format("3:04:05.000 PM")

	var b strings.Builder
	if h.MatchID != "" {
		fmt.Fprintf(&b, "\n[%s %s]  %s\n", h.EventType, ts, h.MatchID)
	} else {
		fmt.Fprintf(&b, "\n[%s %s]\n", h.EventType, ts)
	}
	fmt.Fprintf(&b, "%s\n", divider)
	fmt.Fprintf(&b, "  %s vs %s  (%s)\n", h.Home, h.Away, st.Policy.Name)
	fmt.Fprintf(&b, "    %-24s%s %.1f%%  |  Draw %.1f%%  |  %s %.1f%%\n",
		"Pregame:", homeShort, st.BaseHomeShare*100, st.BaseDrawShare*100, awayShort, st.BaseAwayShare*100)
	if st.MarginWarning {
		fmt.Fprintf(&b, "    %-24simplied sum %.4f outside normal range\n", "Margin:", st.ImpliedSum)
	}
	fmt.Fprintf(&b, "    %-24s%s  |  minute %d\n", "Score:", st.Score(), st.Minute)
	fmt.Fprintf(&b, "    %-24s%s %.3f  |  %s %.3f  |  total %.3f\n",
		"Expected goals:", homeShort, st.HomeEG, awayShort, st.AwayEG, st.TotalEG)

	if n := len(st.Log); n > 0 {
		last := st.Log[n-1]
		fmt.Fprintf(&b, "    %-24s%s %+.4f  |  %s %+.4f\n", "Last minute:", homeShort, last.DeltaHome, awayShort, last.DeltaAway)
	}

	proj, err := st.Project(st.Policy.Line)
	if err != nil {
		fmt.Fprintf(&b, "    %-24sover %.1f: no fair odd available\n", "Projection:", st.Policy.Line)
	} else {
		fmt.Fprintf(&b, "    %-24sover %.1f  p=%.4f  fair %.2f  |  under fair %.2f\n",
			"Projection:", proj.Line, proj.Probability, proj.FairOdd, proj.UnderFairOdd())
	}
	if verdict != nil {
		fmt.Fprintf(&b, "    >>> live %.2f vs fair %.2f  ratio %.4f (%+.1f%%)  %s\n",
			verdict.LiveOdd, verdict.FairOdd, verdict.Ratio, verdict.EdgePct, strings.ToUpper(verdict.Tier.Label()))
	}
	fmt.Fprintf(&b, "%s\n", divider)

	fmt.Fprint(w, b.String())
}

// PrintHistory writes the event history table, one row per accepted minute.
func PrintHistory(w io.Writer, log []match.LogRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MIN\tSHOTS\tH_SHOTS\tA_SHOTS\tATT\tCRN\tGOALS\tΔHOME\tΔAWAY\tTOTAL_EG\tFAIR\tLIVE\tVALUE")
	for _, r := range log {
		fair := "-"
		if r.OddAvailable {
			fair = fmt.Sprintf("%.2f", r.FairOdd)
		}
		live, value := "-", "-"
		if r.LiveOdd > 0 {
			live = fmt.Sprintf("%.2f", r.LiveOdd)
		}
		if r.Tier != "" {
			value = r.Tier.Label()
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d-%d\t%+.4f\t%+.4f\t%.3f\t%s\t%s\t%s\n",
			r.Minute, r.Shots, r.HomeShots, r.AwayShots, r.Attacks, r.Corners,
			r.GoalsHome, r.GoalsAway, r.DeltaHome, r.DeltaAway, r.TotalEG, fair, live, value)
	}
	return tw.Flush()
}

var teamSuffixes = map[string]bool{
	"FC": true, "SC": true, "CF": true, "AFC": true, "FK": true,
	"BK": true, "IF": true, "SK": true, "CD": true, "AD": true,
	"UD": true, "SV": true, "CA": true, "RC": true,
}

// shortName picks the distinctive word of a team label for column headers.
func shortName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return name
	}
	last := parts[len(parts)-1]
	if len(parts) > 1 && teamSuffixes[strings.ToUpper(last)] {
		return parts[len(parts)-2]
	}
	return last
}
