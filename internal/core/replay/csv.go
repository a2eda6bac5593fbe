package replay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charleschow/fairodds/internal/core/state/match"
)

var ErrBadCSV = errors.New("bad replay csv")

// Columns understood by ReadCSV. Only minute is required; missing count
// columns read as zero and unknown columns are ignored.
var csvColumns = []string{
	"minute", "shots", "home_shots", "away_shots", "attacks",
	"corners", "goals_home", "goals_away", "live_odd",
}

func LoadCSV(path string) ([]match.EventInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) ([]match.EventInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", ErrBadCSV)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["minute"]; !ok {
		return nil, fmt.Errorf("missing minute column: %w", ErrBadCSV)
	}

	var rows []match.EventInput
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, ErrBadCSV)
		}
		in, err := parseRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, ErrBadCSV)
		}
		rows = append(rows, in)
	}
	return rows, nil
}

func parseRow(rec []string, idx map[string]int) (match.EventInput, error) {
	cell := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	ints := make(map[string]int, len(csvColumns))
	for _, name := range csvColumns[:len(csvColumns)-1] {
		v := cell(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return match.EventInput{}, fmt.Errorf("%s=%q", name, v)
		}
		ints[name] = n
	}
	var live float64
	if v := cell("live_odd"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return match.EventInput{}, fmt.Errorf("live_odd=%q", v)
		}
		live = f
	}
	return match.EventInput{
		Minute:    ints["minute"],
		Shots:     ints["shots"],
		HomeShots: ints["home_shots"],
		AwayShots: ints["away_shots"],
		Attacks:   ints["attacks"],
		Corners:   ints["corners"],
		GoalsHome: ints["goals_home"],
		GoalsAway: ints["goals_away"],
		LiveOdd:   live,
	}, nil
}

// WriteCSV writes accepted records in the same column layout plus the
// derived EG and fair-odd columns.
func WriteCSV(w io.Writer, recs []match.LogRecord) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, csvColumns...), "home_eg", "away_eg", "total_eg", "fair_odd", "tier")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range recs {
		fair := ""
		if r.OddAvailable {
			fair = strconv.FormatFloat(r.FairOdd, 'f', 2, 64)
		}
		live := ""
		if r.LiveOdd > 0 {
			live = strconv.FormatFloat(r.LiveOdd, 'f', 2, 64)
		}
		row := []string{
			strconv.Itoa(r.Minute),
			strconv.Itoa(r.Shots),
			strconv.Itoa(r.HomeShots),
			strconv.Itoa(r.AwayShots),
			strconv.Itoa(r.Attacks),
			strconv.Itoa(r.Corners),
			strconv.Itoa(r.GoalsHome),
			strconv.Itoa(r.GoalsAway),
			live,
			strconv.FormatFloat(r.HomeEG, 'f', 4, 64),
			strconv.FormatFloat(r.AwayEG, 'f', 4, 64),
			strconv.FormatFloat(r.TotalEG, 'f', 4, 64),
			fair,
			string(r.Tier),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
