package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charleschow/fairodds/internal/config"
	"github.com/charleschow/fairodds/internal/events"
	"github.com/charleschow/fairodds/internal/fanout"
	"github.com/charleschow/fairodds/internal/telemetry"
)

func main() {
	cfg := config.Load()
	addr := flag.String("addr", cfg.FanoutAddr, "fanout server host:port")
	matchID := flag.String("match", "", "follow one match (default: all)")
	flag.Parse()

	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	bus := events.NewBus()
	bus.SubscribeAll(printEvent)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	telemetry.Infof("Watching %s  match=%q", *addr, *matchID)
	fanout.NewClient(*addr, *matchID, bus).ConnectWithRetry(ctx)
}

func printEvent(evt events.Event) error {
	id := shortID(evt.MatchID)
	switch p := evt.Payload.(type) {
	case events.MatchStartedEvent:
		telemetry.Infof("[%s] %s  %s vs %s  preset=%s  odds=%.2f/%.2f/%.2f  eg=%.3f+%.3f",
			id, evt.Type, p.Home, p.Away, p.Preset, p.HomeOdd, p.DrawOdd, p.AwayOdd, p.HomeEG, p.AwayEG)
		if p.MarginWarning {
			telemetry.Warnf("[%s] implied probabilities outside [0.9, 1.1]", id)
		}
	case events.MinuteRecordedEvent:
		odd := "n/a"
		if p.OddAvailable {
			odd = formatOdd(p.FairOdd)
		}
		telemetry.Infof("[%s] min %2d  %d x %d  eg=%.4f  p(over %.1f)=%.4f  fair=%s  tier=%s",
			id, p.Minute, p.HomeGoals, p.AwayGoals, p.TotalEG, p.Line, p.Probability, odd, orNone(p.Tier))
	case events.ValueFlaggedEvent:
		telemetry.Warnf("[%s] VALUE %s  min %d  live=%.2f  fair=%.2f  edge=%+.1f%%",
			id, p.Tier, p.Minute, p.LiveOdd, p.FairOdd, p.EdgePct)
	case events.MatchClosedEvent:
		telemetry.Infof("[%s] closed  min %d  %d x %d  submitted=%d",
			id, p.Minute, p.HomeGoals, p.AwayGoals, p.Submitted)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatOdd(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
