package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/compare"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/config"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/export"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/logging"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/monitor"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/notify"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/probe"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/report"
)

const (
	exitOK          = 0
	exitUsage       = 1
	exitOperational = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		compareMode = flag.Bool("compare", false, "compare multiple instances and print a ranking")
		monitorMode = flag.Bool("monitor", false, "re-check on an interval until interrupted")
		intervalS   = flag.Int("interval", 300, "monitor interval in seconds")
		timeoutS    = flag.Int("timeout", 0, "per-probe timeout in seconds (0 = default)")
		exportPath  = flag.String("export", "", "write results to a CSV file")
		configPath  = flag.String("config", "", "YAML config file")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"usage: %s [flags] instance [instance ...]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	instances := flag.Args()
	if len(instances) == 0 {
		fmt.Fprintln(os.Stderr, "error: at least one instance is required")
		flag.Usage()
		return exitUsage
	}
	if *intervalS <= 0 {
		fmt.Fprintf(os.Stderr, "error: --interval must be a positive number of seconds, got %d\n", *intervalS)
		return exitUsage
	}
	if *monitorMode && len(instances) > 1 {
		fmt.Fprintln(os.Stderr, "error: --monitor works with exactly one instance")
		return exitUsage
	}

	cfg := config.FromEnv()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitUsage
		}
	}
	if *timeoutS > 0 {
		cfg.Timeout = time.Duration(*timeoutS) * time.Second
	}
	cfg.Interval = time.Duration(*intervalS) * time.Second
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error: invalid configuration:", err)
		return exitUsage
	}

	// Identifier validation happens before any network activity.
	for _, inst := range instances {
		if host, _ := probe.Normalize(inst); host == "" {
			fmt.Fprintf(os.Stderr, "error: malformed instance identifier %q\n", inst)
			return exitOperational
		}
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: cannot open log file:", err)
		return exitUsage
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := probe.NewExecutor(logger, cfg.Timeout, cfg.TimelineTimeout, cfg.SecurityHeaders)
	battery := probe.NewBattery(exec, logger, cfg.Weights)

	switch {
	case *monitorMode:
		return runMonitor(ctx, battery, logger, instances[0], cfg)
	case *compareMode || len(instances) > 1:
		return runCompare(ctx, battery, logger, instances, cfg, *exportPath)
	default:
		return runSingle(ctx, battery, instances[0], *exportPath)
	}
}

func runSingle(ctx context.Context, battery *probe.Battery, instance, exportPath string) int {
	rep := battery.Run(ctx, instance)
	report.WriteReport(os.Stdout, &rep)

	if exportPath != "" {
		if err := export.WriteFile(exportPath, []domain.InstanceReport{rep}); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitOperational
		}
		fmt.Printf("exported to %s\n", exportPath)
	}
	return exitOK
}

func runCompare(ctx context.Context, battery *probe.Battery, logger *zap.Logger, instances []string, cfg config.Config, exportPath string) int {
	cmp := compare.NewComparator(battery, logger, cfg.Concurrency)
	table := cmp.Compare(ctx, instances)
	report.WriteRanking(os.Stdout, &table)

	if exportPath != "" {
		if err := export.WriteFile(exportPath, table.Rows); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitOperational
		}
		fmt.Printf("exported to %s\n", exportPath)
	}
	return exitOK
}

func runMonitor(ctx context.Context, battery *probe.Battery, logger *zap.Logger, instance string, cfg config.Config) int {
	var notifier notify.Notifier = notify.Nop{}
	if s := notify.NewSlack(cfg.SlackWebhook); s != nil {
		notifier = s
	}
	alerter := monitor.NewAlerter(notifier, monitor.AlerterConfig{
		Threshold:       cfg.AlertThreshold,
		Cooldown:        cfg.AlertCooldown,
		AlertOnRecovery: cfg.AlertOnRecovery,
	})

	fmt.Printf("monitoring %s every %s (interrupt to stop)\n\n", instance, cfg.Interval)

	mon := monitor.New(battery, logger, []string{instance}, cfg.Interval)
	for tick := range mon.Run(ctx) {
		report.WriteTick(os.Stdout, &tick)
		alerter.Observe(ctx, tick)
	}

	fmt.Println("monitoring stopped")
	return exitOK
}
