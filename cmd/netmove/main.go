package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/bassosimone/runtimex"
	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/oomph-ac/netmove/capture"
	"github.com/oomph-ac/netmove/room"
	"github.com/oomph-ac/netmove/settings"
	"github.com/sirupsen/logrus"
)

var (
	// args contains the command line arguments (overridable in tests).
	args = os.Args

	// output is the writer for the final report (overridable in tests).
	output io.Writer = os.Stdout
)

// loadSettings reads the settings file, writing the defaults there first if it does not exist.
func loadSettings(log *logrus.Logger, path string) settings.Settings {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		runtimex.PanicOnError0(settings.SaveDefault(path))
		log.Infof("wrote default settings to %s", path)
	}
	return runtimex.PanicOnError1(settings.Load(path))
}

// startDiagnostics sets up crash reporting and the runtime stats viewer. The returned function
// undoes both.
func startDiagnostics(log *logrus.Logger, conf settings.Debug) func() {
	var stops []func()
	if conf.SentryDSN != "" {
		runtimex.PanicOnError0(sentry.Init(sentry.ClientOptions{Dsn: conf.SentryDSN}))
		stops = append(stops, func() { sentry.Flush(time.Second * 5) })
	}
	if conf.StatsviewAddr != "" {
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(conf.StatsviewAddr))
		mgr := statsview.New()
		go mgr.Start()
		stops = append(stops, mgr.Stop)
		log.Infof("statsview listening on %s", conf.StatsviewAddr)
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

func main() {
	// 1. create command line parser
	fset := flag.NewFlagSet("netmove", flag.ExitOnError)

	// 2. add flags to parse
	var (
		settingsPath = fset.String("settings", "netmove.toml", "Settings file, created with the defaults if missing.")
		duration     = fset.Float64("duration", 0, "Simulated seconds to run for, overriding the settings.")
		logLevel     = fset.String("log-level", "", "Log level, overriding the settings.")
		parallel     = fset.Bool("parallel", false, "Step clients concurrently.")
		pcapFile     = fset.String("pcap-file", "", "Write delivered datagrams to the given PCAP file.")
	)

	// 3. parse command line
	runtimex.PanicOnError0(fset.Parse(args[1:]))

	// 4. set up logging and settings
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	conf := loadSettings(log, *settingsPath)
	if *duration > 0 {
		conf.Room.Duration = *duration
	}
	if *logLevel != "" {
		conf.Debug.LogLevel = *logLevel
	}
	if *pcapFile != "" {
		conf.Debug.PcapFile = *pcapFile
	}
	conf.Room.Parallel = conf.Room.Parallel || *parallel
	if conf.Debug.LogLevel != "" {
		log.Level = runtimex.PanicOnError1(logrus.ParseLevel(conf.Debug.LogLevel))
	}

	// 5. start diagnostics
	stop := startDiagnostics(log, conf.Debug)
	defer stop()

	// 6. open the packet capture
	var opts []room.Option
	if conf.Debug.PcapFile != "" {
		tr := capture.NewTrace(runtimex.PanicOnError1(os.Create(conf.Debug.PcapFile)))
		defer func() {
			if err := tr.Close(); err != nil {
				log.WithError(err).Error("failed closing capture")
			}
			if dropped := tr.Dropped(); dropped > 0 {
				log.Warnf("capture dropped %d datagrams", dropped)
			}
		}()
		opts = append(opts, room.WithTrace(tr))
	}

	// 7. run the room until done or interrupted
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	r := runtimex.PanicOnError1(room.New(log, conf, opts...))
	start := time.Now()
	if err := r.Run(ctx); err != nil {
		log.WithError(err).Warn("room interrupted")
	}
	log.Infof("simulated %.2fs in %v", r.Now(), time.Since(start))

	// 8. print the report
	for _, rep := range r.Report() {
		fmt.Fprintln(output, rep)
	}
}
