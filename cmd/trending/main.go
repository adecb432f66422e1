package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	yaml "gopkg.in/yaml.v2"

	"github.com/mixpanel/trending/aggregate"
	"github.com/mixpanel/trending/freq"
	"github.com/mixpanel/trending/logging"
	"github.com/mixpanel/trending/metrics"
	"github.com/mixpanel/trending/query"
	"github.com/mixpanel/trending/repository"
)

type Options struct {
	File     string `long:"file" default:"data/tweets.json.zip" description:"path to the zipped tweets archive"`
	Query    string `long:"query" default:"dates" choice:"dates" choice:"emojis" choice:"mentions" description:"which query to run"`
	Strategy string `long:"strategy" default:"streaming" choice:"streaming" choice:"batch" description:"execution strategy"`
	Compare  bool   `long:"compare" description:"run both strategies and report wall time for each"`
	Config   string `long:"config" description:"optional YAML file overriding aggregation tuning"`
	Stats    bool   `long:"stats" description:"print pass metrics after the results"`

	LogLevel  string `long:"log-level" default:"WARN" description:"NEVER, DEBUG, INFO, WARN or ERROR"`
	LogFormat string `long:"log-format" default:"text" choice:"text" choice:"json" description:"log output format"`
}

func initOptions() *Options {
	var options Options
	parser := flags.NewParser(&options, flags.Default)

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	return &options
}

func main() {
	options := initOptions()
	log := logging.New(options.LogLevel, options.LogFormat)

	rootCtx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigs
		cancel()
	}()

	if err := run(rootCtx, log, options); err != nil {
		log.Error("exiting with error", logging.Fields{}.WithError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log logging.Logger, options *Options) error {
	cfg, err := loadConfig(options.Config)
	if err != nil {
		return err
	}

	dst := metrics.NullSink
	if options.Stats {
		dst = metrics.NewWriterSink(os.Stdout)
	}
	local := metrics.NewLocalSink(dst)
	defer local.Close()
	engine := query.New(cfg, log, metrics.NewReceiver(local))

	strategies := []query.Strategy{}
	if options.Compare {
		strategies = append(strategies, query.Streaming, query.Batch)
	} else {
		strategy, err := query.ParseStrategy(options.Strategy)
		if err != nil {
			return err
		}
		strategies = append(strategies, strategy)
	}

	for _, strategy := range strategies {
		if options.Compare {
			fmt.Printf("\n=== %s · %s ===\n", options.Query, strategy)
		}

		start := time.Now()
		if err := runQuery(ctx, engine, options, strategy); err != nil {
			return err
		}
		if options.Compare {
			fmt.Printf("elapsed: %.2fs\n", time.Since(start).Seconds())
		}
	}

	return nil
}

func runQuery(ctx context.Context, engine *query.Engine, options *Options, strategy query.Strategy) error {
	src, err := repository.OpenZip(options.File)
	if err != nil {
		return err
	}
	defer src.Close()

	switch options.Query {
	case "dates":
		rows, err := engine.TopDates(ctx, src, strategy)
		if err != nil {
			return err
		}
		printDates(rows)
	case "emojis":
		top, err := engine.TopEmojis(ctx, src, strategy)
		if err != nil {
			return err
		}
		printEntries(top)
	case "mentions":
		top, err := engine.TopMentions(ctx, src, strategy)
		if err != nil {
			return err
		}
		printEntries(top)
	}
	return nil
}

func printDates(rows []query.DateActivity) {
	if len(rows) == 0 {
		fmt.Println("no data")
		return
	}
	for _, row := range rows {
		user := row.TopUser
		if !row.HasTopUser {
			user = "(pruned)"
		}
		fmt.Printf("%s: %s (%d tweets)\n", row.Date, user, row.Tweets)
	}
}

func printEntries(entries []freq.Entry) {
	if len(entries) == 0 {
		fmt.Println("no data")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s: %d\n", e.Key, e.Count)
	}
}

func loadConfig(path string) (aggregate.Config, error) {
	cfg := aggregate.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
