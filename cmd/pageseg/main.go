package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ivlev/pageseg/internal/binarize"
	"github.com/ivlev/pageseg/internal/config"
	"github.com/ivlev/pageseg/internal/engine"
	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/output"
	"github.com/ivlev/pageseg/internal/source"
	"github.com/ivlev/pageseg/internal/system"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func init() {
	log.SetFormatter(&log.TextFormatter{
		ForceQuote:      true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	log.SetOutput(os.Stdout)
}

// loadConfig builds the configuration from defaults, an optional YAML file
// and the flags that were set explicitly, in that order
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if c.Args().Present() {
		cfg.Input = c.Args().First()
	}
	if c.IsSet("input") {
		cfg.Input = c.String("input")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("mode") {
		cfg.Mode = c.String("mode")
	}
	if c.IsSet("threshold") {
		cfg.Threshold = c.Int("threshold")
	}
	if c.IsSet("min-gap") {
		cfg.MinGap = c.Int("min-gap")
	}
	if c.IsSet("binarizer") {
		cfg.Binarizer = c.String("binarizer")
	}
	if c.IsSet("block-size") {
		cfg.BlockSize = c.Int("block-size")
	}
	if c.IsSet("offset") {
		cfg.Offset = c.Float64("offset")
	}
	if c.IsSet("sauvola-k") {
		cfg.SauvolaK = c.Float64("sauvola-k")
	}
	if c.IsSet("sauvola-window") {
		cfg.SauvolaWindow = c.Int("sauvola-window")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("dpi") {
		cfg.DPI = c.Int("dpi")
	}
	if c.IsSet("overwrite") {
		cfg.Overwrite = c.String("overwrite")
	}
	if c.IsSet("cascade") {
		cfg.Cascade = c.Bool("cascade")
	}
	if c.IsSet("plot") {
		cfg.Plot = c.Bool("plot")
	}
	if c.IsSet("s3-bucket") {
		cfg.S3Bucket = c.String("s3-bucket")
	}
	if c.IsSet("s3-prefix") {
		cfg.S3Prefix = c.String("s3-prefix")
	}
	if c.IsSet("s3-region") {
		cfg.S3Region = c.String("s3-region")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	cfg.BuildVersion = version

	return cfg, cfg.Validate()
}

func newSink(cfg *config.Config) (output.Sink, error) {
	if cfg.S3Bucket != "" {
		return output.NewS3Sink(cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	}
	strategy, err := output.NewStrategy(cfg.Overwrite)
	if err != nil {
		return nil, err
	}
	return output.NewDirSink(cfg.Output, strategy), nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if cfg.Input == "" {
		latest, err := system.FindLatestInput(system.DefaultInputDir)
		if err != nil {
			return cli.Exit("no input given and "+err.Error(), 1)
		}
		cfg.Input = latest
		log.WithFields(log.Fields{"input": latest}).Infoln("using latest input")
	}

	src, err := source.Open(cfg.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	bin, err := binarize.New(cfg.Binarizer, cfg.BinarizeOptions())
	if err != nil {
		return err
	}
	sink, err := newSink(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := engine.NewProject(cfg, src, bin, sink).Run(ctx)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"pages":    len(m.Pages),
		"segments": m.Count(),
		"output":   cfg.Output,
	}).Infoln("segmentation finished")
	return nil
}

func main() {
	defaults := config.Default()

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:      "pageseg",
		Usage:     "cut scanned pages into line and glyph images using projection profiles",
		ArgsUsage: "[pdf, image or directory of images]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
			},
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "PDF, image or directory of images",
				DefaultText: "latest file in " + system.DefaultInputDir + "/",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output directory",
				Value:   defaults.Output,
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "glyphs, lines or merged-lines",
				Value:   defaults.Mode,
			},
			&cli.IntFlag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "profile values at or below this count as blank",
				Value:   defaults.Threshold,
			},
			&cli.IntFlag{
				Name:  "min-gap",
				Usage: "merged-lines: join runs separated by fewer blank rows",
				Value: defaults.MinGap,
			},
			&cli.StringFlag{
				Name:    "binarizer",
				Aliases: []string{"b"},
				Usage:   "gaussian, sauvola, otsu or opencv",
				Value:   defaults.Binarizer,
			},
			&cli.IntFlag{
				Name:  "block-size",
				Usage: "gaussian: neighbourhood size, odd",
				Value: defaults.BlockSize,
			},
			&cli.Float64Flag{
				Name:  "offset",
				Usage: "gaussian: constant subtracted from the local mean",
				Value: defaults.Offset,
			},
			&cli.Float64Flag{
				Name:  "sauvola-k",
				Usage: "sauvola: k parameter",
				Value: defaults.SauvolaK,
			},
			&cli.IntFlag{
				Name:  "sauvola-window",
				Usage: "sauvola: window size, odd",
				Value: defaults.SauvolaWindow,
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "pages processed in parallel (0 = from CPU and memory)",
				Value:   defaults.Workers,
			},
			&cli.IntFlag{
				Name:  "dpi",
				Usage: "PDF render resolution",
				Value: defaults.DPI,
			},
			&cli.StringFlag{
				Name:  "overwrite",
				Usage: "existing page output: recreate, stage or refuse",
				Value: defaults.Overwrite,
			},
			&cli.BoolFlag{
				Name:  "cascade",
				Usage: "also cut every line into glyphs",
			},
			&cli.BoolFlag{
				Name:  "plot",
				Usage: "write a profile chart per page",
			},
			&cli.StringFlag{
				Name:  "s3-bucket",
				Usage: "upload crops to this bucket instead of the output directory",
			},
			&cli.StringFlag{
				Name:  "s3-prefix",
				Usage: "key prefix inside the bucket",
			},
			&cli.StringFlag{
				Name:  "s3-region",
				Usage: "bucket region",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "debug logging",
			},
		},
		Action: run,
	}

	sort.Sort(cli.FlagsByName(app.Flags))

	if err := app.Run(os.Args); err != nil {
		fields := log.Fields{}
		if errors.Is(err, errs.ErrInvalidInput) {
			fields["kind"] = "invalid input"
		} else if errors.Is(err, errs.ErrDirectoryConflict) {
			fields["kind"] = "directory conflict"
		}
		log.WithFields(fields).WithError(err).Fatalln("pageseg failed")
	}
}
