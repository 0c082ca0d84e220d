// Command scandisk checks a FAT12/16 disk image for lost clusters and files
// whose chains are longer than their size, and repairs both in place.
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/dargueta/scandisk/check"
	"github.com/dargueta/scandisk/config"
	"github.com/dargueta/scandisk/errors"
	"github.com/dargueta/scandisk/report"
	"github.com/dargueta/scandisk/utilities/logger"
	"github.com/dargueta/scandisk/volume"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "scandisk",
		Usage:     "Find and repair lost clusters and over-long files on a FAT12/16 image",
		ArgsUsage: "IMAGE",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "read settings from this ini file",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "give up on directories nested deeper than this",
				Value: check.DefaultMaxDepth,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "report format: text, csv, or yaml",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "diagnostic log level: debug, info, warn, or error",
				Value: "warn",
			},
			&cli.BoolFlag{
				Name:  "no-mmap",
				Usage: "read the image into memory instead of mapping it",
			},
			&cli.BoolFlag{
				Name:  "skip-recovery",
				Usage: "don't create entries for lost chains",
			},
			&cli.BoolFlag{
				Name:  "skip-lengths",
				Usage: "don't truncate chains longer than their file",
			},
		},
		Action: scanImage,
		// Exit codes are handled by run.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	err := newApp(stdout, stderr).Run(args)
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "scandisk: %s\n", err)
	var exitErr cli.ExitCoder
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	// Anything else came from parsing the command line.
	return exitUsage
}

func loadConfig(context *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(context.String("config"))
	if err != nil {
		return nil, err
	}

	if context.IsSet("max-depth") {
		if context.Int("max-depth") <= 0 {
			return nil, fmt.Errorf("--max-depth must be positive")
		}
		cfg.MaxDepth = context.Int("max-depth")
	}
	if context.IsSet("format") {
		cfg.Format = context.String("format")
	}
	if context.IsSet("log-level") {
		cfg.LogLevel = context.String("log-level")
	}
	if context.Bool("no-mmap") {
		cfg.UseMmap = false
	}
	if context.Bool("skip-recovery") {
		cfg.RecoverLostFiles = false
	}
	if context.Bool("skip-lengths") {
		cfg.RepairLengths = false
	}
	return cfg, nil
}

func openVolume(path string, useMmap bool) (*volume.Volume, error) {
	if useMmap {
		vol, err := volume.Open(path)
		if err == nil || !stderrors.Is(err, errors.ErrNotSupported) {
			return vol, err
		}
		zap.L().Sugar().Infof("can't map %s, reading it instead: %s", path, err)
	}
	return volume.Load(afero.NewOsFs(), path)
}

func scanImage(context *cli.Context) error {
	if context.NArg() != 1 {
		_ = cli.ShowAppHelp(context)
		return cli.Exit(
			fmt.Sprintf("expected exactly one IMAGE argument, got %d", context.NArg()),
			exitUsage)
	}
	imagePath := context.Args().First()

	cfg, err := loadConfig(context)
	if err != nil {
		return cli.Exit(err, exitUsage)
	}

	restoreLogger, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return cli.Exit(err, exitUsage)
	}
	defer restoreLogger()

	reporter, err := report.New(cfg.Format, context.App.Writer, context.App.ErrWriter)
	if err != nil {
		return cli.Exit(err, exitUsage)
	}

	vol, err := openVolume(imagePath, cfg.UseMmap)
	if err != nil {
		return cli.Exit(fmt.Sprintf("can't open %s: %s", imagePath, err), exitFatal)
	}

	checker := check.New(vol, cfg.CheckOptions(), reporter)
	_, runErr := checker.Run()
	reportErr := reporter.Close()
	closeErr := vol.Close()

	switch {
	case runErr != nil:
		return cli.Exit(runErr, exitFatal)
	case reportErr != nil:
		return cli.Exit(fmt.Sprintf("failed to write report: %s", reportErr), exitFatal)
	case closeErr != nil:
		return cli.Exit(fmt.Sprintf("failed to save %s: %s", imagePath, closeErr), exitFatal)
	}
	return nil
}
