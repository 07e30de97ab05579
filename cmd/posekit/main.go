package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mmcdole/posekit/internal/assets"
	"github.com/mmcdole/posekit/internal/config"
	"github.com/mmcdole/posekit/internal/library"
	"github.com/mmcdole/posekit/internal/log"
	"github.com/mmcdole/posekit/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

// errUsage marks a bad invocation; usage has already been printed
var errUsage = errors.New("usage")

const usage = `Usage: posekit [-config path] <command> [args]

Commands:
  list     [-category c] [-q text] [-sort s] [-favorites]   list templates
  show     <id>                                             show one template
  seed     [-catalog file.yaml]                             load the curated catalog
  import   -name n [-category c] [-difficulty d] [-tags a,b] [-outline f.json] <image>
  delete   <id>...                                          delete templates and their images
  fav      add|rm <id>                                      manage favorites
  recent                                                    list recently used templates
  score    <id> <frame.json>                                score a detected skeleton
  cache    size|clear                                       manage the image directory
  version                                                   print version
`

// app holds everything a command needs
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	repo   *library.Repository
	assets *assets.Store
	out    io.Writer
	width  int
}

func main() {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "config file (default: search ~/.config/posekit and .)")
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if showVersion {
		fmt.Printf("posekit %s\n", Version)
		return
	}

	if err := run(configPath, flag.Args()); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		}
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return errUsage
	}
	if args[0] == "version" {
		fmt.Printf("posekit %s\n", Version)
		return nil
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, closeLog, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting posekit", "version", Version, "command", args[0])

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.repo.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	return a.dispatch(args[0], args[1:])
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	kv, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open template store: %w", err)
	}

	images, err := assets.NewStore(cfg.Storage.AssetDir, logger)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to open asset dir: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		repo:   library.NewRepository(kv, images, logger),
		assets: images,
		out:    os.Stdout,
		width:  terminalWidth(),
	}, nil
}

func (a *app) dispatch(cmd string, args []string) error {
	switch cmd {
	case "list":
		return a.list(args)
	case "show":
		return a.show(args)
	case "seed":
		return a.seed(args)
	case "import":
		return a.importTemplate(args)
	case "delete":
		return a.delete(args)
	case "fav":
		return a.favorite(args)
	case "recent":
		return a.recent(args)
	case "score":
		return a.score(args)
	case "cache":
		return a.cache(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		return errUsage
	}
}
