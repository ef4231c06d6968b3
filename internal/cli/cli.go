package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dsgviz/pkg/buildinfo"
	"github.com/matzehuels/dsgviz/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "dsgviz"

	// defaultListenAddr is where serve exposes the control API.
	defaultListenAddr = "127.0.0.1:8480"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "dsgviz turns layered scene graphs into render markers",
		Long:         `dsgviz draws a layered 3D scene graph as marker batches (centroids, labels, bounding boxes, mesh edges, and graph edges) and publishes them to subscribers on a fixed redraw loop.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layersCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config Loading
// =============================================================================

// loadConfig reads path, or returns the defaults when path is empty.
func (c *CLI) loadConfig(path string) (config.File, error) {
	if path == "" {
		return config.DefaultFile(), nil
	}
	f, err := config.Load(path)
	if err != nil {
		return config.File{}, err
	}
	c.Logger.Debug("loaded config", "path", path, "layers", len(f.Layers), "loop_period", f.LoopPeriod)
	return f, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/dsgviz/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
