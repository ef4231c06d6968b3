package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dsgviz/pkg/config"
	"github.com/matzehuels/dsgviz/pkg/errors"
)

// configCommand creates the config command group.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or validate configuration files",
	}
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configValidateCommand())
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	var (
		configPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration: the defaults, or the defaults overlaid
with --config. The output is a valid configuration file.`,
		Example: `  dsgviz config show > dsgviz.toml
  dsgviz config show --format yaml --config dsgviz.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := c.loadConfig(configPath)
			if err != nil {
				return err
			}
			switch strings.ToLower(format) {
			case "toml":
				return config.EncodeTOML(cmd.OutOrStdout(), file)
			case "yaml", "yml":
				return config.EncodeYAML(cmd.OutOrStdout(), file)
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want toml or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (.toml, .yaml)")
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format: toml or yaml")
	return cmd
}

func (c *CLI) configValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <file>...",
		Short:   "Check configuration files for errors",
		Example: `  dsgviz config validate dsgviz.toml lab.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				if _, err := config.Load(path); err != nil {
					printError("%s: %v", path, err)
					failed++
					continue
				}
				printSuccess("%s", path)
			}
			if failed > 0 {
				return errors.New(errors.ErrCodeInvalidConfig, "%d of %d files invalid", failed, len(args))
			}
			return nil
		},
	}
}
