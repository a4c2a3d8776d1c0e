package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itetools/ite5570d/internal/config"
)

// CreateValidateCmd creates the validate command for checking a lighting
// config file without touching the device.
func CreateValidateCmd() *cobra.Command {
	var lightingFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a lighting configuration file",
		Long: `Parses and validates the lighting TOML file the daemon would load. ` +
			`Exits non-zero if the file is missing, unparseable, or holds values ` +
			`the daemon would reject.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadLighting(lightingFile)
			if err != nil {
				return err
			}
			r, g, b := cfg.RGB()
			fmt.Printf("%s: OK (mode=%s color=%d,%d,%d intensity=%d step=%s)\n",
				lightingFile, cfg.Mode, r, g, b, cfg.Intensity, cfg.Step())
			return nil
		},
	}

	cmd.Flags().StringVar(&lightingFile, "lighting-config", "/etc/ite5570d/lighting.toml",
		"Path to the lighting configuration file")

	return cmd
}
