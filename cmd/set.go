// Package cmd holds the daemon's cobra subcommands.
package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/itetools/ite5570d/internal/device"
	"github.com/itetools/ite5570d/internal/logging"
	"github.com/itetools/ite5570d/pkg/lamparray"
)

// CreateSetCmd creates the set command: a one-shot lighting write without
// running the daemon.
func CreateSetCmd() *cobra.Command {
	var (
		devicePath string
		colorSpec  string
		intensity  int
		lampSpec   string
		off        bool
		logJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the keyboard backlight once and exit",
		Long: `Writes a single lighting state to the controller and exits. The host ` +
			`override persists after exit, so the color stays until the daemon or ` +
			`firmware takes over. Use --off to blank the lamps and hand control ` +
			`back to the firmware.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			format := "text"
			if logJSON {
				format = "json"
			}
			logging.Initialize(logging.Config{Level: "warn", Format: format})

			if intensity < 0 || intensity > 255 {
				return fmt.Errorf("intensity %d out of range 0-255", intensity)
			}
			color, err := parseColor(colorSpec)
			if err != nil {
				return err
			}

			link := device.NewLink(device.Options{Path: devicePath})
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := link.Open(ctx); err != nil {
				return err
			}
			defer link.Close()

			if off {
				if err := link.Acquire(); err != nil {
					return err
				}
				if err := link.Fill(lamparray.Color{}, 0); err != nil {
					return err
				}
				return link.Release()
			}

			if err := link.Acquire(); err != nil {
				return err
			}
			if lampSpec != "" {
				lamps, parseErr := parseLamps(lampSpec)
				if parseErr != nil {
					return parseErr
				}
				return link.Update(lamps, color, uint8(intensity))
			}
			return link.Fill(color, uint8(intensity))
		},
	}

	cmd.Flags().StringVar(&devicePath, "device", "", "hidraw device path (default: discover by vendor/product ID)")
	cmd.Flags().StringVar(&colorSpec, "color", "255,0,0", "Color as R,G,B (0-255 each)")
	cmd.Flags().IntVar(&intensity, "intensity", 255, "Brightness 0-255")
	cmd.Flags().StringVar(&lampSpec, "lamps", "", "Comma-separated lamp IDs (default: all lamps)")
	cmd.Flags().BoolVar(&off, "off", false, "Blank the lamps and return control to the firmware")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

func parseColor(spec string) (lamparray.Color, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return lamparray.Color{}, fmt.Errorf("color %q must be R,G,B", spec)
	}
	var ch [3]uint8
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 255 {
			return lamparray.Color{}, fmt.Errorf("color component %q out of range 0-255", part)
		}
		ch[i] = uint8(v)
	}
	return lamparray.Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

func parseLamps(spec string) ([]uint16, error) {
	parts := strings.Split(spec, ",")
	lamps := make([]uint16, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 0xFFFF {
			return nil, fmt.Errorf("lamp ID %q invalid", part)
		}
		lamps = append(lamps, uint16(v))
	}
	if len(lamps) == 0 {
		return nil, fmt.Errorf("no lamp IDs in %q", spec)
	}
	return lamps, nil
}
