package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rbeezley/myk9q-scoring/internal/timing"
	"github.com/rbeezley/myk9q-scoring/pkg/client"
)

type rootOptions struct {
	server string
	apiKey string
}

func (o *rootOptions) remote() *client.Client {
	if o.server == "" {
		return nil
	}
	return client.NewClient(strings.TrimRight(o.server, "/"), o.apiKey, client.WithTimeout(10*time.Second))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "scoretime",
		Short:         "Parse, format and resolve scent work timer values",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", "", "scoring API base URL (runs locally when empty)")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "API key for --server")

	root.AddCommand(
		newParseCmd(opts),
		newFormatCmd(opts),
		newAreasCmd(opts),
		newPresetCmd(opts),
	)
	return root
}

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <time>",
		Short: "Convert MM:SS, MM:SS.HH, HH:MM:SS or HH:MM:SS.HH to milliseconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ms int
			var err error
			if c := opts.remote(); c != nil {
				ms, err = c.Parse(cmd.Context(), args[0])
			} else {
				ms, err = timing.Parse(args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ms)
			return nil
		},
	}
}

func newFormatCmd(opts *rootOptions) *cobra.Command {
	var hours, hundredths bool

	cmd := &cobra.Command{
		Use:   "format <ms>",
		Short: "Render milliseconds as a masked time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid milliseconds %q: %w", args[0], err)
			}

			var text string
			if c := opts.remote(); c != nil {
				text, err = c.Format(cmd.Context(), ms, hours, hundredths)
				if err != nil {
					return err
				}
			} else {
				text = timing.Format(ms, hours, hundredths)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hours, "hours", false, "include the hours segment")
	cmd.Flags().BoolVar(&hundredths, "hundredths", true, "include the hundredths segment")
	return cmd
}

func newAreasCmd(opts *rootOptions) *cobra.Command {
	var count int
	var element, level string

	cmd := &cobra.Command{
		Use:   "areas",
		Short: "Show which search areas are active for a class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var active [timing.MaxAreas]bool
			if c := opts.remote(); c != nil {
				areas, err := c.Areas(cmd.Context(), count, element, level)
				if err != nil {
					return err
				}
				active = areas.Active
			} else {
				cfg, err := timing.NewAreaConfig(count, timing.ElementLevel{Element: element, Level: level})
				if err != nil {
					return err
				}
				for i := range active {
					active[i] = cfg.IsActive(i + 1)
				}
			}

			out := cmd.OutOrStdout()
			for i, on := range active {
				state := "inactive"
				if on {
					state = "active"
				}
				fmt.Fprintf(out, "area %d: %s\n", i+1, state)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "configured area count (1-3)")
	cmd.Flags().StringVar(&element, "element", "", "class element, e.g. Interior")
	cmd.Flags().StringVar(&level, "level", "", "class level, e.g. Master")
	cmd.MarkFlagRequired("element")
	cmd.MarkFlagRequired("level")
	return cmd
}

func newPresetCmd(opts *rootOptions) *cobra.Command {
	var count int
	var areas, limits []string

	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Resolve the countdown preset for the next area to time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := toTriple(areas, "areas")
			if err != nil {
				return err
			}
			lim, err := toTriple(limits, "limits")
			if err != nil {
				return err
			}

			area, ms, err := resolvePreset(cmd.Context(), opts, count, values, lim)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "area %d: %s (%d ms)\n", area, timing.Format(ms, false, true), ms)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "active area count (1-3)")
	cmd.Flags().StringSliceVar(&areas, "areas", nil, "recorded area times, comma separated; leave a slot empty for an unrecorded area")
	cmd.Flags().StringSliceVar(&limits, "limits", nil, "per-area time limits, comma separated")
	return cmd
}

func resolvePreset(ctx context.Context, opts *rootOptions, count int, values, limits [timing.MaxAreas]string) (int, int, error) {
	if c := opts.remote(); c != nil {
		p, err := c.Preset(ctx, count, values, limits)
		if err != nil {
			return 0, 0, err
		}
		return p.CurrentArea, p.PresetMs, nil
	}

	area, err := timing.CurrentArea(count, values)
	if err != nil {
		return 0, 0, err
	}
	ms, err := timing.ResolvePreset(count, values, limits)
	if err != nil {
		return 0, 0, err
	}
	return area, ms, nil
}

func toTriple(in []string, name string) ([timing.MaxAreas]string, error) {
	var out [timing.MaxAreas]string
	if len(in) > timing.MaxAreas {
		return out, fmt.Errorf("--%s takes at most %d values", name, timing.MaxAreas)
	}
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out, nil
}
