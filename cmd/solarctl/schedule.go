package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/saaga0h/solarium/internal/actuator"
	"github.com/saaga0h/solarium/internal/schedule"
	"github.com/saaga0h/solarium/internal/solar"
	"github.com/saaga0h/solarium/pkg/config"
)

func newScheduleCmd(cfg *config.Config) *cobra.Command {
	var date, at string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute the schedule of a day without touching the appliance",
		Example: `  solarctl schedule --date 2024-02-29
  solarctl schedule --latitude 69.65 --longitude 18.96 --timezone Europe/Oslo --at 12:00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := cfg.Location()
			if err != nil {
				return fmt.Errorf("invalid timezone: %w", err)
			}
			catalog, err := schedule.LoadCatalog(cfg.CatalogPath)
			if err != nil {
				return err
			}

			day := time.Now().In(loc)
			if date != "" {
				if day, err = time.ParseInLocation(time.DateOnly, date, loc); err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
			}
			ref := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
			if at != "" {
				clock, err := time.ParseInLocation("15:04", at, loc)
				if err != nil {
					return fmt.Errorf("invalid time %q: %w", at, err)
				}
				ref = time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
			}

			d := schedule.NewBuilder(cfg.Latitude, cfg.Longitude, loc, catalog, quietLogger()).Build(ref)
			out := cmd.OutOrStdout()
			printDay(out, d, loc)
			if at != "" {
				printCommands(out, d.Commands(ref), ref, cfg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to compute (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&at, "at", "", "Also resolve the commands active at this local time (HH:MM)")
	return cmd
}

func printDay(w io.Writer, d *schedule.Schedule, loc *time.Location) {
	titleColor.Fprintf(w, "Schedule for %s\n", d.Date.Format(time.DateOnly))
	fmt.Fprintf(w, "%s %s\n\n", keyColor.Sprint("daylight span:"), valueColor.Sprint(d.Span))

	titleColor.Fprintln(w, "Time points")
	for _, p := range d.Summary() {
		fmt.Fprintf(w, "  %-22s %s  %s\n",
			keyColor.Sprint(p.Name),
			valueColor.Sprint(p.Start.In(loc).Format(time.TimeOnly)),
			mutedColor.Sprintf("%6ds", p.IntervalS))
	}

	fmt.Fprintln(w)
	titleColor.Fprintln(w, "Windows")
	family := ""
	for _, win := range d.Windows() {
		if win.Family != family {
			family = win.Family
			fmt.Fprintf(w, "  %s\n", keyColor.Sprint(family))
		}
		fmt.Fprintf(w, "    %-22s %s  %s\n",
			win.Point,
			valueColor.Sprint(win.Start.In(loc).Format(time.TimeOnly)),
			mutedColor.Sprint(time.Duration(win.TotalS)*time.Second))
	}
}

func printCommands(w io.Writer, cmds []actuator.Command, at time.Time, cfg *config.Config) {
	fmt.Fprintln(w)
	titleColor.Fprintf(w, "Commands at %s ", at.Format("15:04"))
	mutedColor.Fprintf(w, "(sun altitude %.1f°)\n", solar.Altitude(at, cfg.Latitude, cfg.Longitude))
	for _, c := range cmds {
		fmt.Fprintf(w, "  %-11s %-11s %s\n",
			keyColor.Sprint(c.Kind),
			c.Mode,
			valueColor.Sprint(describe(c)))
	}
}

func describe(c actuator.Command) string {
	switch c.Kind {
	case actuator.KindRGB:
		return fmt.Sprintf("%s → %s, %s of %s", c.Src.Color, c.Dst.Color, c.Elapsed.Truncate(time.Second), c.Total)
	case actuator.KindFan:
		if c.Dst.Speed == actuator.SpeedNone {
			return "off"
		}
		return fmt.Sprintf("%s, %s on every %s", c.Dst.Speed, c.OnTime, c.Total)
	case actuator.KindHumidifier:
		if !c.Dst.On {
			return "off"
		}
		return fmt.Sprintf("%s on within %s", c.OnTime, c.Total)
	default:
		return fmt.Sprintf("→ %d, %s of %s", c.Dst.Level, c.Elapsed.Truncate(time.Second), c.Total)
	}
}
