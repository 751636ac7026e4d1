package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/saaga0h/solarium/internal/climate"
	"github.com/saaga0h/solarium/internal/control"
	"github.com/saaga0h/solarium/internal/journal"
	"github.com/saaga0h/solarium/pkg/config"
	"github.com/saaga0h/solarium/pkg/mqtt"
	"github.com/saaga0h/solarium/pkg/postgres"
	"github.com/saaga0h/solarium/pkg/redis"
)

const remoteTimeout = 10 * time.Second

func newStatusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last status the appliance stored in Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
			defer cancel()

			client := redis.NewClient(cfg, quietLogger())
			defer client.Close()

			fields, err := client.HGetAll(ctx, redis.StatusKey(cfg.ServiceName))
			if err != nil {
				return fmt.Errorf("failed to read status: %w", err)
			}
			if len(fields) == 0 {
				return fmt.Errorf("no status for %s, is the appliance running?", cfg.ServiceName)
			}
			printFields(cmd.OutOrStdout(), cfg.ServiceName, fields)
			return nil
		},
	}
}

func printFields(w io.Writer, title string, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	titleColor.Fprintln(w, title)
	for _, k := range keys {
		v := fields[k]
		if v == "" {
			v = mutedColor.Sprint("-")
		} else {
			v = valueColor.Sprint(v)
		}
		fmt.Fprintf(w, "  %-14s %s\n", keyColor.Sprint(k), v)
	}
}

func newClimateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "climate",
		Short: "Show the 20-minute climate history, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
			defer cancel()

			client := redis.NewClient(cfg, quietLogger())
			defer client.Close()

			history, err := climate.LoadHistory(ctx, client, cfg.ServiceName)
			if err != nil {
				return err
			}
			printClimate(cmd.OutOrStdout(), history)
			return nil
		},
	}
}

func printClimate(w io.Writer, history []climate.Measurement) {
	if len(history) == 0 {
		mutedColor.Fprintln(w, "no climate slots stored yet")
		return
	}
	titleColor.Fprintf(w, "%-6s %10s %12s %9s\n", "slot", "pressure", "temperature", "humidity")
	for i, m := range history {
		fmt.Fprintf(w, "%-6d %10d %12d %9d\n", i, m.Pressure, m.Temperature, m.Humidity)
	}
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent schedule rebuilds from the Postgres journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.JournalEnabled() {
				return fmt.Errorf("journal disabled, set --postgres-host or SOLARIUM_POSTGRES_HOST")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
			defer cancel()

			db := postgres.NewClient(cfg, quietLogger())
			if err := db.Connect(ctx); err != nil {
				return err
			}
			defer db.Disconnect()

			entries, err := journal.New(db, cfg.ServiceName, quietLogger()).Recent(ctx, limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of rebuilds to show")
	return cmd
}

func printHistory(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		mutedColor.Fprintln(w, "no rebuilds journaled")
		return
	}
	for _, e := range entries {
		alarm := mutedColor.Sprint("midnight")
		if e.NextAlarm != nil {
			alarm = valueColor.Sprint(e.NextAlarm.Local().Format(time.TimeOnly))
		}
		fmt.Fprintf(w, "%s  %-9s %s  span %s  next %s\n",
			e.BuiltAt.Local().Format(time.DateTime),
			keyColor.Sprint(e.Trigger),
			e.Day.Format(time.DateOnly),
			time.Duration(e.SpanS)*time.Second,
			alarm)
	}
}

func newSendCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "send <target> <json>",
		Short: "Publish a command to the appliance",
		Long: `Publish a command to solarium/command/<target>.

Targets are sun, rgb, uv, white, fito, fan and humidifier. Any actuator
command switches the day simulation off; send {"enabled": true} to sun to
resume it.`,
		Example: `  solarctl send sun '{"enabled": true}'
  solarctl send rgb '{"mode": "smooth", "dst": "#ff8000", "duration_ms": 5000}'
  solarctl send fan '{"speed": "medium", "interval_s": 600, "on_s": 120, "repeat": true}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, payload := args[0], []byte(args[1])
			// reject locally what the appliance would drop
			if _, err := control.Decode(target, payload); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
			defer cancel()

			client := mqtt.NewClient(cfg, quietLogger())
			if err := client.Connect(ctx); err != nil {
				return err
			}
			defer client.Disconnect()

			topic := mqtt.CommandTopic(target)
			if err := client.Publish(topic, 1, false, payload); err != nil {
				return fmt.Errorf("failed to publish %s: %w", topic, err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "sent %s\n", topic)
			return nil
		},
	}
}
