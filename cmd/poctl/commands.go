// cmd/poctl/commands.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/app"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/auth"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/metrics"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the storage schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, closeApp, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "schema is up to date")
			return nil
		},
	}
}

func (c *cli) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Create purchase orders from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var pos []*purchaseorder.PurchaseOrder
			if err := json.Unmarshal(data, &pos); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			a, logger, closeApp, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			created := 0
			for _, po := range pos {
				if po == nil {
					fmt.Fprintln(c.out, "skipped empty entry")
					continue
				}
				if _, err := a.Orders.Create(cmd.Context(), po); err != nil {
					logger.Warn("import failed", zap.String("po_number", po.Header.PONumber), zap.Error(err))
					fmt.Fprintf(c.out, "failed  %s: %v\n", po.Header.PONumber, err)
					continue
				}
				created++
				fmt.Fprintf(c.out, "created %s\n", po.Header.PONumber)
			}
			fmt.Fprintf(c.out, "imported %d of %d purchase orders\n", created, len(pos))
			if created < len(pos) {
				return errors.New("some purchase orders were not imported")
			}
			return nil
		},
	}
}

func (c *cli) metricsCommand() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print the metrics snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if start != "" {
				q.Set("start", start)
			}
			if end != "" {
				q.Set("end", end)
			}
			from, to, err := purchaseorder.ParseRangeQuery(q)
			if err != nil {
				return err
			}

			a, _, closeApp, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			page, err := a.Orders.List(cmd.Context(), purchaseorder.Query{Start: from, End: to})
			if err != nil {
				return err
			}
			snap := a.Metrics.CalculateMetrics(cmd.Context(), page.Data, metrics.Options{StartDate: from, EndDate: to})

			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first order date to include")
	cmd.Flags().StringVar(&end, "end", "", "last order date to include")
	return cmd
}

func (c *cli) eventsCommand() *cobra.Command {
	var (
		after     int64
		limit     int
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the event journal as JSON lines, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if batchSize <= 0 {
				return errors.New("--batch must be positive")
			}
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}

			a, _, closeApp, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			n, last, err := streamEvents(cmd.Context(), a.Events, after, limit, batchSize, c.out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d events, last id %d\n", n, last)
			return nil
		},
	}
	cmd.Flags().Int64Var(&after, "after", 0, "only print events with a larger id")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many events (0 for all)")
	cmd.Flags().IntVar(&batchSize, "batch", 500, "events read per query")
	return cmd
}

// streamEvents pages through the journal from after and writes one JSON
// object per line. It returns the number written and the last id seen,
// which callers pass back as after to resume.
func streamEvents(ctx context.Context, stream app.EventStream, after int64, limit, batchSize int, out io.Writer) (int, int64, error) {
	enc := json.NewEncoder(out)
	written, last := 0, after
	for limit == 0 || written < limit {
		size := batchSize
		if limit > 0 && limit-written < size {
			size = limit - written
		}
		batch, err := stream.Stream(ctx, last, size)
		if err != nil {
			return written, last, fmt.Errorf("stream events after %d: %w", last, err)
		}
		for _, e := range batch {
			if err := enc.Encode(e); err != nil {
				return written, last, err
			}
			written++
			last = e.ID
		}
		if len(batch) < size {
			break
		}
	}
	return written, last, nil
}

func (c *cli) hashKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <key>",
		Short: "Print the hash of an API key for auth.api_key_hashes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			hash, err := auth.HashKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, hash)
			return nil
		},
	}
}
