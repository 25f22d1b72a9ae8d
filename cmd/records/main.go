// Command records inspects and clears visitors' best times.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"matchlab/internal/records"
	"matchlab/internal/records/sqlite"
	"matchlab/pkg/realtime"
)

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand(out io.Writer) *cli.Command {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Usage:   "path to the records database",
		Value:   "matchlab.db",
		Sources: cli.EnvVars("MATCHLAB_DB_PATH"),
	}
	visitorFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "visitor",
			Usage:    "visitor id (the matchlab_visitor cookie)",
			Required: true,
		}
	}
	return &cli.Command{
		Name:  "records",
		Usage: "inspect and clear best times",
		Flags: []cli.Flag{dbFlag},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list a visitor's stored records",
				Flags: []cli.Flag{visitorFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withStore(cmd.String("db"), func(store *sqlite.Store) error {
						return listRecords(ctx, out, store, cmd.String("visitor"))
					})
				},
			},
			{
				Name:  "clear",
				Usage: "clear a visitor's best times",
				Flags: []cli.Flag{
					visitorFlag(),
					&cli.StringFlag{Name: "subject", Usage: "clear only this subject"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withStore(cmd.String("db"), func(store *sqlite.Store) error {
						return clearRecords(ctx, out, store, cmd.String("visitor"), cmd.String("subject"))
					})
				},
			},
		},
	}
}

func withStore(path string, fn func(*sqlite.Store) error) error {
	store, err := sqlite.Open(path)
	if err != nil {
		return fmt.Errorf("open records: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func listRecords(ctx context.Context, out io.Writer, store *sqlite.Store, visitor string) error {
	entries, err := store.List(ctx, visitor)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintf(out, "no records for visitor %s\n", visitor)
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tUPDATED")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Key, displayValue(entry), entry.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// displayValue shows best times as a clock next to the raw seconds.
func displayValue(entry sqlite.Entry) string {
	if !strings.HasPrefix(entry.Key, records.KeyPrefix) {
		return entry.Value
	}
	seconds, err := strconv.Atoi(entry.Value)
	if err != nil {
		return entry.Value
	}
	return fmt.Sprintf("%s (%ds)", realtime.FormatClock(seconds), seconds)
}

func clearRecords(ctx context.Context, out io.Writer, store *sqlite.Store, visitor, subject string) error {
	var keys []string
	if subject != "" {
		keys = append(keys, records.KeyFor(subject))
	}
	n, err := store.Delete(ctx, visitor, keys...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "cleared %d record(s) for visitor %s\n", n, visitor)
	return err
}
