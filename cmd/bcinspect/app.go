package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/batchcache/internal/inspect"
	"github.com/unkn0wn-root/batchcache/provider/bolt"
)

// dbFlags returns fresh flag values; urfave flags keep parsed state and
// cannot be shared between commands.
func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Usage:    "bbolt file written by provider/bolt",
			Sources:  cli.EnvVars("BATCHCACHE_DB"),
			Required: true,
		},
		&cli.StringFlag{
			Name:  "bucket",
			Usage: "bucket name",
			Value: "batchcache",
		},
		&cli.StringFlag{
			Name:  "ns",
			Usage: "restrict to one namespace",
		},
	}
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "bcinspect",
		Usage:  "inspect a batchcache bolt file",
		Writer: w,
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "entry counts and sizes per namespace",
				Flags:  dbFlags(),
				Action: withProvider(statsAction),
			},
			{
				Name:   "ls",
				Usage:  "list entries",
				Flags:  dbFlags(),
				Action: withProvider(lsAction),
			},
			{
				Name:      "get",
				Usage:     "print the decoded payload of one entry",
				UsageText: "bcinspect get --db FILE --ns NS KEY",
				Flags:     dbFlags(),
				Action:    withProvider(getAction),
			},
		},
	}
}

type action func(ctx context.Context, cmd *cli.Command, p *bolt.Provider) error

func withProvider(a action) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		p, err := bolt.New(bolt.Config{Path: cmd.String("db"), Bucket: cmd.String("bucket")})
		if err != nil {
			return fmt.Errorf("open %s: %w", cmd.String("db"), err)
		}
		defer p.Close(ctx)
		log.Debugf("opened %s bucket=%s", cmd.String("db"), cmd.String("bucket"))
		return a(ctx, cmd, p)
	}
}

func statsAction(_ context.Context, cmd *cli.Command, p *bolt.Provider) error {
	st, _, err := inspect.Scan(p, cmd.String("ns"))
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	fmt.Fprintf(w, "entries: %d (%s)\n", st.Entries, humanize.Bytes(uint64(st.Bytes)))
	fmt.Fprintf(w, "compressed: %d\n", st.Compressed)
	fmt.Fprintf(w, "corrupt: %d\n", st.Corrupt)
	if st.Foreign > 0 {
		fmt.Fprintf(w, "foreign keys: %d\n", st.Foreign)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ns := range st.SortedNamespaces() {
		fmt.Fprintf(tw, "  %s\t%s\n", ns, humanize.Comma(int64(st.Namespaces[ns])))
	}
	return tw.Flush()
}

func lsAction(_ context.Context, cmd *cli.Command, p *bolt.Provider) error {
	_, entries, err := inspect.Scan(p, cmd.String("ns"))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		flag := "-"
		switch {
		case e.Corrupt:
			flag = "!"
		case e.Compressed:
			flag = "z"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", flag, e.Namespace, e.Key, humanize.Bytes(uint64(e.Size)))
	}
	return tw.Flush()
}

func getAction(ctx context.Context, cmd *cli.Command, p *bolt.Provider) error {
	if cmd.NArg() != 1 {
		return errors.New("get: exactly one KEY is required")
	}
	if cmd.String("ns") == "" {
		return errors.New("get: --ns is required")
	}
	b, err := inspect.Payload(ctx, p, cmd.String("ns"), cmd.Args().First())
	if err != nil {
		return err
	}
	_, err = cmd.Root().Writer.Write(b)
	return err
}
