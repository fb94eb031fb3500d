// The rwguard command exercises the rwguard lock from the command line:
// it replays the reference scenarios and runs contention checks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
)

// Stdout and Stderr are where commands print. Tests replace them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func printf(format string, a ...any) {
	fmt.Fprintf(Stdout, format, a...)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(Stderr)
	return fs
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	rootCmd := &ffcli.Command{
		Name:       "rwguard",
		ShortUsage: "rwguard <subcommand> [command flags]",
		ShortHelp:  "Exercise the non-blocking reader/writer region lock.",
		LongHelp: strings.TrimSpace(`
For help on subcommands, add --help after: "rwguard contend --help".

Flags of every subcommand can also be set from the environment with the
RWGUARD_ prefix, e.g. RWGUARD_READERS=8.
`),
		Subcommands: []*ffcli.Command{
			scenariosCmd(),
			contendCmd(),
		},
		FlagSet: newFlagSet("rwguard"),
		Exec:    func(context.Context, []string) error { return flag.ErrHelp },
	}

	err := rootCmd.ParseAndRun(ctx, args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}
