/*
Package cli holds the helpers shared by the ralf commands.

Output Formatting:

Command results that are lists implement Table so they can be written as an
aligned text table, JSON or CSV:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
	    return err
	}
	return formatter.FormatTo(os.Stdout, rows)

Errors:

ConfigError and CommandError carry the exit status the process should end
with; ExitCode maps any error to it.

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
