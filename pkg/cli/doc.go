/*
Package cli holds helpers shared by the guardian subcommands.

Exit codes:

	0  success
	1  command failed
	2  usage or configuration error
	3  the scanned text was blocked (guardian scan only)

Commands return an *ExitError to choose a code; anything else maps to 1.

Signal handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

Input and formats:

	text, err := cli.ReadInput(args, os.Stdin)   // "-" or no argument reads stdin
	format, err := cli.ParseFormat(flag, "table", "json")
*/
package cli
