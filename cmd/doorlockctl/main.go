package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-doorlock/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "doorlockctl",
		Short: "Manage a door-lock device's RFID credential list",
		Long: `doorlockctl maintains a local list of RFID tag records and synchronizes
it to a door-lock embedded device over a serial link.

Records live in a line-oriented text file (data.txt by default) and are
pushed to the device with the upload command. Link settings come from
doorlockctl.toml or command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.PortsCmd())
	rootCmd.AddCommand(cli.PingCmd())
	rootCmd.AddCommand(cli.UploadCmd())
	rootCmd.AddCommand(cli.LastCmd())
	rootCmd.AddCommand(cli.ListCmd())
	rootCmd.AddCommand(cli.AddCmd())
	rootCmd.AddCommand(cli.RemoveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
