package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-doorlock/doorlock"
)

// PortsCmd returns the ports command.
func PortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List available serial adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := doorlock.ListPorts()
			if err != nil {
				return err
			}

			if len(ports) == 0 {
				fmt.Println("No serial ports found.")
				return nil
			}

			for _, port := range ports {
				fmt.Println(port)
			}

			return nil
		},
	}
}

// PingCmd returns the ping command.
func PingCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Connect to the device and verify the protocol handshake",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}

			client, err := connect(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			okColor.Printf("Device on %s answered the handshake.\n", cfg.Port)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// LastCmd returns the last command, which reads the most recently scanned
// tag identifier from the device.
func LastCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "last",
		Short: "Read the most recently scanned tag ID from the device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}

			client, err := connect(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err := client.ReadLast()
			if err != nil {
				return err
			}

			fmt.Printf("%08x\n", id)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
