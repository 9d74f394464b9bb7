package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-doorlock/doorlock"
)

// UploadCmd returns the upload command.
func UploadCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the record list to the device",
		Long: `Load the record list file and push every record to the device:
the total count is announced first, then the records are streamed in order
in chunks of up to 32. The upload stops at the first unacknowledged chunk;
records acknowledged before that point remain written on the device.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}

			store, err := loadDB(cfg.DBPath)
			if err != nil {
				return err
			}

			client, err := connect(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			uploader := doorlock.NewUploader(client)
			uploader.AddProgressHandler(func(acked, total int) {
				fmt.Printf("\r%d/%d records acknowledged", acked, total)
			})

			written, err := uploader.Upload(store.List())
			fmt.Println()

			if err != nil {
				var uploadErr *doorlock.UploadError
				if errors.As(err, &uploadErr) {
					failColor.Printf("Upload failed: %v\n", uploadErr.Err)
					failColor.Printf("The device acknowledged the first %d records; the rest were not written.\n", uploadErr.Acked)
				}

				return err
			}

			okColor.Printf("Wrote %d records.\n", written)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
