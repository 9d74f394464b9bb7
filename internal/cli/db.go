package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-doorlock/tagdb"
)

// ListCmd returns the list command.
func ListCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the records in the record list file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}

			store, err := loadDB(cfg.DBPath)
			if err != nil {
				return err
			}

			records := store.List()
			if len(records) == 0 {
				fmt.Println("No records.")
				return nil
			}

			for _, rec := range records {
				fmt.Printf("%08x  %s\n", rec.ID, rec.Label)
			}
			fmt.Printf("%d records\n", len(records))

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// AddCmd returns the add command.
func AddCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "add <hex-id> <label>",
		Short: "Add a record to the record list file, or replace its label",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}

			id, err := parseTagID(args[0])
			if err != nil {
				return err
			}
			label := strings.Join(args[1:], " ")

			store, err := loadDB(cfg.DBPath)
			if err != nil {
				return err
			}

			prev, replaced := store.Get(id)

			if err := store.AddOrReplace(tagdb.Record{ID: id, Label: label}); err != nil {
				return err
			}

			if err := tagdb.SaveFile(cfg.DBPath, store); err != nil {
				return err
			}

			if replaced {
				okColor.Printf("Replaced %08x (was %q, now %q).\n", id, prev.Label, label)
			} else {
				okColor.Printf("Added %08x %q.\n", id, label)
			}

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// RemoveCmd returns the remove command.
func RemoveCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "remove <hex-id>",
		Short: "Remove a record from the record list file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}

			id, err := parseTagID(args[0])
			if err != nil {
				return err
			}

			store, err := loadDB(cfg.DBPath)
			if err != nil {
				return err
			}

			if !store.Remove(id) {
				fmt.Printf("No record with id %08x.\n", id)
				return nil
			}

			if err := tagdb.SaveFile(cfg.DBPath, store); err != nil {
				return err
			}

			okColor.Printf("Removed %08x.\n", id)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
