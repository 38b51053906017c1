package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cratedigger/trackmatch/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Page cache maintenance",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired entries from the page cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Cache.Path == "" {
			return fmt.Errorf("page cache disabled (cache.path is empty)")
		}

		pages, err := cache.OpenPageStore(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer pages.Close()

		if err := pages.Migrate(cmd.Context()); err != nil {
			return err
		}

		n, err := pages.DeleteExpired(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("purged %d expired pages\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
