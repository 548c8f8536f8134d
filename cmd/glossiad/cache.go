package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/glossia/cache"
	"github.com/ZaguanLabs/glossia/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation cache",
}

var cacheExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export cached translations to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := openConfiguredRedis()
		if err != nil {
			return err
		}
		defer rc.Close()

		exporter := cache.NewExporter(rc)
		metadata := map[string]string{
			"exported_at": time.Now().UTC().Format(time.RFC3339),
		}
		if err := exporter.ExportToFile(cmd.Context(), args[0], metadata); err != nil {
			return err
		}
		cmd.Printf("exported cache to %s\n", args[0])
		return nil
	},
}

var cacheImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import cached translations from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := openConfiguredRedis()
		if err != nil {
			return err
		}
		defer rc.Close()

		importer := cache.NewImporter(rc)
		result, err := importer.ImportFromFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Printf("imported %d entries", result.Imported)
		if result.Failed > 0 {
			cmd.Printf(" (%d failed)", result.Failed)
		}
		cmd.Println()
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheImportCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openConfiguredRedis connects to the cache backend named in the
// config. Export and import work against Redis only; the in-memory
// cache dies with its server process.
func openConfiguredRedis() (*cache.RedisCache, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.RedisURL == "" {
		return nil, errors.New("cache export/import requires cache.redis_url to be configured")
	}

	rc, err := cache.NewRedisCache(cache.RedisConfig{
		URL: cfg.Cache.RedisURL,
		TTL: int(cfg.Cache.TTL.Seconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return rc, nil
}
