package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"depsafe/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the on-disk evidence cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry count and size",
	Run:   runCacheStats,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired cache entries",
	Run:   runCachePrune,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cache entry",
	Run:   runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func mustOpenCache() *cache.Store {
	cfg := mustLoadConfig()
	store, err := cache.Open(cache.Options{
		Dir:           filepath.Join(rootFlag, ".depsafe"),
		TTL:           time.Duration(cfg.Cache.TtlHours) * time.Hour,
		MemoryEntries: cfg.Cache.MemoryEntries,
	}, newLogger(cfg, "human"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runCacheStats(cmd *cobra.Command, args []string) {
	store := mustOpenCache()
	defer store.Close()

	entries, bytes, err := store.Stats(newContext())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cache stats: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Entries: %d\nCompressed size: %d bytes\n", entries, bytes)
}

func runCachePrune(cmd *cobra.Command, args []string) {
	store := mustOpenCache()
	defer store.Close()

	n, err := store.Prune(newContext())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning cache: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Pruned %d expired entries\n", n)
}

func runCacheClear(cmd *cobra.Command, args []string) {
	store := mustOpenCache()
	defer store.Close()

	if err := store.Clear(newContext()); err != nil {
		fmt.Fprintf(os.Stderr, "Error clearing cache: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Cache cleared")
}
