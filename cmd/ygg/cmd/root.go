/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/yggdrasil/pkg/btree"
	"github.com/ssargent/yggdrasil/pkg/di"
	"github.com/ssargent/yggdrasil/pkg/index"
)

var container *di.Container

// SetContainer injects the dependency container built in main.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ygg",
	Short: "Yggdrasil - disk-backed B-tree index",
	Long: `Yggdrasil is an ordered key/value index: a B-tree of fixed order
that pages its nodes in and out of a single binary file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the index files")
	rootCmd.PersistentFlags().IntP("order", "o", btree.DefaultOrder, "Branching factor for new trees")
	rootCmd.PersistentFlags().StringP("tree", "t", "default", "Tree name inside the data directory")
}

// openTree opens (or creates) the tree the persistent flags point at.
func openTree(cmd *cobra.Command) (*btree.Tree, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	order, _ := cmd.Flags().GetInt("order")
	name, _ := cmd.Flags().GetString("tree")

	path := filepath.Join(dataDir, name+index.FileExt)
	return btree.Open(path, order)
}
