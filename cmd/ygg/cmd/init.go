/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/yggdrasil/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Yggdrasil for local development",
	Long: `Initialize Yggdrasil: create the data directory and write a
config file with a generated API key.

Examples:
  ygg init
  ygg init --config ./yggdrasil.yaml --data-dir ./data --order 4`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		order, _ := cmd.Flags().GetInt("order")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) && !force {
			fmt.Printf("Config already exists at %s (use --force to overwrite)\n", configPath)
			os.Exit(1)
		}

		cfg, err := config.BootstrapConfig(configPath, dataDir, order)
		if err != nil {
			fmt.Printf("Error bootstrapping config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Initialized Yggdrasil\n")
		fmt.Printf("Config written to: %s\n", configPath)
		fmt.Printf("Data directory: %s\n", cfg.DataDir)
		fmt.Printf("Tree order: %d\n", cfg.Order)
		fmt.Printf("API key: %s\n", cfg.Security.APIKey)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("config", "", "Path to write the config file")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}
