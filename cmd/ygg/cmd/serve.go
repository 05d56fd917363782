/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/yggdrasil/pkg/api"
	"github.com/ssargent/yggdrasil/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the Yggdrasil REST API server with authentication.

Flags override values from the config file when one is given.

Example:
  ygg serve --api-key=mysecretkey --port=8080
  ygg serve --config ~/.config/yggdrasil/config.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		bind, _ := cmd.Flags().GetString("bind")
		apiKey, _ := cmd.Flags().GetString("api-key")
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		order, _ := cmd.Flags().GetInt("order")

		if configPath != "" {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Printf("Error loading config: %v\n", err)
				return
			}
			if apiKey == "" {
				apiKey = cfg.Security.APIKey
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Port
			}
			if !cmd.Flags().Changed("bind") {
				bind = cfg.Bind
			}
			if !cmd.Flags().Changed("data-dir") {
				dataDir = cfg.DataDir
			}
			if !cmd.Flags().Changed("order") && cfg.Order != 0 {
				order = cfg.Order
			}
		}

		if apiKey == "" {
			fmt.Println("Error: --api-key is required")
			return
		}

		registry, err := container.OpenRegistry(dataDir, order)
		if err != nil {
			fmt.Printf("Error opening registry: %v\n", err)
			return
		}
		defer registry.CloseAll()

		serverConfig := api.ServerConfig{
			Port:    port,
			Bind:    bind,
			APIKey:  apiKey,
			DataDir: dataDir,
			Order:   order,
		}
		if err := api.StartServer(registry, serverConfig); err != nil {
			fmt.Printf("Error starting server: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind")
	serveCmd.Flags().String("api-key", "", "API key for authentication")
	serveCmd.Flags().String("config", "", "Path to a config file")
}
