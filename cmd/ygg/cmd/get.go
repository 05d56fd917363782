package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/yggdrasil/pkg/btree"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Look up a key's payload",
	Long: `Look up the payload stored under a key.

Example:
  ygg get 42`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := parseInt32Arg(args[0])
		if err != nil {
			fmt.Printf("Error parsing key: %v\n", err)
			return
		}

		tree, err := openTree(cmd)
		if err != nil {
			fmt.Printf("Error opening tree: %v\n", err)
			return
		}
		defer tree.Close()

		value, err := tree.Get(key)
		if err == btree.ErrNotFound {
			fmt.Printf("Key %d not found\n", key)
			return
		}
		if err != nil {
			fmt.Printf("Error getting key: %v\n", err)
			return
		}

		fmt.Printf("%d\n", value)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
