package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/yggdrasil/pkg/btree"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a key",
	Long: `Remove a key and its payload from the tree.

Example:
  ygg delete 42`,
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

		err = tree.Delete(key)
		if err == btree.ErrNotFound {
			fmt.Printf("Key %d not found\n", key)
			return
		}
		if err != nil {
			fmt.Printf("Error deleting key: %v\n", err)
			return
		}

		fmt.Printf("Successfully deleted key %d\n", key)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
