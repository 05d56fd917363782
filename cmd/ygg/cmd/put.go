package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "Insert a key with its payload",
	Long: `Insert a key with its payload into the tree. Re-inserting an
existing key updates the payload in place.

Example:
  ygg put 42 1000`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := parseInt32Arg(args[0])
		if err != nil {
			fmt.Printf("Error parsing key: %v\n", err)
			return
		}
		value, err := parseInt32Arg(args[1])
		if err != nil {
			fmt.Printf("Error parsing value: %v\n", err)
			return
		}

		tree, err := openTree(cmd)
		if err != nil {
			fmt.Printf("Error opening tree: %v\n", err)
			return
		}
		defer tree.Close()

		if err := tree.Insert(key, value); err != nil {
			fmt.Printf("Error inserting key: %v\n", err)
			return
		}

		fmt.Printf("Successfully put key %d with value %d\n", key, value)
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}

func parseInt32Arg(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}
