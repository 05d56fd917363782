package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the tree level by level",
	Long: `Print the tree's level-order dump: the root on its own line,
then one line per level with each node's keys and payloads.

Example:
  ygg dump --tree default`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		tree, err := openTree(cmd)
		if err != nil {
			fmt.Printf("Error opening tree: %v\n", err)
			return
		}
		defer tree.Close()

		if err := tree.Fprint(os.Stdout); err != nil {
			fmt.Printf("Error dumping tree: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
