package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/yggdrasil/pkg/btree"
	"github.com/ssargent/yggdrasil/pkg/script"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <script> <output>",
	Short: "Run an operation script and write its transcript",
	Long: `Run an operation script against a tree and write the
transcript to the output file. The script's first line is the tree order,
the second the operation count, then one operation per line: "I k, v"
inserts, "R k" removes, "B k" searches.

The tree is a new in-memory tree unless --file points it at an index
file; an existing index file is reopened with its contents.

Example:
  ygg run ops.txt out.txt
  ygg run ops.txt out.txt --file ./data/run.ygg`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scriptPath, outputPath := args[0], args[1]
		filePath, _ := cmd.Flags().GetString("file")

		src, err := os.Open(scriptPath)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer src.Close()

		parsed, err := script.Parse(src)
		if err != nil {
			return err
		}

		var tree *btree.Tree
		if filePath != "" {
			tree, err = btree.Open(filePath, parsed.Order)
		} else {
			tree, err = btree.New(parsed.Order)
		}
		if err != nil {
			return fmt.Errorf("failed to create tree: %w", err)
		}
		defer tree.Close()

		out, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer out.Close()

		return parsed.Run(tree, out)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("file", "", "Back the tree with an index file instead of memory")
}
