package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/yggdrasil/pkg/archive"
)

// snapshotCmd groups the archive operations.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Archive and restore tree snapshots",
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Archive the tree's current contents",
	Long: `Capture every key/value pair of the tree into the snapshot
archive and print the snapshot ID.

Example:
  ygg snapshot save --tree default`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		tree, err := openTree(cmd)
		if err != nil {
			fmt.Printf("Error opening tree: %v\n", err)
			return
		}
		defer tree.Close()

		arc, err := openArchive(cmd)
		if err != nil {
			fmt.Printf("Error opening archive: %v\n", err)
			return
		}
		defer arc.Close()

		name, _ := cmd.Flags().GetString("tree")
		id, err := arc.Save(name, tree)
		if err != nil {
			fmt.Printf("Error saving snapshot: %v\n", err)
			return
		}

		fmt.Printf("Snapshot %s saved\n", id)
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived snapshots",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		arc, err := openArchive(cmd)
		if err != nil {
			fmt.Printf("Error opening archive: %v\n", err)
			return
		}
		defer arc.Close()

		ids, err := arc.List()
		if err != nil {
			fmt.Printf("Error listing snapshots: %v\n", err)
			return
		}
		for _, id := range ids {
			snap, err := arc.Load(id)
			if err != nil {
				fmt.Printf("%s  (unreadable: %v)\n", id, err)
				continue
			}
			fmt.Printf("%s  tree=%s order=%d keys=%d taken=%s\n",
				id, snap.Tree, snap.Order, len(snap.Pairs), snap.TakenAt.Format("2006-01-02 15:04:05"))
		}
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Replay a snapshot into the tree",
	Long: `Replay an archived snapshot's pairs into the tree named by
--tree. Existing keys get the snapshot's payloads.

Example:
  ygg snapshot restore 2QKp5... --tree restored`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			fmt.Printf("Error parsing snapshot id: %v\n", err)
			return
		}

		tree, err := openTree(cmd)
		if err != nil {
			fmt.Printf("Error opening tree: %v\n", err)
			return
		}
		defer tree.Close()

		arc, err := openArchive(cmd)
		if err != nil {
			fmt.Printf("Error opening archive: %v\n", err)
			return
		}
		defer arc.Close()

		if err := arc.Restore(id, tree); err != nil {
			fmt.Printf("Error restoring snapshot: %v\n", err)
			return
		}

		fmt.Printf("Snapshot %s restored\n", id)
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
}

func openArchive(cmd *cobra.Command) (*archive.Archive, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return container.OpenArchive(filepath.Join(dataDir, "snapshots"))
}
