package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/songdb/internal/fusefs"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "Serve the library as a read-only filesystem (FUSE)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mountPoint := args[0]

		d, err := openDatabase()
		if err != nil {
			return err
		}
		defer func() { _ = d.Close() }()

		host := fuse.NewFileSystemHost(fusefs.New(d))

		fmt.Printf("Mounting songdb at %s...\n", mountPoint)

		// Read-only; own the mount so unprivileged readers work.
		opts := []string{
			"-o", "ro",
			"-o", fmt.Sprintf("uid=%d", os.Getuid()),
			"-o", fmt.Sprintf("gid=%d", os.Getgid()),
		}

		if !host.Mount(mountPoint, opts) {
			return fmt.Errorf("mount failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mountCmd)
}
