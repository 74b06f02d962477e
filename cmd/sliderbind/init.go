package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/sliderbind/internal/config"
)

func initCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default sliderbind.yaml",
		Long: `Write a sliderbind.yaml with default settings into the directory.

An existing sliderbind.json, sliderbind.yaml or sliderbind.yml is never
overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(dir)
			if err != nil {
				return err
			}
			success(cmd, "Wrote %s", path)
			info(cmd, "Start the server with: sliderbind serve")
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "Directory to write the config file into")
	return cmd
}
