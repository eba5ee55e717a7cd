package main

import (
	"github.com/spf13/cobra"

	"github.com/profwatch/profwatch/pkg/baseline"
)

func newBaselineCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage saved run baselines",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "baseline storage directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved baselines",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := baseline.List(dir)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				cmd.Println("No baselines saved.")
				return nil
			}
			for _, name := range names {
				b, err := baseline.Load(name, dir)
				if err != nil {
					cmd.Printf("%s (unreadable: %v)\n", name, err)
					continue
				}
				cmd.Printf("%-20s %s  %d functions\n",
					name, b.Timestamp.Format("2006-01-02 15:04:05"), len(b.Functions))
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := baseline.Load(args[0], dir)
			if err != nil {
				return err
			}
			cmd.Printf("Baseline %q from %s on %s (interval %v)\n",
				b.Name, b.Timestamp.Format("2006-01-02 15:04:05"), b.Hostname, b.Interval)
			for _, f := range b.Functions {
				cmd.Printf("  %-35s calls=%-6d span=%-10v avg_cpu=%.1f avg_mem=%.1f\n",
					f.ID, f.Calls, f.ActiveSpan, f.AvgCPU, f.AvgMemory)
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := baseline.Delete(args[0], dir); err != nil {
				return err
			}
			cmd.Printf("Deleted baseline %q\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}
