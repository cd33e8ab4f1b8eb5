package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent solve attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		attempts, err := e.st.AttemptRepo().Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Println("No solves yet.")
			return nil
		}

		for _, a := range attempts {
			line := fmt.Sprintf("%s  %-10s %s  %d credits",
				a.StartedAt.Local().Format("2006-01-02 15:04"),
				a.Phase,
				a.FileName,
				a.CreditsUsed,
			)
			if a.ErrorDetail != "" {
				line += "  (" + a.ErrorDetail + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum attempts to list")
}
