package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List available credit plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		for _, p := range e.plans.Catalog(cmd.Context()) {
			marker := " "
			if p.BestValue {
				marker = "★"
			}
			fmt.Printf("%s %-16s %5d credits  ₹%.0f\n", marker, p.Name, p.Credits, p.Price)
			for _, f := range p.Features {
				if f.Included {
					fmt.Printf("    ✓ %s\n", f.Feature)
				}
			}
		}

		if e.sess.SignedIn() {
			fmt.Printf("\nCurrent balance: %d credits\n", e.sess.Balance())
		}
		return nil
	},
}
