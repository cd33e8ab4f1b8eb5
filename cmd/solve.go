package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solvrlabs/solvr/internal/solve"
	"github.com/solvrlabs/solvr/internal/stream"
)

var solveQuiet bool

var solveCmd = &cobra.Command{
	Use:   "solve <file>",
	Short: "Solve a question document and print the solution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if !e.sess.SignedIn() {
			return fmt.Errorf("not signed in; run: solvr login")
		}

		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}

		done := make(chan solve.Update, 1)
		var printed int

		controller := e.newController(func(u solve.Update) {
			// Stream new content to stdout as it arrives; status lines
			// go to stderr so the solution stays pipeable.
			if len(u.Content) > printed {
				fmt.Print(u.Content[printed:])
				printed = len(u.Content)
			}
			if !solveQuiet && u.Status != "" {
				fmt.Fprintln(os.Stderr, "·", u.Status)
			}
			if u.Phase.Terminal() {
				select {
				case done <- u:
				default:
				}
			}
		})

		ctx := cmd.Context()
		if err := controller.Start(ctx, stream.FileDocument{Path: path}); err != nil {
			return err
		}

		var last solve.Update
		select {
		case last = <-done:
		case <-ctx.Done():
			controller.Cancel()
			last = <-done
		}

		e.persistBalance(context.Background())

		if !strings.HasSuffix(last.Content, "\n") {
			fmt.Println()
		}

		switch last.Phase {
		case solve.PhaseCompleted:
			if !solveQuiet {
				fmt.Fprintf(os.Stderr, "Done. %d credits remaining.\n", last.Balance)
			}
			return nil
		case solve.PhaseCancelled:
			return fmt.Errorf("solve cancelled")
		default:
			if last.Err != nil {
				return last.Err
			}
			return fmt.Errorf("solve failed")
		}
	},
}

func init() {
	solveCmd.Flags().BoolVarP(&solveQuiet, "quiet", "q", false, "Suppress progress output on stderr")
}
