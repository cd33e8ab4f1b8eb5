package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/solvrlabs/solvr/internal/store"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in to your account",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		var email string
		if len(args) == 1 {
			email = args[0]
		} else {
			fmt.Print("Email: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			email = strings.TrimSpace(line)
		}

		fmt.Print("Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return err
		}

		res, err := e.account.Login(cmd.Context(), email, string(pw))
		if err != nil {
			return err
		}

		if err := e.st.SessionRepo().Save(cmd.Context(), store.SavedSession{
			Token:   res.Token,
			Email:   res.User.Email,
			Name:    res.User.Name,
			Credits: res.User.Credits,
		}); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		fmt.Printf("Signed in as %s. %d credits available.\n", res.User.Email, res.User.Credits)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if e.sess.SignedIn() {
			// Server-side invalidation is best effort.
			_ = e.account.Logout(cmd.Context(), e.sess.Credential())
		}
		if err := e.st.SessionRepo().Clear(cmd.Context()); err != nil {
			return err
		}

		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if !e.sess.SignedIn() {
			fmt.Println("Not signed in.")
			return nil
		}

		// Prefer the live profile; fall back to the saved session when
		// the backend is unreachable.
		if user, err := e.account.Me(cmd.Context(), e.sess.Credential()); err == nil {
			fmt.Printf("%s (%s) — %d credits\n", user.Name, user.Email, user.Credits)
			e.sess.SetBalance(user.Credits)
			e.persistBalance(cmd.Context())
			return nil
		}

		email, name := e.sess.Profile()
		fmt.Printf("%s (%s) — %d credits (cached)\n", name, email, e.sess.Balance())
		return nil
	},
}
