package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mytasks/internal/notify"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in locally with an email address",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup <name> <email>",
	Short: "Create a local profile and sign in",
	Args:  cobra.ExactArgs(2),
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear all tasks",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, notify.WriterSink{W: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.session.Login(args[0])
	return err
}

func runSignup(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, notify.WriterSink{W: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.session.Signup(args[0], args[1])
	return err
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, notify.WriterSink{W: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer a.Close()

	return a.session.Logout()
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	u, ok := a.session.CurrentUser()
	if !ok {
		fmt.Fprintln(out, "Not logged in")
		return nil
	}
	fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(out, "Plan: %s, joined %s\n", u.Plan, humanize.RelTime(u.JoinedDate, now(), "ago", "from now"))
	return nil
}
