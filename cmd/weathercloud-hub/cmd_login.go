package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Weathercloud",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the session and forget stored credentials",
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().String("mail", "", "account mail address")
	loginCmd.Flags().Bool("remember", false, "store the credentials for automatic sign-in")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}
	defer h.Close()

	mail, _ := cmd.Flags().GetString("mail")
	if mail == "" {
		fmt.Print("Mail: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read mail: %w", err)
		}
		mail = strings.TrimSpace(line)
	}
	if mail == "" {
		return fmt.Errorf("mail cannot be empty")
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println() // New line after password input

	password := string(passwordBytes)
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	remember, _ := cmd.Flags().GetBool("remember")
	if err := h.client.Login(cmd.Context(), mail, password, remember); err != nil {
		return err
	}

	fmt.Println("Signed in.")
	if remember {
		fmt.Println("Credentials stored; serve and session commands sign in automatically.")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.client.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}
