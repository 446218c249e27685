package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/session"
	"github.com/theirongolddev/finboard/internal/tui"
)

var (
	flagUsername string
	flagPassword string
	flagEmail    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the token",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE:  runSignup,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVarP(&flagUsername, "username", "u", "", "Username")
		c.Flags().StringVarP(&flagPassword, "password", "p", "", "Password (prompted when omitted)")
	}
	signupCmd.Flags().StringVar(&flagEmail, "email", "", "Email address")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, signupCmd)
}

func runLogin(_ *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if flagOffline {
		return errors.New("sign-in needs the API; drop --offline")
	}

	vals := tui.LoginValues{Username: flagUsername, Password: flagPassword}
	if vals.Username == "" || vals.Password == "" {
		if err := tui.NewLoginForm(&vals, "").Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}

	ctx, cancel := commandContext()
	defer cancel()
	if err := e.session.Login(ctx, strings.TrimSpace(vals.Username), vals.Password); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return errors.New(session.MsgInvalidCredentials)
		}
		return err
	}

	u, _ := e.session.User()
	fmt.Printf("  Signed in as %s\n", u.Username)
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()
	if e.session.Init(ctx) != session.StateAuthenticated {
		fmt.Println("  Not signed in.")
		return nil
	}
	if err := e.session.Logout(ctx); err != nil {
		fmt.Printf("  %s Local token removed.\n", session.MsgLogoutFailed)
		e.log.Warn().Err(err).Msg("logout")
		return nil
	}
	fmt.Println("  Signed out.")
	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()
	if err := e.requireSession(ctx); err != nil {
		return err
	}

	u, _ := e.session.User()
	fmt.Printf("  User:  %s\n", u.Username)
	if u.Email != "" {
		fmt.Printf("  Email: %s\n", u.Email)
	}
	fmt.Printf("  API:   %s\n", e.apiURL)
	return nil
}

// signupValues backs the signup prompt.
type signupValues struct {
	Username, Email, Password, Confirm string
}

func runSignup(_ *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if flagOffline {
		return errors.New("signup needs the API; drop --offline")
	}

	v := signupValues{Username: flagUsername, Email: flagEmail, Password: flagPassword, Confirm: flagPassword}
	if v.Username == "" || v.Email == "" || v.Password == "" {
		if err := signupForm(&v).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}
	if v.Password != v.Confirm {
		return errors.New("passwords do not match")
	}

	ctx, cancel := commandContext()
	defer cancel()
	resp, err := e.client.Signup(ctx, api.SignupRequest{
		Username:        strings.TrimSpace(v.Username),
		Email:           strings.TrimSpace(v.Email),
		Password:        v.Password,
		ConfirmPassword: v.Confirm,
	})
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	if err := e.session.Adopt(resp); err != nil {
		return err
	}
	if resp.Message != "" {
		fmt.Printf("  %s\n", resp.Message)
	}
	fmt.Printf("  Signed in as %s\n", resp.User.Username)
	return nil
}

func signupForm(v *signupValues) *huh.Form {
	nonEmpty := func(name string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", name)
			}
			return nil
		}
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Create a finboard account"),
			huh.NewInput().Title("Username").Value(&v.Username).Validate(nonEmpty("Username")),
			huh.NewInput().Title("Email").Value(&v.Email).Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("Enter a valid email address")
				}
				return nil
			}),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&v.Password).
				Validate(nonEmpty("Password")),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&v.Confirm).
				Validate(func(s string) error {
					if s != v.Password {
						return errors.New("Passwords do not match")
					}
					return nil
				}),
		),
	).WithTheme(tui.FormTheme())
}
