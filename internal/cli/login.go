package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

const credentialsFileName = "credentials.json"

type credentials struct {
	Server    string `json:"server"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a cinedex server",
		Long:  "Exchange a username and password for a session and store it for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			prompt := func(label string) (string, error) {
				fmt.Fprint(cmd.OutOrStdout(), label)
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
				}
				return strings.TrimSpace(line), nil
			}

			var err error
			if username == "" {
				if username, err = prompt("Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt("Password: "); err != nil {
					return err
				}
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password cannot be empty")
			}

			resp, err := client.Post("/api/v1/auth/login", map[string]string{
				"username": username,
				"password": password,
			})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			var data struct {
				SessionID string `json:"session_id"`
				Role      string `json:"role"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			credPath, err := saveCredentials(credentials{Server: flagServer, Username: username, SessionID: data.SessionID})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s). Session saved to %s\n", username, data.Role, credPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account name (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if client.Token != "" {
				if _, err := client.Post("/api/v1/auth/logout", nil); err != nil {
					logger.Warn("server logout failed", "error", err)
				}
			}
			credPath, err := credentialsPath()
			if err != nil {
				return err
			}
			if err := os.Remove(credPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("remove credentials: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

// credentialsPath returns the path to the credentials file (~/.cinedex/credentials.json).
func credentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".cinedex", credentialsFileName), nil
}

func saveCredentials(creds credentials) (string, error) {
	credPath, err := credentialsPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(credPath), 0o700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(credPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write credentials: %w", err)
	}
	return credPath, nil
}

// LoadToken reads the stored session ID, returning empty string if not found.
func LoadToken() string {
	p, err := credentialsPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return ""
	}
	return creds.SessionID
}
