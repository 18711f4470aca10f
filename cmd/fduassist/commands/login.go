package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"fduassist-backend/lib/keychain"
	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/serviceutil"
	"fduassist-backend/lib/sessioncache"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Stores UIS credentials for the configured student and verifies them with a live login.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("username: ")
		username, err := reader.ReadString('\n')
		if err != nil {
			serviceutil.Fatal("failed to read username", err)
		}
		fmt.Print("password: ")
		password, err := reader.ReadString('\n')
		if err != nil {
			serviceutil.Fatal("failed to read password", err)
		}

		kc := openKeychain(cfg)
		err = kc.Set(cmd.Context(), sessioncache.Namespace, cfg.Student, keychain.Key{
			Username: strings.TrimSpace(username),
			Password: strings.TrimSpace(password),
		})
		if err != nil {
			serviceutil.Fatal("failed to store credentials", err)
		}

		session := getSession(cmd.Context(), cfg)
		fmt.Println("login ok, session state:", session.State())
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logs the current session out of UIS and deletes the stored credentials.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		kc := openKeychain(cfg)
		key, ok, err := kc.Get(cmd.Context(), sessioncache.Namespace, cfg.Student)
		if err != nil {
			serviceutil.Fatal("failed to read credentials", err)
		}
		if ok {
			session, err := uis.NewSession(uis.Options{})
			if err != nil {
				serviceutil.Fatal("failed to create session", err)
			}
			err = session.Login(cmd.Context(), key.Username, key.Password)
			if err == nil {
				if err := session.Logout(cmd.Context()); err != nil {
					serviceutil.Fatal("failed to logout", err)
				}
			}
		}

		err = kc.Delete(cmd.Context(), sessioncache.Namespace, cfg.Student)
		if err != nil {
			serviceutil.Fatal("failed to delete credentials", err)
		}
		fmt.Println("logged out")
	},
}
