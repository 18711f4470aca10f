package commands

import (
	"fmt"

	"fduassist-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dailyCmd)
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Reports whether today's health check-in has been submitted.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		service := getService(cmd.Context(), cfg)

		checked, err := service.HasCheckedInToday(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to query check-in status", err)
		}
		if checked {
			fmt.Println("already checked in today")
		} else {
			fmt.Println("NOT checked in today")
		}
	},
}
