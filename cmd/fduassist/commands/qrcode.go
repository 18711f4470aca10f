package commands

import (
	"fmt"

	"fduassist-backend/lib/scrapers/ecard"
	"fduassist-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(qrcodeCmd)
}

var qrcodeCmd = &cobra.Command{
	Use:   "qrcode",
	Short: "Prints the campus card payment code.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		session := getSession(cmd.Context(), cfg)

		client := ecard.NewClient(session, ecard.Options{})
		code, err := client.GetPaymentQRCode(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch payment code", err)
		}
		fmt.Println(code)
	},
}
