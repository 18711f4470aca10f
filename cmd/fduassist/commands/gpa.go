package commands

import (
	"fmt"
	"os"
	"time"

	"fduassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	gpaSnapshot *bool
	gpaHistory  *bool
)

func init() {
	gpaSnapshot = gpaCmd.Flags().Bool("snapshot", false, "Record today's summary in the grades database.")
	gpaHistory = gpaCmd.Flags().Bool("history", false, "Print the recorded snapshots instead of fetching.")
	rootCmd.AddCommand(gpaCmd)
}

var gpaCmd = &cobra.Command{
	Use:   "gpa [--snapshot] [--history]",
	Short: "Prints the GPA summary, reconciled across the registrar and the transcript.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if *gpaHistory {
			service := getService(cmd.Context(), cfg)
			history, err := service.GPAHistory(cmd.Context(), cfg.Student)
			if err != nil {
				serviceutil.Fatal("failed to read gpa history", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Date", "Major", "GPA", "Credits", "Ranking"})
			for _, snap := range history {
				ranking := ""
				if snap.Total != 0 {
					ranking = fmt.Sprintf("%d/%d", snap.Ranking, snap.Total)
				}
				t.AppendRow(table.Row{
					snap.Time.Format(time.DateOnly),
					snap.Major,
					snap.GPA,
					snap.Credits,
					ranking,
				})
			}
			t.Render()
			return
		}

		service := getService(cmd.Context(), cfg)

		if *gpaSnapshot {
			summary, err := service.SnapshotGPA(cmd.Context(), cfg.Student)
			if err != nil {
				serviceutil.Fatal("failed to snapshot gpa", err)
			}
			fmt.Println("recorded:", summary)
			return
		}

		summary, err := service.GetGPA(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch gpa", err)
		}
		fmt.Println(summary)
	},
}
