package commands

import (
	"os"

	"fduassist-backend/lib/scrapers/myfdu"
	"fduassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var gradesLatest *bool

func init() {
	gradesLatest = gradesCmd.Flags().Bool("latest", false, "Only show the most recent term.")
	rootCmd.AddCommand(gradesCmd)
}

var gradesCmd = &cobra.Command{
	Use:   "grades [--latest]",
	Short: "Prints the transcript.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		service := getService(cmd.Context(), cfg)

		grades, err := service.GetGrades(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch grades", err)
		}
		if *gradesLatest {
			grades = myfdu.GradesOfLatestTerm(grades)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Code", "Year", "Semester", "Name", "Credit", "Grade", "Point"})
		for _, grade := range grades {
			t.AppendRow(table.Row{
				grade.Code,
				grade.Year,
				grade.Semester,
				grade.Name,
				grade.Credit,
				grade.Grade,
				grade.Point,
			})
		}
		t.Render()
	},
}
