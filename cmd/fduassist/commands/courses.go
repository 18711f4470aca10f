package commands

import (
	"context"
	"fmt"
	"os"

	"fduassist-backend/lib/scrapers/xk"
	"fduassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	courseNo   *string
	courseCode *string
	courseName *string
)

func init() {
	courseNo = coursesCmd.PersistentFlags().String("no", "", "Lesson number, e.g. ECON130003.01.")
	courseCode = coursesCmd.PersistentFlags().String("code", "", "Course code, e.g. ECON130003.")
	courseName = coursesCmd.PersistentFlags().String("name", "", "Course name, fuzzy matched for elect/withdraw.")

	coursesCmd.AddCommand(electCmd)
	coursesCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(coursesCmd)
}

func courseQuery() xk.Query {
	return xk.Query{
		No:   *courseNo,
		Code: *courseCode,
		Name: *courseName,
	}
}

func getEnrollmentClient(ctx context.Context, cfg Config) *xk.Client {
	client := xk.NewClient(getSession(ctx, cfg), xk.Options{})
	err := client.Login(ctx)
	if err != nil {
		serviceutil.Fatal("failed to login to the enrollment portal", err)
	}
	return client
}

var coursesCmd = &cobra.Command{
	Use:   "courses [--no <no>] [--code <code>] [--name <name>]",
	Short: "Queries the enrollment portal for courses and seat counts.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := getEnrollmentClient(cmd.Context(), cfg)

		courses, err := client.QueryCourses(cmd.Context(), courseQuery())
		if err != nil {
			serviceutil.Fatal("failed to query courses", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"No", "Name", "Credits", "Teachers", "Seats"})
		for _, course := range courses {
			t.AppendRow(table.Row{
				course.No,
				course.Name,
				course.Credits,
				course.Teachers,
				fmt.Sprintf("%d/%d", course.Amount.Selected, course.Amount.Total),
			})
		}
		t.Render()
	},
}

var electCmd = &cobra.Command{
	Use:   "elect",
	Short: "Enrolls into the course the flags resolve to.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := getEnrollmentClient(cmd.Context(), cfg)

		ok, err := client.ElectCourse(cmd.Context(), courseQuery())
		if err != nil {
			serviceutil.Fatal("failed to elect course", err)
		}
		if ok {
			fmt.Println("elected")
		} else {
			fmt.Println("rejected by the portal (likely full)")
		}
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Drops the course the flags resolve to.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := getEnrollmentClient(cmd.Context(), cfg)

		ok, err := client.WithdrawCourse(cmd.Context(), courseQuery())
		if err != nil {
			serviceutil.Fatal("failed to withdraw course", err)
		}
		if ok {
			fmt.Println("withdrawn")
		} else {
			fmt.Println("rejected by the portal")
		}
	},
}
