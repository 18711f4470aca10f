package commands

import (
	"fmt"
	"os"
	"strings"

	"fduassist-backend/lib/scrapers/jwfw/coursetable"
	"fduassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func formatSlots(slots []coursetable.Slot) string {
	parts := make([]string, len(slots))
	for i, slot := range slots {
		name := fmt.Sprintf("D%d", slot.Weekday)
		if slot.Weekday >= 0 && slot.Weekday < len(weekdayNames) {
			name = weekdayNames[slot.Weekday]
		}
		parts[i] = fmt.Sprintf("%s/%d", name, slot.Period+1)
	}
	return strings.Join(parts, " ")
}

func formatWeeks(weeks []int) string {
	parts := make([]string, len(weeks))
	for i, week := range weeks {
		parts[i] = fmt.Sprintf("%d", week)
	}
	return strings.Join(parts, ",")
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Prints the current course table.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		service := getService(cmd.Context(), cfg)

		activities, err := service.GetSchedule(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch schedule", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Course", "Name", "Teacher", "Room", "Slots", "Weeks"})
		for _, activity := range activities {
			t.AppendRow(table.Row{
				activity.Course,
				activity.Name,
				activity.Teacher,
				activity.Room,
				formatSlots(activity.Slots),
				formatWeeks(activity.Weeks),
			})
		}
		t.Render()
	},
}
