package cli

import (
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/sanLimbu/tasksync/internal"
)

func priorityColor(p internal.Priority) *color.Color {
	switch p {
	case internal.PriorityLow:
		return color.New(color.FgBlue)
	case internal.PriorityMedium:
		return color.New(color.FgMagenta)
	case internal.PriorityHigh:
		return color.New(color.FgYellow)
	case internal.PriorityCritical:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.Reset)
	}
}

// printTasks writes tasks as a borderless table.
func printTasks(w io.Writer, tasks []internal.Task, colorize bool, loc *time.Location) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"task", "fin", "due date", "priority", "description"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")

	for _, task := range tasks {
		completed := ""
		if task.Complete {
			completed = "X"
		}

		priority := priorityColor(task.Priority)
		description := color.New(color.Reset)

		if task.Complete {
			description = color.New(color.CrossedOut)
		}

		if colorize {
			priority.EnableColor()
			description.EnableColor()
		} else {
			priority.DisableColor()
			description.DisableColor()
		}

		table.Append([]string{
			task.ID.String(),
			completed,
			formatDueDate(task.DueDate, loc),
			priority.Sprint(task.Priority),
			description.Sprint(task.Description),
		})
	}

	table.Render()

	return nil
}
