package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/kazz187/volunteerdesk/internal/assignment"
	"github.com/kazz187/volunteerdesk/internal/client"
	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/task"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/internal/workload"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	faint  = color.New(color.Faint)
)

func statusColor(s content.Status) *color.Color {
	switch s {
	case content.StatusUnclaimed:
		return yellow
	case content.StatusCompleted:
		return green
	default:
		return color.New(color.FgCyan)
	}
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func printRecord(rec *content.Record) {
	bold.Printf("%s", rec.Title)
	faint.Printf("  %s (%s)\n", rec.ID, rec.Kind)
	if rec.Task == nil {
		fmt.Println("  no task")
		return
	}
	t := rec.Task
	fmt.Printf("  %s  %s priority  %d min  ", t.Category, t.Priority, t.EstimatedTime)
	statusColor(t.Status).Print(t.Status)
	if t.AssignedTo != "" {
		fmt.Printf("  assigned to %s", t.AssignedTo)
	}
	fmt.Println()
}

func printTasks(tasks []*task.View) {
	if len(tasks) == 0 {
		faint.Println("no tasks")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "CONTENT\tTITLE\tCATEGORY\tPRIORITY\tSTATUS\tASSIGNEE\tDUE")
	for _, t := range tasks {
		assignee := t.AssignedTo
		if t.AssignedUserName != "" {
			assignee = t.AssignedUserName
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
			if t.IsOverdue != nil && *t.IsOverdue {
				due = red.Sprint(due + " overdue")
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ContentID, t.ContentTitle, t.Category, t.Priority, statusColor(t.Status).Sprint(t.Status), assignee, due)
	}
	w.Flush()
}

func printStatistics(s *task.Statistics) {
	w := newTable()
	fmt.Fprintf(w, "total\t%d\n", s.TotalTasks)
	fmt.Fprintf(w, "unclaimed\t%s\n", yellow.Sprint(s.UnclaimedTasks))
	fmt.Fprintf(w, "in progress\t%d\n", s.InProgressTasks)
	fmt.Fprintf(w, "completed\t%s\n", green.Sprint(s.CompletedTasks))
	fmt.Fprintf(w, "overdue\t%s\n", red.Sprint(s.OverdueTasks))
	fmt.Fprintf(w, "avg completion\t%.1f min\n", s.AverageCompletionTime)
	for _, c := range content.Categories {
		if n := s.ByCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %s\t%d\n", c, n)
		}
	}
	for _, p := range content.Priorities {
		if n := s.ByPriority[p]; n > 0 {
			fmt.Fprintf(w, "  %s priority\t%d\n", p, n)
		}
	}
	w.Flush()
}

func printCandidates(candidates []*assignment.Candidate) {
	if len(candidates) == 0 {
		faint.Println("no qualified volunteers")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "VOLUNTEER\tSCORE\tSKILLS\tWORKLOAD\tREASONS")
	for _, c := range candidates {
		reasons := strings.Join(c.ReasonsSelected, "; ")
		if len(c.ReasonsRejected) > 0 {
			reasons += red.Sprint(" | " + strings.Join(c.ReasonsRejected, "; "))
		}
		fmt.Fprintf(w, "%s\t%.1f\t%s\t%d\t%s\n",
			c.Volunteer.ID, c.Score, strings.Join(c.MatchedSkills, ","), c.CurrentWorkload, reasons)
	}
	w.Flush()
}

func printResult(r *assignment.Result) {
	if r.Success {
		green.Println(r.Reason)
	} else {
		yellow.Println(r.Reason)
	}
	printCandidates(r.Candidates)
	for _, s := range r.FallbackSuggestions {
		fmt.Printf("  - %s\n", s)
	}
}

func printWorkloads(workloads map[string]*workload.Workload) {
	ids := make([]string, 0, len(workloads))
	for id := range workloads {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	w := newTable()
	fmt.Fprintln(w, "VOLUNTEER\tCURRENT\tCOMPLETED\tAVG MIN")
	for _, id := range ids {
		wl := workloads[id]
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\n", id, wl.CurrentTasks, wl.CompletedTasks, wl.AverageCompletionTime)
	}
	w.Flush()
}

func printVolunteers(profiles []*volunteer.Profile) {
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tROLE\tAVAILABILITY\tASSIGNMENTS\tTAGS")
	for _, p := range profiles {
		accepts := red.Sprint("no")
		if p.AcceptsAssignments() {
			accepts = green.Sprint("yes")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.DisplayName, p.Role, p.Availability, accepts, strings.Join(p.Tags, ","))
	}
	w.Flush()
}

func importVolunteers(ctx context.Context, c *client.Client, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var profiles []*volunteer.Profile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, p := range profiles {
		if _, err := c.PutVolunteer(ctx, p); err != nil {
			return fmt.Errorf("volunteer %s: %w", p.ID, err)
		}
		green.Printf("imported %s\n", p.ID)
	}
	return nil
}
