package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/kazz187/volunteerdesk/internal/assignment"
	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/internal/client"
	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/task"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
)

var (
	app = kingpin.New("volunteerdesk", "Volunteer task assignment for the community newsletter")

	serverURL = app.Flag("server", "Volunteer desk server URL").Envar("VOLUNTEERDESK_SERVER").Default("http://localhost:3100").String()
	token     = app.Flag("token", "Bearer token").Envar("VOLUNTEERDESK_TOKEN").String()

	// Token commands
	tokenCmd       = app.Command("token", "Access token commands")
	tokenIssueCmd  = tokenCmd.Command("issue", "Issue a signed access token")
	tokenIssueUser = tokenIssueCmd.Arg("user", "Volunteer ID").Required().String()
	tokenIssueRole = tokenIssueCmd.Flag("role", "Role claim").Default(string(volunteer.RoleContributor)).Enum(roleNames()...)
	tokenIssueTTL  = tokenIssueCmd.Flag("ttl", "Token lifetime").Default("24h").Duration()
	tokenSecret    = tokenIssueCmd.Flag("secret", "Signing secret").Envar("VOLUNTEERDESK_JWT_SECRET").Required().String()

	// Content commands
	contentCmd         = app.Command("content", "Content commands")
	contentCreateCmd   = contentCmd.Command("create", "Create a content record")
	contentCreateTitle = contentCreateCmd.Arg("title", "Title").Required().String()
	contentCreateKind  = contentCreateCmd.Flag("kind", "Content kind").Default("article").String()

	// Task commands
	taskCmd = app.Command("task", "Task commands")

	taskCreateCmd          = taskCmd.Command("create", "Attach a task to a content record")
	taskCreateContent      = taskCreateCmd.Arg("content-id", "Content ID").Required().String()
	taskCreateCategory     = taskCreateCmd.Flag("category", "Task category").Required().Enum(categoryNames()...)
	taskCreatePriority     = taskCreateCmd.Flag("priority", "Task priority").Default(string(content.PriorityMedium)).Enum(priorityNames()...)
	taskCreateEstimate     = taskCreateCmd.Flag("estimate", "Estimated time in minutes").Default("30").Int()
	taskCreateInstructions = taskCreateCmd.Flag("instructions", "Instructions for the volunteer").String()
	taskCreateDue          = taskCreateCmd.Flag("due", "Due date (RFC 3339)").String()
	taskCreateAssignTo     = taskCreateCmd.Flag("assign-to", "Assign immediately to this volunteer").String()

	taskAssignCmd     = taskCmd.Command("assign", "Assign a task; without --user the caller claims it")
	taskAssignContent = taskAssignCmd.Arg("content-id", "Content ID").Required().String()
	taskAssignUser    = taskAssignCmd.Flag("user", "Volunteer ID").String()
	taskAssignMethod  = taskAssignCmd.Flag("method", "Assignment method").Enum(
		string(task.MethodAutomatic), string(task.MethodManual), string(task.MethodSelfClaimed))

	taskStatusCmd     = taskCmd.Command("status", "Change a task's status")
	taskStatusContent = taskStatusCmd.Arg("content-id", "Content ID").Required().String()
	taskStatusValue   = taskStatusCmd.Arg("status", "New status").Required().Enum(statusNames()...)
	taskStatusAs      = taskStatusCmd.Flag("as", "Act on behalf of this volunteer").String()

	taskListCmd    = taskCmd.Command("list", "List tasks")
	taskListStatus = taskListCmd.Flag("status", "Filter by status").Enum(statusNames()...)
	taskListLimit  = taskListCmd.Flag("limit", "Maximum number of tasks").Int()
	taskListUser   = taskListCmd.Flag("user", "Only tasks assigned to this volunteer").String()

	taskStatsCmd = taskCmd.Command("stats", "Show task statistics")

	// Assignment commands
	recommendCmd      = app.Command("recommend", "Rank volunteers for a kind of task")
	recommendCategory = recommendCmd.Flag("category", "Task category").Required().Enum(categoryNames()...)
	recommendPriority = recommendCmd.Flag("priority", "Task priority").Default(string(content.PriorityMedium)).Enum(priorityNames()...)
	recommendSkills   = recommendCmd.Flag("skill", "Additional required skill").Strings()
	recommendMax      = recommendCmd.Flag("max", "Maximum number of candidates").Default("5").Int()

	autoAssignCmd     = app.Command("auto-assign", "Assign a task to the best matching volunteer")
	autoAssignContent = autoAssignCmd.Arg("content-id", "Content ID").Required().String()
	autoAssignDryRun  = autoAssignCmd.Flag("dry-run", "Only show the ranking").Bool()
	autoAssignSkills  = autoAssignCmd.Flag("skill", "Additional required skill").Strings()

	workloadsCmd = app.Command("workloads", "Show volunteer workloads")

	// Volunteer commands
	volunteerCmd = app.Command("volunteer", "Volunteer commands")

	volunteerListCmd          = volunteerCmd.Command("list", "List volunteers")
	volunteerListTags         = volunteerListCmd.Flag("tag", "Required tag").Strings()
	volunteerListAvailability = volunteerListCmd.Flag("availability", "Allowed availability").Strings()

	volunteerImportCmd  = volunteerCmd.Command("import", "Create or replace volunteers from a YAML file")
	volunteerImportFile = volunteerImportCmd.Arg("file", "YAML file with a list of profiles").Required().ExistingFile()

	volunteerTagCmd    = volunteerCmd.Command("tag", "Add or remove a tag")
	volunteerTagID     = volunteerTagCmd.Arg("id", "Volunteer ID").Required().String()
	volunteerTagValue  = volunteerTagCmd.Arg("tag", "Tag (namespace:value)").Required().String()
	volunteerTagRemove = volunteerTagCmd.Flag("remove", "Remove the tag instead of adding it").Bool()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string) error {
	if command == tokenIssueCmd.FullCommand() {
		return issueToken()
	}

	c := client.New(*serverURL, *token)
	switch command {
	case contentCreateCmd.FullCommand():
		rec, err := c.CreateContent(ctx, *contentCreateTitle, *contentCreateKind)
		if err != nil {
			return err
		}
		printRecord(rec)
	case taskCreateCmd.FullCommand():
		req := task.CreateTaskRequest{
			Category:      content.Category(*taskCreateCategory),
			EstimatedTime: *taskCreateEstimate,
			Priority:      content.Priority(*taskCreatePriority),
			Instructions:  *taskCreateInstructions,
			AssignTo:      *taskCreateAssignTo,
		}
		if *taskCreateDue != "" {
			due, err := time.Parse(time.RFC3339, *taskCreateDue)
			if err != nil {
				return fmt.Errorf("invalid --due: %w", err)
			}
			req.DueDate = &due
		}
		rec, err := c.CreateTask(ctx, *taskCreateContent, req)
		if err != nil {
			return err
		}
		printRecord(rec)
	case taskAssignCmd.FullCommand():
		rec, err := c.AssignTask(ctx, *taskAssignContent, *taskAssignUser, task.AssignmentMethod(*taskAssignMethod))
		if err != nil {
			return err
		}
		printRecord(rec)
	case taskStatusCmd.FullCommand():
		rec, err := c.UpdateTaskStatus(ctx, *taskStatusContent, content.Status(*taskStatusValue), *taskStatusAs)
		if err != nil {
			return err
		}
		printRecord(rec)
	case taskListCmd.FullCommand():
		var (
			tasks []*task.View
			err   error
		)
		if *taskListUser != "" {
			tasks, err = c.UserTasks(ctx, *taskListUser, content.Status(*taskListStatus))
		} else {
			tasks, err = c.ListTasks(ctx, content.Status(*taskListStatus), *taskListLimit)
		}
		if err != nil {
			return err
		}
		printTasks(tasks)
	case taskStatsCmd.FullCommand():
		stats, err := c.TaskStatistics(ctx)
		if err != nil {
			return err
		}
		printStatistics(stats)
	case recommendCmd.FullCommand():
		candidates, err := c.Recommend(ctx, content.Category(*recommendCategory), content.Priority(*recommendPriority), *recommendSkills, *recommendMax)
		if err != nil {
			return err
		}
		printCandidates(candidates)
	case autoAssignCmd.FullCommand():
		result, err := c.AutoAssign(ctx, assignment.AutoAssignRequest{
			ContentID:   *autoAssignContent,
			ExtraSkills: *autoAssignSkills,
			DryRun:      *autoAssignDryRun,
		})
		if err != nil {
			return err
		}
		printResult(result)
	case workloadsCmd.FullCommand():
		workloads, err := c.Workloads(ctx)
		if err != nil {
			return err
		}
		printWorkloads(workloads)
	case volunteerListCmd.FullCommand():
		allowed := make([]volunteer.Availability, 0, len(*volunteerListAvailability))
		for _, a := range *volunteerListAvailability {
			allowed = append(allowed, volunteer.Availability(a))
		}
		profiles, err := c.ListVolunteers(ctx, *volunteerListTags, allowed)
		if err != nil {
			return err
		}
		printVolunteers(profiles)
	case volunteerImportCmd.FullCommand():
		return importVolunteers(ctx, c, *volunteerImportFile)
	case volunteerTagCmd.FullCommand():
		var (
			p   *volunteer.Profile
			err error
		)
		if *volunteerTagRemove {
			p, err = c.RemoveVolunteerTag(ctx, *volunteerTagID, *volunteerTagValue)
		} else {
			p, err = c.AddVolunteerTag(ctx, *volunteerTagID, *volunteerTagValue)
		}
		if err != nil {
			return err
		}
		printVolunteers([]*volunteer.Profile{p})
	}
	return nil
}

func issueToken() error {
	t, err := auth.NewIssuer(*tokenSecret, auth.WithTTL(*tokenIssueTTL)).Issue(*tokenIssueUser, *tokenIssueRole)
	if err != nil {
		return err
	}
	fmt.Println(t)
	return nil
}

func roleNames() []string {
	names := make([]string, 0, len(volunteer.Roles))
	for _, r := range volunteer.Roles {
		names = append(names, string(r))
	}
	return names
}

func categoryNames() []string {
	names := make([]string, 0, len(content.Categories))
	for _, c := range content.Categories {
		names = append(names, string(c))
	}
	return names
}

func priorityNames() []string {
	names := make([]string, 0, len(content.Priorities))
	for _, p := range content.Priorities {
		names = append(names, string(p))
	}
	return names
}

func statusNames() []string {
	names := make([]string, 0, len(content.Statuses))
	for _, s := range content.Statuses {
		names = append(names, string(s))
	}
	return names
}
