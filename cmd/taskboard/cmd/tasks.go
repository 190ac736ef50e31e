package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/backend"
	"taskboard/internal/shutdown"
	"taskboard/internal/taskstore"
	"taskboard/internal/utils"
	"taskboard/internal/view"
)

// newListCmd creates the 'list' subcommand
func newListCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long:  "List tasks, newest first. Filters are applied by the task service.",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  withApp(stdout, cfg, mgr, doList),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().Bool("completed", false, "Only completed tasks")
	cmd.Flags().Bool("pending", false, "Only tasks not yet completed")
	cmd.Flags().StringP("priority", "p", "", "Only tasks with this priority (low, medium, high)")
	return cmd
}

func doList(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	filter, err := listFilter(cmd)
	if err != nil {
		return err
	}

	s := a.newStore().Dispatch(ctx, taskstore.RefreshFiltered{Filter: filter})
	if err := a.stateErr(s); err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput || a.cfg.OutputFormat == "json" {
		return outputTaskListJSON(s.Tasks, a.stdout)
	}
	printTasks(a.stdout, s.Tasks, filter)
	return nil
}

// listFilter builds the server-side filter from the list flags
func listFilter(cmd *cobra.Command) (backend.Filter, error) {
	var filter backend.Filter

	completed, _ := cmd.Flags().GetBool("completed")
	pending, _ := cmd.Flags().GetBool("pending")
	if completed && pending {
		return filter, userError{errors.New("--completed and --pending cannot be used together")}
	}
	if completed || pending {
		filter.Completed = &completed
	}

	raw, _ := cmd.Flags().GetString("priority")
	p, err := utils.ParsePriorityFlag(raw, "")
	if err != nil {
		return filter, err
	}
	filter.Priority = p
	return filter, nil
}

// printTasks writes one block per task card, or the empty placeholder
func printTasks(w io.Writer, tasks []backend.Task, filter backend.Filter) {
	if len(tasks) == 0 && !filter.IsZero() {
		_, _ = fmt.Fprintln(w, noMatchMessage)
		return
	}
	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(w, view.EmptyPlaceholder)
		return
	}
	for _, t := range tasks {
		printCard(w, t.ID, view.Card(t))
	}
}

// printCard prints the parts of a card a terminal can show
func printCard(w io.Writer, id int64, card *view.Node) {
	status := "[ ]"
	var title, priority, due, desc string
	for _, c := range card.Children {
		switch {
		case c.Kind == view.KindHeading:
			title = c.Text
		case view.IsDoneBadge(c):
			status = "[x]"
		case c.Kind == view.KindBadge:
			priority = c.Text
		case c.ID == "due":
			due = c.Text
		case c.ID == "description":
			desc = c.Text
		}
	}

	_, _ = fmt.Fprintf(w, "%s %4d  %-6s  %s  (%s)\n", status, id, priority, title, due)
	if desc != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", 16), desc)
	}
}

// noMatchMessage replaces the placeholder when a filter hides every task
const noMatchMessage = "No tasks match the filter"

type listTasksResponse struct {
	Tasks  []backend.Task `json:"tasks"`
	Count  int            `json:"count"`
	Result string         `json:"result"`
}

type actionResponse struct {
	Action string        `json:"action"`
	ID     int64         `json:"id,omitempty"`
	Task   *backend.Task `json:"task,omitempty"`
	Result string        `json:"result"`
}

// outputTaskListJSON outputs tasks in JSON format
func outputTaskListJSON(tasks []backend.Task, stdout io.Writer) error {
	if tasks == nil {
		tasks = []backend.Task{}
	}
	jsonBytes, err := json.Marshal(listTasksResponse{
		Tasks:  tasks,
		Count:  len(tasks),
		Result: ResultInfoOnly,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

// outputActionJSON outputs action result in JSON format
func outputActionJSON(action string, id int64, task *backend.Task, stdout io.Writer) error {
	jsonBytes, err := json.Marshal(actionResponse{
		Action: action,
		ID:     id,
		Task:   task,
		Result: ResultActionCompleted,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

// report prints a confirmation line, or the JSON action result
func report(cmd *cobra.Command, w io.Writer, action string, id int64, task *backend.Task, format string, args ...interface{}) error {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return outputActionJSON(action, id, task, w)
	}
	_, _ = fmt.Fprintf(w, format+"\n", args...)
	return nil
}

// newAddCmd creates the 'add' subcommand
func newAddCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Long: "Create a task. Due dates accept YYYY-MM-DD or relative forms " +
			"such as today, tomorrow, +3d or +2w.",
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: withApp(stdout, cfg, mgr, doAdd),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("description", "d", "", "Task description")
	cmd.Flags().String("due", "", "Due date")
	cmd.Flags().StringP("priority", "p", "medium", "Priority (low, medium, high)")
	return cmd
}

func doAdd(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	form := taskstore.NewForm()
	form.Title = args[0]
	form.Description, _ = cmd.Flags().GetString("description")

	raw, _ := cmd.Flags().GetString("priority")
	p, err := utils.ParsePriorityFlag(raw, backend.PriorityMedium)
	if err != nil {
		return err
	}
	form.Priority = string(p)

	raw, _ = cmd.Flags().GetString("due")
	due, err := utils.ParseDateFlag(raw)
	if err != nil {
		return err
	}
	if due != nil {
		form.DueDate = due.String()
	}

	s := a.newStore().Dispatch(ctx, taskstore.SubmitCreate{Form: form})
	if err := a.stateErr(s); err != nil {
		return err
	}

	created := newestByTitle(s.Tasks, strings.TrimSpace(form.Title))
	var id int64
	if created != nil {
		id = created.ID
	}
	return report(cmd, a.stdout, "create", id, created, "Created task %q", strings.TrimSpace(form.Title))
}

// newestByTitle finds the task just created; the list is newest first
func newestByTitle(tasks []backend.Task, title string) *backend.Task {
	for i := range tasks {
		if tasks[i].Title == title {
			return &tasks[i]
		}
	}
	return nil
}

// parseID parses a task id argument
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid task id %q", backend.ErrValidation, raw)
	}
	return id, nil
}

// newUpdateCmd creates the 'update' subcommand
func newUpdateCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a task",
		Long: "Edit a task. Fields without a flag keep their current value; " +
			"the full task is sent to the service.",
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: withApp(stdout, cfg, mgr, doUpdate),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("description", "d", "", "New description")
	cmd.Flags().String("due", "", "New due date")
	cmd.Flags().StringP("priority", "p", "", "New priority (low, medium, high)")
	cmd.Flags().Bool("completed", false, "Mark completed (--completed=false reopens)")
	return cmd
}

func doUpdate(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	store, err := a.loadTasks(ctx)
	if err != nil {
		return err
	}

	s := store.Dispatch(ctx, taskstore.OpenEdit{ID: id})
	if err := a.stateErr(s); err != nil {
		return err
	}

	form, err := mergeForm(cmd, s.EditForm)
	if err != nil {
		return err
	}

	s = store.Dispatch(ctx, taskstore.SubmitEdit{Form: form})
	if err := a.stateErr(s); err != nil {
		return err
	}
	return report(cmd, a.stdout, "update", id, backend.FindTask(s.Tasks, id), "Updated task %d", id)
}

// mergeForm overlays the flags that were given onto the pre-filled form
func mergeForm(cmd *cobra.Command, form taskstore.Form) (taskstore.Form, error) {
	flags := cmd.Flags()
	if flags.Changed("title") {
		form.Title, _ = flags.GetString("title")
	}
	if flags.Changed("description") {
		form.Description, _ = flags.GetString("description")
	}
	if flags.Changed("due") {
		raw, _ := flags.GetString("due")
		due, err := utils.ParseDateFlag(raw)
		if err != nil {
			return form, err
		}
		if due == nil {
			return form, fmt.Errorf("%w: a due date cannot be cleared", backend.ErrValidation)
		}
		form.DueDate = due.String()
	}
	if flags.Changed("priority") {
		raw, _ := flags.GetString("priority")
		p, err := utils.ParsePriorityFlag(raw, "")
		if err != nil {
			return form, err
		}
		form.Priority = string(p)
	}
	if flags.Changed("completed") {
		form.Completed, _ = flags.GetBool("completed")
	}
	return form, nil
}

// newDoneCmd creates the 'done' subcommand
func newDoneCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Toggle whether a task is completed",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE:  withApp(stdout, cfg, mgr, doDone),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doDone(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	store, err := a.loadTasks(ctx)
	if err != nil {
		return err
	}

	s := store.Dispatch(ctx, taskstore.ToggleCompleted{ID: id})
	if err := a.stateErr(s); err != nil {
		return err
	}

	task := backend.FindTask(s.Tasks, id)
	if task != nil && !task.Completed {
		return report(cmd, a.stdout, "reopen", id, task, "Reopened task %d", id)
	}
	return report(cmd, a.stdout, "complete", id, task, "Completed task %d", id)
}

// newDeleteCmd creates the 'delete' subcommand
func newDeleteCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task",
		Long:  "Delete a task after confirmation. Answering no sends nothing to the service.",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE:  withApp(stdout, cfg, mgr, doDelete),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func doDelete(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	store, err := a.loadTasks(ctx)
	if err != nil {
		return err
	}

	s := store.Dispatch(ctx, taskstore.RequestDelete{ID: id})
	if err := a.stateErr(s); err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && a.cfg.IsConfirmDeleteEnabled() {
		title := s.PendingDeleteTask().Title
		if !utils.PromptYesNoWithReader(fmt.Sprintf("Delete %q?", title), a.stdin, a.stdout) {
			store.Dispatch(ctx, taskstore.CancelDelete{})
			_, _ = fmt.Fprintln(a.stdout, "Cancelled")
			return nil
		}
	}

	s = store.Dispatch(ctx, taskstore.ConfirmDelete{})
	if err := a.stateErr(s); err != nil {
		return err
	}
	return report(cmd, a.stdout, "delete", id, nil, "Deleted task %d", id)
}

// newSummaryCmd creates the 'summary' subcommand
func newSummaryCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the AI summary of today's completed tasks",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(stdout, cfg, mgr, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			s := a.newStore().Dispatch(ctx, taskstore.RequestSummary{})
			if err := a.stateErr(s); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.stdout, s.Summary)
			return nil
		}),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
