package view

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/backend"
	"taskboard/internal/taskstore"
	"taskboard/internal/testutil"
)

func mustDate(t *testing.T, s string) *backend.Date {
	t.Helper()
	d, err := backend.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func mixedTasks(t *testing.T) []backend.Task {
	return []backend.Task{
		{ID: 2, Title: "Write report", Description: "Q3 numbers", DueDate: mustDate(t, "2026-11-01"), Priority: backend.PriorityHigh},
		{ID: 1, Title: "Buy milk", Priority: backend.PriorityLow, Completed: true},
	}
}

func generate(n int) []backend.Task {
	tasks := make([]backend.Task, n)
	for i := range tasks {
		tasks[i] = backend.Task{
			ID:        int64(i + 1),
			Title:     fmt.Sprintf("task %d", i+1),
			Priority:  backend.Priorities[i%len(backend.Priorities)],
			Completed: i%2 == 1,
		}
	}
	return tasks
}

func TestDashboardCardCount(t *testing.T) {
	for n := 0; n <= 6; n++ {
		tree := Dashboard(generate(n))
		cards := tree.Find(KindCard)
		placeholders := tree.Find(KindPlaceholder)
		if n == 0 {
			assert.Empty(t, cards)
			require.Len(t, placeholders, 1)
			assert.Equal(t, EmptyPlaceholder, placeholders[0].Text)
			continue
		}
		assert.Len(t, cards, n, "n=%d", n)
		assert.Empty(t, placeholders, "n=%d", n)
	}
}

func TestCompletedCardsHaveNoMarkDone(t *testing.T) {
	for _, task := range generate(6) {
		card := Card(task)
		var markDone, doneBadge int
		card.walk(func(n *Node) {
			if IsMarkDone(n) {
				markDone++
			}
			if IsDoneBadge(n) {
				doneBadge++
			}
		})

		if task.Completed {
			assert.Zero(t, markDone, "task %d", task.ID)
			assert.Equal(t, 1, doneBadge, "task %d", task.ID)
			assert.True(t, card.Has(AttrDimmed))
			assert.True(t, card.Child(KindHeading).Has(AttrStrike))
			assert.True(t, card.FindByID("description").Has(AttrStrike))
		} else {
			assert.Equal(t, 1, markDone, "task %d", task.ID)
			assert.Zero(t, doneBadge, "task %d", task.ID)
			assert.False(t, card.Has(AttrDimmed))
			assert.False(t, card.Child(KindHeading).Has(AttrStrike))
		}
		assert.NotNil(t, card.FindByID(fmt.Sprintf("edit-%d", task.ID)))
		assert.NotNil(t, card.FindByID(fmt.Sprintf("delete-%d", task.ID)))
	}
}

func TestPriorityBadge(t *testing.T) {
	for _, p := range backend.Priorities {
		badge := Card(backend.Task{ID: 1, Title: "x", Priority: p}).Child(KindBadge)
		require.NotNil(t, badge)
		assert.Equal(t, string(p), badge.Text)
		assert.Equal(t, p == backend.PriorityHigh, badge.Has(AttrBadgeHigh))
		assert.Equal(t, p != backend.PriorityHigh, badge.Has(AttrBadgeNormal))
	}
}

func TestDueDateText(t *testing.T) {
	card := Card(backend.Task{ID: 1, Title: "x", DueDate: mustDate(t, "2026-02-28")})
	assert.Equal(t, "Due: 2026-02-28", card.FindByID("due").Text)

	card = Card(backend.Task{ID: 1, Title: "x"})
	assert.Equal(t, "Due: No date", card.FindByID("due").Text)
}

func TestDashboardIsPure(t *testing.T) {
	tasks := mixedTasks(t)
	assert.Equal(t, Dashboard(tasks).String(), Dashboard(tasks).String())
	assert.Equal(t, Dashboard(tasks), Dashboard(tasks))
}

func TestMarkupStaysText(t *testing.T) {
	card := Card(backend.Task{ID: 7, Title: `<img src=x onerror="alert(1)">`, Description: "**bold**"})
	assert.Equal(t, `<img src=x onerror="alert(1)">`, card.Child(KindHeading).Text)
	assert.Len(t, card.Children, 7)
	assert.Equal(t, "**bold**", card.FindByID("description").Text)
}

func TestDashboardGolden(t *testing.T) {
	testutil.RenderGolden(t, "dashboard_empty", Dashboard(nil))
	testutil.RenderGolden(t, "dashboard_mixed", Dashboard(mixedTasks(t)))
}

func TestScreenGolden(t *testing.T) {
	t.Run("confirm delete", func(t *testing.T) {
		s := taskstore.New(taskstore.Options{Authenticated: true, User: "alice"})
		s.Tasks = mixedTasks(t)[:1]
		s.PendingDeleteID = 2
		s.Overlay = taskstore.OverlayConfirmDelete

		testutil.RenderGolden(t, "screen_confirm_delete", Screen(s, Options{Selected: 0}))
	})

	t.Run("edit busy", func(t *testing.T) {
		s := taskstore.New(taskstore.Options{Authenticated: true, User: "alice", Theme: taskstore.ThemeLight})
		s.Screen = taskstore.ScreenEdit
		s.EditingID = 1
		s.EditForm = taskstore.Form{
			Title:       "Buy milk",
			Description: "2 litres",
			DueDate:     "2026-11-01",
			Priority:    "HIGH",
			Completed:   true,
		}
		s.Busy = taskstore.BusyUpdating
		s.Status = taskstore.MsgLoadFailed
		s.StatusIsError = true

		testutil.RenderGolden(t, "screen_edit_busy", Screen(s, Options{Focus: FieldTitle}))
	})

	t.Run("login error", func(t *testing.T) {
		s := taskstore.New(taskstore.Options{})
		s.LoginError = taskstore.MsgLoginRejected

		testutil.RenderGolden(t, "screen_login_error", Screen(s, Options{Username: "alice", Focus: FieldPassword}))
	})
}

func TestScreenSelection(t *testing.T) {
	s := taskstore.New(taskstore.Options{Authenticated: true})
	s.Tasks = generate(3)

	tree := Screen(s, Options{Selected: 2})
	cards := tree.Find(KindCard)
	require.Len(t, cards, 3)
	assert.False(t, cards[0].Has(AttrSelected))
	assert.True(t, cards[2].Has(AttrSelected))

	tree = Screen(s, Options{Selected: 9})
	for _, c := range tree.Find(KindCard) {
		assert.False(t, c.Has(AttrSelected))
	}
}

func TestScreenOverlays(t *testing.T) {
	s := taskstore.New(taskstore.Options{Authenticated: true, User: "bob"})

	s.Overlay = taskstore.OverlaySummary
	s.Summary = taskstore.MsgSummaryLoading
	s.SummaryLoading = true
	summary := Screen(s, Options{}).FindByID("summary")
	require.NotNil(t, summary)
	assert.Equal(t, taskstore.MsgSummaryLoading, summary.Text)
	assert.True(t, summary.Has(AttrBusy))

	s.Overlay = taskstore.OverlayAlert
	s.Alert = taskstore.MsgTitleRequired
	alert := Screen(s, Options{}).FindByID("alert")
	require.NotNil(t, alert)
	assert.Equal(t, taskstore.MsgTitleRequired, alert.Children[0].Text)

	s.Overlay = taskstore.OverlayHelp
	help := Screen(s, Options{Help: []string{"n  new task", "q  quit"}}).FindByID("help")
	require.NotNil(t, help)
	assert.Len(t, help.Children, 2)

	s.Overlay = taskstore.OverlayNone
	assert.Empty(t, Screen(s, Options{}).Find(KindOverlay))
}

func TestHeaderGreeting(t *testing.T) {
	s := taskstore.New(taskstore.Options{Authenticated: true, User: "carol"})
	greeting := Screen(s, Options{}).Find(KindGreeting)
	require.Len(t, greeting, 1)
	assert.Equal(t, "Hello, carol", greeting[0].Text)

	s = taskstore.New(taskstore.Options{})
	assert.Empty(t, Screen(s, Options{}).Find(KindGreeting))
}
