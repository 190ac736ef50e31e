package view

import (
	"strconv"
	"strings"

	"taskboard/backend"
)

// EmptyPlaceholder is shown instead of cards when there are no tasks
const EmptyPlaceholder = "No tasks found. Create one!"

// Dashboard renders one card per task, or a single placeholder
func Dashboard(tasks []backend.Task) *Node {
	list := newNode(KindList, "").withID("tasks")
	if len(tasks) == 0 {
		return list.add(newNode(KindPlaceholder, EmptyPlaceholder))
	}
	for _, t := range tasks {
		list.add(Card(t))
	}
	return list
}

// Card renders a single task
func Card(t backend.Task) *Node {
	id := strconv.FormatInt(t.ID, 10)
	card := newNode(KindCard, "").withID("task-" + id)
	card.set(AttrDimmed, t.Completed)

	title := newNode(KindHeading, t.Title)
	title.set(AttrStrike, t.Completed)

	priority := t.Priority
	if priority == "" {
		priority = backend.PriorityMedium
	}
	badge := newNode(KindBadge, string(priority), AttrBadgeNormal)
	if priority == backend.PriorityHigh {
		badge.Attrs = []string{AttrBadgeHigh}
	}

	desc := newNode(KindText, t.Description).withID("description")
	desc.set(AttrStrike, t.Completed)

	due := "Due: No date"
	if t.DueDate != nil {
		due = "Due: " + t.DueDate.String()
	}

	card.add(title, badge, desc, newNode(KindText, due, AttrMuted).withID("due"))

	if t.Completed {
		card.add(newNode(KindBadge, "Done", AttrBadgeDone))
	} else {
		card.add(newNode(KindAction, "Mark done").withID(ActionMarkDone + "-" + id))
	}
	card.add(
		newNode(KindAction, "Edit").withID(ActionEdit+"-"+id),
		newNode(KindAction, "Delete").withID(ActionDelete+"-"+id),
	)
	return card
}

// IsDoneBadge reports whether n is the completed indicator
func IsDoneBadge(n *Node) bool {
	return n.Kind == KindBadge && n.Has(AttrBadgeDone)
}

// IsMarkDone reports whether n is a mark-done action
func IsMarkDone(n *Node) bool {
	return n.Kind == KindAction && strings.HasPrefix(n.ID, ActionMarkDone+"-")
}
