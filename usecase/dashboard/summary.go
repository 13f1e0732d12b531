package dashboard

import (
	"sort"
	"time"

	"github.com/fastygo/projecthub/domain"
)

// listLimit caps recent_tasks and overdue_tasks.
const listLimit = 5

type Stats struct {
	TotalProjects int `json:"total_projects"`
	TotalTasks    int `json:"total_tasks"`
	Todo          int `json:"todo"`
	InProgress    int `json:"in_progress"`
	Done          int `json:"done"`
	Overdue       int `json:"overdue"`
}

type RecentTask struct {
	ID       int64             `json:"id"`
	Title    string            `json:"title"`
	Status   domain.TaskStatus `json:"status"`
	Project  *string           `json:"project"`
	Deadline *time.Time        `json:"deadline"`
}

type OverdueTask struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Project  *string    `json:"project"`
	Deadline *time.Time `json:"deadline"`
}

type Dashboard struct {
	Stats        Stats         `json:"stats"`
	RecentTasks  []RecentTask  `json:"recent_tasks"`
	OverdueTasks []OverdueTask `json:"overdue_tasks"`
}

// Summarize aggregates already-scoped tasks and projects. tasks must be
// ordered by id so that equal creation times keep insertion order.
func Summarize(tasks []domain.Task, projects []domain.Project, now time.Time) Dashboard {
	d := Dashboard{
		Stats: Stats{
			TotalProjects: len(projects),
			TotalTasks:    len(tasks),
		},
		RecentTasks:  []RecentTask{},
		OverdueTasks: []OverdueTask{},
	}

	for i := range tasks {
		switch tasks[i].Status {
		case domain.TaskTodo:
			d.Stats.Todo++
		case domain.TaskInProgress:
			d.Stats.InProgress++
		case domain.TaskDone:
			d.Stats.Done++
		}
		if tasks[i].IsOverdue(now) {
			d.Stats.Overdue++
		}
	}

	byRecency := make([]*domain.Task, len(tasks))
	for i := range tasks {
		byRecency[i] = &tasks[i]
	}
	sort.SliceStable(byRecency, func(i, j int) bool {
		return byRecency[i].CreatedAt.After(byRecency[j].CreatedAt)
	})

	for _, t := range byRecency {
		if len(d.RecentTasks) < listLimit {
			d.RecentTasks = append(d.RecentTasks, RecentTask{
				ID:       t.ID,
				Title:    t.Title,
				Status:   t.Status,
				Project:  t.ProjectName,
				Deadline: t.Deadline,
			})
		}
		if len(d.OverdueTasks) < listLimit && t.IsOverdue(now) {
			d.OverdueTasks = append(d.OverdueTasks, OverdueTask{
				ID:       t.ID,
				Title:    t.Title,
				Project:  t.ProjectName,
				Deadline: t.Deadline,
			})
		}
	}
	return d
}
