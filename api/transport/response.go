package transport

import (
	"time"

	json "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/usecase/project"
	"github.com/fastygo/projecthub/usecase/task"
)

// ErrorBody is the payload of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type UserView struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type MemberView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type ProjectListItem struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	TaskCount   int          `json:"task_count"`
	TeamMembers []MemberView `json:"team_members"`
}

type ProjectCreated struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ProjectTaskView struct {
	ID         int64             `json:"id"`
	Title      string            `json:"title"`
	Status     domain.TaskStatus `json:"status"`
	Deadline   *time.Time        `json:"deadline"`
	AssignedTo *int64            `json:"assigned_to"`
}

type ProjectDetail struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Tasks       []ProjectTaskView `json:"tasks"`
	TeamMembers []UserView        `json:"team_members"`
}

type TaskListItem struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Status       domain.TaskStatus `json:"status"`
	ProjectID    int64             `json:"project_id"`
	ProjectName  *string           `json:"project_name"`
	AssignedTo   *int64            `json:"assigned_to"`
	AssigneeName *string           `json:"assignee_name"`
	Deadline     *time.Time        `json:"deadline"`
	Overdue      bool              `json:"overdue"`
}

type TaskCreated struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type CommentView struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskDetail struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.TaskStatus `json:"status"`
	Deadline    *time.Time        `json:"deadline"`
	AssignedTo  *int64            `json:"assigned_to"`
	Comments    []CommentView     `json:"comments"`
}

type CommentCreated struct {
	ID int64 `json:"id"`
}

func NewUserView(u domain.User) UserView {
	return UserView{ID: u.ID, Username: u.Username, Role: u.Role}
}

func NewUserViews(users []domain.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserView(u))
	}
	return out
}

func NewProjectList(projects []domain.Project) []ProjectListItem {
	out := make([]ProjectListItem, 0, len(projects))
	for _, p := range projects {
		members := make([]MemberView, 0, len(p.Members))
		for _, m := range p.Members {
			members = append(members, MemberView{ID: m.ID, Username: m.Username})
		}
		out = append(out, ProjectListItem{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Status:      p.Status,
			TaskCount:   p.TaskCount,
			TeamMembers: members,
		})
	}
	return out
}

func NewProjectDetail(d *project.Detail) ProjectDetail {
	tasks := make([]ProjectTaskView, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		tasks = append(tasks, ProjectTaskView{
			ID:         t.ID,
			Title:      t.Title,
			Status:     t.Status,
			Deadline:   t.Deadline,
			AssignedTo: t.AssignedTo,
		})
	}
	return ProjectDetail{
		ID:          d.Project.ID,
		Name:        d.Project.Name,
		Description: d.Project.Description,
		Status:      d.Project.Status,
		Tasks:       tasks,
		TeamMembers: NewUserViews(d.Members),
	}
}

func NewTaskList(items []task.Item) []TaskListItem {
	out := make([]TaskListItem, 0, len(items))
	for _, it := range items {
		out = append(out, TaskListItem{
			ID:           it.ID,
			Title:        it.Title,
			Status:       it.Status,
			ProjectID:    it.ProjectID,
			ProjectName:  it.ProjectName,
			AssignedTo:   it.AssignedTo,
			AssigneeName: it.AssigneeName,
			Deadline:     it.Deadline,
			Overdue:      it.Overdue,
		})
	}
	return out
}

func NewTaskDetail(d *task.Detail) TaskDetail {
	comments := make([]CommentView, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, CommentView{
			ID:        c.ID,
			Content:   c.Content,
			User:      c.Username,
			CreatedAt: c.CreatedAt,
		})
	}
	return TaskDetail{
		ID:          d.Task.ID,
		Title:       d.Task.Title,
		Description: d.Task.Description,
		Status:      d.Task.Status,
		Deadline:    d.Task.Deadline,
		AssignedTo:  d.Task.AssignedTo,
		Comments:    comments,
	}
}

// WriteJSON encodes payload as the response body. A nil payload leaves the
// body empty.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	ctx.SetStatusCode(status)
	if payload == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		body = []byte(`{"error":"Internal server error","code":"INTERNAL"}`)
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func WriteError(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	WriteJSON(ctx, status, ErrorBody{Error: message, Code: string(code)})
}
