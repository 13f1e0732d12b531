package transport

import (
	"bytes"
	"strings"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/projecthub/domain"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ProjectCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ProjectUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type MemberRequest struct {
	UserID int64 `json:"user_id"`
}

type TaskCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	ProjectID   int64   `json:"project_id"`
	AssignedTo  *int64  `json:"assigned_to"`
	Deadline    *string `json:"deadline"`
}

type TaskUpdateRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	AssignedTo  Optional[int64] `json:"assigned_to"`
	Deadline    *string         `json:"deadline"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

type StoryRequest struct {
	ProjectDescription string `json:"projectDescription"`
	ProjectID          *int64 `json:"projectId"`
}

// Optional tells an absent field apart from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Decode reads a JSON object body into target.
func Decode(ctx *fasthttp.RequestCtx, target any) error {
	body := bytes.TrimSpace(ctx.PostBody())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return domain.ErrNoData
	}
	if err := json.Unmarshal(body, target); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidPayload.Message, err)
	}
	return nil
}

var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDeadline accepts ISO-8601 timestamps. Values without an offset are
// taken as UTC. A nil or blank value yields nil.
func ParseDeadline(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.Invalid("deadline must be an ISO-8601 date or timestamp")
}
