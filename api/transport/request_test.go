package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/projecthub/domain"
)

func TestParseDeadline(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-05-01T09:30", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		{"2024-05-01T09:30:15", time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)},
		{"2024-05-01T09:30:15.250", time.Date(2024, 5, 1, 9, 30, 15, 250_000_000, time.UTC)},
		{"2024-05-01T09:30:15Z", time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)},
		{"2024-05-01T11:30:15+02:00", time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)},
	}
	for _, tc := range cases {
		raw := tc.raw
		got, err := ParseDeadline(&raw)
		require.NoError(t, err, tc.raw)
		require.NotNil(t, got)
		assert.True(t, tc.want.Equal(*got), "%s: got %s", tc.raw, got)
		assert.Equal(t, time.UTC, got.Location())
	}

	got, err := ParseDeadline(nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	blank := "  "
	got, err = ParseDeadline(&blank)
	assert.NoError(t, err)
	assert.Nil(t, got)

	bad := "next friday"
	_, err = ParseDeadline(&bad)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func decodeBody(t *testing.T, body string, target any) error {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetBodyString(body)
	return Decode(ctx, target)
}

func TestDecode_OptionalAssignee(t *testing.T) {
	var absent TaskUpdateRequest
	require.NoError(t, decodeBody(t, `{"title":"x"}`, &absent))
	assert.False(t, absent.AssignedTo.Set)

	var cleared TaskUpdateRequest
	require.NoError(t, decodeBody(t, `{"assigned_to":null}`, &cleared))
	assert.True(t, cleared.AssignedTo.Set)
	assert.Nil(t, cleared.AssignedTo.Value)

	var set TaskUpdateRequest
	require.NoError(t, decodeBody(t, `{"assigned_to":7}`, &set))
	assert.True(t, set.AssignedTo.Set)
	require.NotNil(t, set.AssignedTo.Value)
	assert.Equal(t, int64(7), *set.AssignedTo.Value)
}

func TestDecode_Errors(t *testing.T) {
	var req RegisterRequest
	assert.ErrorIs(t, decodeBody(t, "", &req), domain.ErrNoData)
	assert.ErrorIs(t, decodeBody(t, "null", &req), domain.ErrNoData)
	assert.ErrorIs(t, decodeBody(t, `{"username":`, &req), domain.ErrInvalidPayload)
}
