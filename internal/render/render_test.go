package render_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-todo/internal/models"
	"star-todo/internal/render"
)

func todoWithStars(id, stars int) *models.Todo {
	t := &models.Todo{ID: id, Title: "todo", Image: "img", Stars: []*models.Star{}}
	for i := 0; i < stars; i++ {
		t.Stars = append(t.Stars, &models.Star{ID: i + 1, TodoID: id, UserID: i + 1})
	}
	return t
}

func ids(todos []*models.Todo) []int {
	out := make([]int, len(todos))
	for i, t := range todos {
		out[i] = t.ID
	}
	return out
}

func TestSortByStars(t *testing.T) {
	tests := []struct {
		name  string
		stars []int
		want  []int
	}{
		{"descending", []int{3, 1, 2}, []int{1, 3, 2}},
		{"ties keep server order", []int{1, 2, 1, 2, 0}, []int{2, 4, 1, 3, 5}},
		{"empty", nil, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todos := make([]*models.Todo, len(tt.stars))
			for i, n := range tt.stars {
				todos[i] = todoWithStars(i+1, n)
			}
			before := ids(todos)

			got := ids(render.SortByStars(todos))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, before, ids(todos), "input must not be reordered")
		})
	}
}

type fakeSource struct {
	todos   []*models.Todo
	err     error
	toggled []int
}

func (f *fakeSource) ListTodos(context.Context) ([]*models.Todo, error) {
	return f.todos, f.err
}

func (f *fakeSource) ToggleVote(_ context.Context, id int) error {
	f.toggled = append(f.toggled, id)
	for _, t := range f.todos {
		if t.ID == id {
			if len(t.Stars) > 0 {
				t.Stars = t.Stars[:0]
			} else {
				t.Stars = append(t.Stars, &models.Star{TodoID: id, UserID: 1})
			}
		}
	}
	return nil
}

func TestBoard_RefreshReplacesTargets(t *testing.T) {
	var out bytes.Buffer
	src := &fakeSource{todos: []*models.Todo{todoWithStars(10, 0), todoWithStars(20, 2), todoWithStars(30, 1)}}
	board := render.NewBoard(src, &out)

	require.NoError(t, board.Refresh(context.Background()))
	assert.Equal(t, []int{20, 30, 10}, board.Targets())

	src.todos = src.todos[:1]
	require.NoError(t, board.Refresh(context.Background()))
	assert.Equal(t, []int{10}, board.Targets(), "targets never accumulate across renders")
}

func TestBoard_VoteByPosition(t *testing.T) {
	var out bytes.Buffer
	src := &fakeSource{todos: []*models.Todo{todoWithStars(1, 0), todoWithStars(2, 1)}}
	board := render.NewBoard(src, &out)
	ctx := context.Background()
	require.NoError(t, board.Refresh(ctx))

	// 位置2は票の少ないTodo 1
	require.NoError(t, board.Vote(ctx, 2))
	assert.Equal(t, []int{1}, src.toggled)
	assert.Equal(t, []int{1, 2}, board.Targets(), "tie keeps server order after re-render")

	assert.Error(t, board.Vote(ctx, 3))
	assert.Error(t, board.Vote(ctx, 0))
}

func TestBoard_FailedFetchSkipsRender(t *testing.T) {
	var out bytes.Buffer
	src := &fakeSource{err: errors.New("offline")}
	board := render.NewBoard(src, &out)

	assert.Error(t, board.Refresh(context.Background()))
	assert.Zero(t, out.Len())
	assert.Empty(t, board.Targets())
}

func TestBoard_ShowOutput(t *testing.T) {
	var out bytes.Buffer
	board := render.NewBoard(&fakeSource{}, &out)

	require.NoError(t, board.Show(nil))
	assert.Contains(t, out.String(), "No todos yet")

	out.Reset()
	todo := todoWithStars(7, 2)
	todo.Title = "Buy milk"
	todo.Description = "2 liters"
	require.NoError(t, board.Show([]*models.Todo{todo}))

	text := out.String()
	assert.Contains(t, text, "Buy milk")
	assert.Contains(t, text, "★ 2")
	assert.Contains(t, text, "2 liters")
	assert.True(t, strings.HasPrefix(text, " 1."), text)
}
