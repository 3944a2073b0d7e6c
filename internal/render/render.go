// Package render はTodo一覧を投票数順に描画します。
package render

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"star-todo/internal/models"
)

// Source はTodo一覧の取得と投票を行います。
type Source interface {
	ListTodos(ctx context.Context) ([]*models.Todo, error)
	ToggleVote(ctx context.Context, todoID int) error
}

// SortByStars は投票数の多い順に安定ソートした新しいスライスを返します。
// 同数の場合は元の順序を保ちます。
func SortByStars(todos []*models.Todo) []*models.Todo {
	sorted := slices.Clone(todos)
	slices.SortStableFunc(sorted, func(a, b *models.Todo) int {
		return len(b.Stars) - len(a.Stars)
	})
	return sorted
}

type styles struct {
	title   lipgloss.Style
	stars   lipgloss.Style
	muted   lipgloss.Style
	divider lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true),
		stars:   r.NewStyle().Foreground(lipgloss.Color("214")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("245")),
		divider: r.NewStyle().Foreground(lipgloss.Color("238")),
	}
}

// Board は一覧を描画し、表示位置とTodo IDの対応を保持します。
// 対応表は描画のたびに丸ごと置き換えられます。
type Board struct {
	src     Source
	out     io.Writer
	styles  styles
	targets []int
}

// NewBoard は out に描画する Board を作成します。
func NewBoard(src Source, out io.Writer) *Board {
	return &Board{
		src:    src,
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Refresh は一覧を取得して描画します。取得に失敗した場合は何も描画しません。
func (b *Board) Refresh(ctx context.Context) error {
	todos, err := b.src.ListTodos(ctx)
	if err != nil {
		return err
	}
	return b.Show(todos)
}

// Show は取得済みの一覧を投票数順に描画します。
func (b *Board) Show(todos []*models.Todo) error {
	sorted := SortByStars(todos)

	targets := make([]int, len(sorted))
	var sb strings.Builder
	if len(sorted) == 0 {
		sb.WriteString(b.styles.muted.Render("No todos yet") + "\n")
	}
	for i, t := range sorted {
		targets[i] = t.ID
		if i > 0 {
			sb.WriteString(b.styles.divider.Render(strings.Repeat("─", 32)) + "\n")
		}
		fmt.Fprintf(&sb, "%2d. %s %s\n", i+1,
			b.styles.stars.Render(fmt.Sprintf("★ %d", len(t.Stars))),
			b.styles.title.Render(t.Title),
		)
		if t.Description != "" {
			fmt.Fprintf(&sb, "    %s\n", t.Description)
		}
		fmt.Fprintf(&sb, "    %s\n", b.styles.muted.Render(fmt.Sprintf("#%d  %s", t.ID, t.Image)))
	}

	b.targets = targets
	_, err := io.WriteString(b.out, sb.String())
	return err
}

// Targets は直近の描画での表示位置ごとのTodo IDを返します。
func (b *Board) Targets() []int {
	return slices.Clone(b.targets)
}

// Vote は表示位置 (1始まり) のTodoに投票し、再描画します。
func (b *Board) Vote(ctx context.Context, position int) error {
	if position < 1 || position > len(b.targets) {
		return fmt.Errorf("no todo at position %d", position)
	}
	return b.VoteTodo(ctx, b.targets[position-1])
}

// VoteTodo はIDを指定して投票し、再描画します。
func (b *Board) VoteTodo(ctx context.Context, todoID int) error {
	if err := b.src.ToggleVote(ctx, todoID); err != nil {
		return err
	}
	return b.Refresh(ctx)
}
