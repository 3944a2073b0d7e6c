package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"star-todo/internal/client"
	"star-todo/internal/models"
	"star-todo/internal/render"
)

// app はコマンド実行中の状態とクライアントを保持します。
type app struct {
	out       io.Writer
	statePath string
	server    string
	state     *cliState
	client    *client.Client
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "todo-cli",
		Short:         "Vote on shared todos from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.statePath, "state", defaultStatePath(), "path of the CLI state file")
	root.PersistentFlags().StringVar(&a.server, "server", "", "server URL (saved for later commands)")

	root.AddCommand(
		a.signUpCmd(),
		a.signInCmd(),
		a.signOutCmd(),
		a.whoAmICmd(),
		a.listCmd(),
		a.showCmd(),
		a.addCmd(),
		a.voteCmd(),
		a.deleteCmd(),
	)
	return root
}

func (a *app) open() error {
	st, err := loadState(a.statePath)
	if err != nil {
		return err
	}
	if a.server != "" && a.server != st.Server {
		// 別のサーバーのセッションは使えない
		st.Server = a.server
		st.SessionToken = ""
		st.Targets = nil
	}
	opts := []client.Option{}
	if st.CookieName != "" {
		opts = append(opts, client.WithCookieName(st.CookieName))
	}
	c, err := client.New(st.Server, opts...)
	if err != nil {
		return err
	}
	c.SetSessionToken(st.SessionToken)
	a.state = st
	a.client = c
	return nil
}

// save はセッショントークンと表示順を状態ファイルに書き込みます。
func (a *app) save(board *render.Board) error {
	a.state.SessionToken = a.client.SessionToken()
	if board != nil {
		a.state.Targets = board.Targets()
	}
	return saveState(a.statePath, a.state)
}

func (a *app) board() *render.Board {
	return render.NewBoard(a.client, a.out)
}

func (a *app) signUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign-up NAME EMAIL PASSWORD",
		Short: "Create an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.SignUp(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "signed up, now run: todo-cli sign-in", args[1], "PASSWORD")
			return a.save(nil)
		},
	}
}

func (a *app) signInCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign-in EMAIL PASSWORD",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.SignIn(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "signed in as %s <%s>\n", user.Name, user.Email)
			return a.save(nil)
		},
	}
}

func (a *app) signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign-out",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "signed out")
			return a.save(nil)
		},
	}
}

func (a *app) whoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(a.out, "not signed in")
				return nil
			}
			fmt.Fprintf(a.out, "%s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List todos, most starred first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			board := a.board()
			if err := board.Refresh(cmd.Context()); err != nil {
				return err
			}
			return a.save(board)
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a single todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			todo, err := a.client.GetTodo(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.board().Show([]*models.Todo{todo})
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var description, image string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todos, err := a.client.CreateTodo(cmd.Context(), args[0], description, image)
			if err != nil {
				return err
			}
			board := a.board()
			if err := board.Show(todos); err != nil {
				return err
			}
			return a.save(board)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "todo description")
	cmd.Flags().StringVarP(&image, "image", "i", "", "path of an image to attach (max 1MB)")
	return cmd
}

func (a *app) voteCmd() *cobra.Command {
	var byID bool
	cmd := &cobra.Command{
		Use:   "vote POSITION",
		Short: "Star or unstar the todo at a position of the last list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid number %q", args[0])
			}
			id := n
			if !byID {
				if n < 1 || n > len(a.state.Targets) {
					return fmt.Errorf("no todo at position %d, run list first", n)
				}
				id = a.state.Targets[n-1]
			}
			board := a.board()
			if err := board.VoteTodo(cmd.Context(), id); err != nil {
				return err
			}
			return a.save(board)
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "treat the argument as a todo id")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of your todos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			todos, err := a.client.DeleteTodo(cmd.Context(), id)
			if err != nil {
				return err
			}
			board := a.board()
			if err := board.Show(todos); err != nil {
				return err
			}
			return a.save(board)
		},
	}
}
