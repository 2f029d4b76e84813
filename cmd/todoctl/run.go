package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	todosdomain "todo-app-go/internal/domain/todos"
	"todo-app-go/pkg/logger"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usageText = `usage: todoctl [-v] <command> [flags] [args]

commands:
  ls                             list todo lists
  create NAME [-i LABEL]...      create a list, optionally with items
  show LIST_ID [--json]          print a list and its items
  rm LIST_ID                     delete a list
  add LIST_ID LABEL              append an item
  check LIST_ID ITEM_ID          mark an item as done
  uncheck LIST_ID ITEM_ID        mark an item as not done
  rm-item LIST_ID ITEM_ID        remove an item
`

var (
	errUsage    = errors.New("usage")
	errNotFound = errors.New("not found")
)

type connectFunc func(ctx context.Context, log logger.Logger) (*todosdomain.Service, func(), error)

type command struct {
	flags *pflag.FlagSet
	nargs int
	exec  func(c *cli, ctx context.Context, args []string) error
}

type cli struct {
	out  io.Writer
	todo *todosdomain.Service

	items    []string
	jsonMode bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, connect connectFunc) int {
	global := pflag.NewFlagSet("todoctl", pflag.ContinueOnError)
	global.SetOutput(io.Discard)
	global.SetInterspersed(false)
	verbose := global.BoolP("verbose", "v", false, "log store activity to stderr")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(stdout, usageText)
			return exitOK
		}
		return usageError(stderr, err.Error())
	}

	rest := global.Args()
	if len(rest) == 0 {
		return usageError(stderr, "missing command")
	}

	c := &cli{out: stdout}
	commands := c.commands()
	cmd, ok := commands[rest[0]]
	if !ok {
		return usageError(stderr, fmt.Sprintf("unknown command %q", rest[0]))
	}

	if err := cmd.flags.Parse(rest[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(stdout, usageText)
			return exitOK
		}
		return usageError(stderr, err.Error())
	}
	cmdArgs := cmd.flags.Args()
	if len(cmdArgs) != cmd.nargs {
		return usageError(stderr, fmt.Sprintf("%s expects %d argument(s), got %d", rest[0], cmd.nargs, len(cmdArgs)))
	}

	svc, closeFn, err := connect(ctx, newLogger(*verbose))
	if err != nil {
		fmt.Fprintf(stderr, "todoctl: %v\n", err)
		return exitError
	}
	defer closeFn()
	c.todo = svc

	if err := cmd.exec(c, ctx, cmdArgs); err != nil {
		switch {
		case errors.Is(err, errNotFound), errors.Is(err, todosdomain.ErrTodoListNotFound):
			fmt.Fprintln(stderr, "todoctl: not found")
		case errors.Is(err, todosdomain.ErrInvalidID):
			fmt.Fprintf(stderr, "todoctl: invalid list id %q\n", cmdArgs[0])
		default:
			fmt.Fprintf(stderr, "todoctl: %v\n", err)
		}
		return exitError
	}
	return exitOK
}

func usageError(stderr io.Writer, msg string) int {
	fmt.Fprintf(stderr, "todoctl: %s\n\n%s", msg, usageText)
	return exitUsage
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (c *cli) commands() map[string]command {
	create := newFlagSet("create")
	create.StringArrayVarP(&c.items, "item", "i", nil, "item label, repeatable")

	show := newFlagSet("show")
	show.BoolVar(&c.jsonMode, "json", false, "print the list as JSON")

	return map[string]command{
		"ls":      {flags: newFlagSet("ls"), nargs: 0, exec: (*cli).list},
		"create":  {flags: create, nargs: 1, exec: (*cli).create},
		"show":    {flags: show, nargs: 1, exec: (*cli).show},
		"rm":      {flags: newFlagSet("rm"), nargs: 1, exec: (*cli).remove},
		"add":     {flags: newFlagSet("add"), nargs: 2, exec: (*cli).addItem},
		"check":   {flags: newFlagSet("check"), nargs: 2, exec: checkCommand(true)},
		"uncheck": {flags: newFlagSet("uncheck"), nargs: 2, exec: checkCommand(false)},
		"rm-item": {flags: newFlagSet("rm-item"), nargs: 2, exec: (*cli).removeItem},
	}
}

func (c *cli) list(ctx context.Context, _ []string) error {
	summaries, err := c.todo.ListTodoLists(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tITEMS")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", s.ID, s.Name, s.ItemCount)
	}
	return tw.Flush()
}

func (c *cli) create(ctx context.Context, args []string) error {
	if len(c.items) == 0 {
		id, err := c.todo.CreateTodoList(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, id)
		return nil
	}

	list, err := c.todo.CreateTodoListWithItems(ctx, args[0], c.items)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, list.ID)
	return nil
}

func (c *cli) show(ctx context.Context, args []string) error {
	list, err := c.todo.GetTodoList(ctx, args[0])
	if err != nil {
		return err
	}
	return c.printList(list)
}

func (c *cli) remove(ctx context.Context, args []string) error {
	deleted, err := c.todo.DeleteTodoList(ctx, args[0])
	if err != nil {
		return err
	}
	if !deleted {
		return errNotFound
	}
	return nil
}

// addItem prints the id of the appended item.
func (c *cli) addItem(ctx context.Context, args []string) error {
	list, err := c.todo.CreateTodoItem(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if list == nil || len(list.Items) == 0 {
		return errNotFound
	}
	fmt.Fprintln(c.out, list.Items[len(list.Items)-1].ID)
	return nil
}

func checkCommand(checked bool) func(*cli, context.Context, []string) error {
	return func(c *cli, ctx context.Context, args []string) error {
		list, err := c.todo.SetTodoItemChecked(ctx, args[0], args[1], checked)
		if err != nil {
			return err
		}
		if list == nil {
			return errNotFound
		}
		return c.printList(list)
	}
}

func (c *cli) removeItem(ctx context.Context, args []string) error {
	list, err := c.todo.DeleteTodoItem(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if list == nil {
		return errNotFound
	}
	return c.printList(list)
}

type jsonItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

type jsonList struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []jsonItem `json:"items"`
}

func toJSONList(list *todosdomain.TodoList) jsonList {
	items := make([]jsonItem, 0, len(list.Items))
	for _, item := range list.Items {
		items = append(items, jsonItem{ID: item.ID, Label: item.Label, Checked: item.Checked})
	}
	return jsonList{ID: list.ID, Name: list.Name, Items: items}
}

func (c *cli) printList(list *todosdomain.TodoList) error {
	if c.jsonMode {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(toJSONList(list))
	}

	fmt.Fprintf(c.out, "%s (%s)\n", list.Name, list.ID)
	if len(list.Items) == 0 {
		fmt.Fprintln(c.out, "  no items")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, item := range list.Items {
		mark := " "
		if item.Checked {
			mark = "x"
		}
		fmt.Fprintf(tw, "  [%s]\t%s\t%s\n", mark, item.Label, item.ID)
	}
	return tw.Flush()
}
