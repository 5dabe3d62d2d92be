// Package console drives a dashboard session from line commands.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/woozymasta/zenit-dash/internal/dashboard"
)

// ErrEmpty is returned by Parse for blank lines.
var ErrEmpty = errors.New("empty command")

// Action is what a command asks the console to do besides dispatching events.
type Action int

// Console actions.
const (
	ActionShow Action = iota
	ActionTable
	ActionRefresh
	ActionNode
	ActionDelete
	ActionPing
	ActionPingPage
	ActionFormat
	ActionHelp
	ActionQuit
)

// Command is a parsed console line.
type Command struct {
	Event  dashboard.Event
	Target Target
	Format string
	Action Action
}

// Target names a node either by its row number in the table or by its key.
type Target struct {
	Key *dashboard.NodeKey
	Row int
}

// Help lists the commands understood by Parse.
const Help = `Commands:
  show                         print the whole dashboard
  table                        print the current table page
  app <name|all>               select application
  window <24h|7d|30d|all>      select time window
  filter <dimension> <value>   toggle a chart selection (country, os, version, map)
  region <country name>        toggle a world map selection
  search [query]               search the table, empty to clear
  sort <column> [asc|desc]     sort the table, repeating a column flips it
  next | prev | page <n>       move through the table
  node <row | app ip port>     show stored details of a node
  delete <row | app ip port>   delete a node from the collector
  ping [row | app ip port]     query servers live, the whole page without arguments
  format <text|json|yaml>      change output format
  refresh                      reload data from the source
  help                         show this help
  quit                         leave the console`

// Parse turns a console line into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.Join(args, " ")

	switch name {
	case "show", "ls":
		return Command{Action: ActionShow}, nil
	case "table":
		return Command{Action: ActionTable}, nil
	case "help", "?":
		return Command{Action: ActionHelp}, nil
	case "quit", "exit", "q":
		return Command{Action: ActionQuit}, nil
	case "refresh", "reload":
		return Command{Action: ActionRefresh}, nil

	case "app":
		if rest == "" {
			return Command{}, errors.New("usage: app <name|all>")
		}
		return event(dashboard.SelectApplication{Application: rest}), nil

	case "window":
		w, err := dashboard.ParseTimeWindow(rest)
		if err != nil {
			return Command{}, err
		}
		return event(dashboard.SelectWindow{Window: w}), nil

	case "filter":
		if len(args) < 2 {
			return Command{}, errors.New("usage: filter <dimension> <value>")
		}
		dim, err := dashboard.ParseDimension(strings.ToLower(args[0]))
		if err != nil {
			return Command{}, err
		}
		return event(dashboard.ToggleDimension{Dimension: dim, Value: strings.Join(args[1:], " ")}), nil

	case "region":
		if rest == "" {
			return Command{}, errors.New("usage: region <country name>")
		}
		return event(dashboard.ClickRegion{Name: rest}), nil

	case "search":
		return event(dashboard.SetSearch{Query: rest}), nil

	case "sort":
		return parseSort(args)

	case "next":
		return event(dashboard.NextPage{}), nil
	case "prev":
		return event(dashboard.PrevPage{}), nil
	case "page":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return Command{}, fmt.Errorf("invalid page %q", rest)
		}
		return event(dashboard.GoToPage{Page: n}), nil

	case "node", "delete":
		target, err := parseTarget(args)
		if err != nil {
			return Command{}, fmt.Errorf("usage: %s <row | app ip port>: %w", name, err)
		}
		action := ActionNode
		if name == "delete" {
			action = ActionDelete
		}
		return Command{Action: action, Target: target}, nil

	case "ping":
		if len(args) == 0 {
			return Command{Action: ActionPingPage}, nil
		}
		target, err := parseTarget(args)
		if err != nil {
			return Command{}, fmt.Errorf("usage: ping [row | app ip port]: %w", err)
		}
		return Command{Action: ActionPing, Target: target}, nil

	case "format":
		return Command{Action: ActionFormat, Format: rest}, nil
	}

	return Command{}, fmt.Errorf("unknown command %q, try help", name)
}

func event(ev dashboard.Event) Command {
	return Command{Action: ActionTable, Event: ev}
}

func parseSort(args []string) (Command, error) {
	if len(args) != 1 && len(args) != 2 {
		return Command{}, errors.New("usage: sort <column> [asc|desc]")
	}

	key, err := dashboard.ParseField(strings.ToLower(args[0]))
	if err != nil {
		return Command{}, err
	}
	if len(args) == 1 {
		return event(dashboard.ClickSort{Key: key}), nil
	}

	dir, err := dashboard.ParseSortDirection(args[1])
	if err != nil {
		return Command{}, err
	}
	return event(dashboard.SetSort{Key: key, Direction: dir}), nil
}

func parseTarget(args []string) (Target, error) {
	switch len(args) {
	case 1:
		row, err := strconv.Atoi(args[0])
		if err != nil || row < 1 {
			return Target{}, fmt.Errorf("invalid row %q", args[0])
		}
		return Target{Row: row}, nil
	case 3:
		port, err := strconv.Atoi(args[2])
		if err != nil {
			return Target{}, fmt.Errorf("invalid port %q", args[2])
		}
		return Target{Key: &dashboard.NodeKey{Application: args[0], IP: args[1], Port: port}}, nil
	default:
		return Target{}, errors.New("expected a row number or app, ip and port")
	}
}

// Resolve finds the node a target names on the visible table page.
func (t Target) Resolve(page dashboard.Page) (dashboard.NodeKey, error) {
	if t.Key != nil {
		return *t.Key, nil
	}

	for _, row := range page.Rows {
		if row.Number == t.Row {
			return row.Record.Key(), nil
		}
	}

	return dashboard.NodeKey{}, fmt.Errorf("row %d is not on the current page", t.Row)
}
