// Package commands is the console command registry: "cmd <name> [flags]
// [args]" lines are split, parsed with a per-command pflag.FlagSet and run.
package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

const prefix = "cmd "

// Command is a subcommand with its own flags and a Run function.
// Run is called after the FlagSet parsed successfully and gets the
// remaining positional arguments.
type Command struct {
	Name    string
	Usage   string
	FlagSet *pflag.FlagSet
	Run     func(args []string) error
}

// Registry holds subcommands by name.
type Registry struct {
	cmds map[string]*Command
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]*Command)}
}

// NewFlagSet returns a FlagSet configured for console use: errors are
// returned instead of printed and usage output is discarded.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	return fs
}

// Register adds a subcommand. A nil fs gets an empty FlagSet.
func (r *Registry) Register(name, usage string, fs *pflag.FlagSet, run func(args []string) error) {
	if fs == nil {
		fs = NewFlagSet(name)
	}
	r.cmds[name] = &Command{Name: name, Usage: usage, FlagSet: fs, Run: run}
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for n := range r.cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Help returns one usage line per command plus its flags.
func (r *Registry) Help() []string {
	var out []string
	for _, n := range r.Names() {
		c := r.cmds[n]
		out = append(out, "cmd "+n+"  "+c.Usage)
		if u := strings.TrimRight(c.FlagSet.FlagUsages(), "\n"); u != "" {
			out = append(out, strings.Split(u, "\n")...)
		}
	}
	return out
}

// Parse interprets line as a console line. If it starts with "cmd " the rest
// is split into arguments (double quotes group words) and ok is true.
func Parse(line string) (args []string, ok bool) {
	if !strings.HasPrefix(line, prefix) {
		return nil, false
	}
	return Split(strings.TrimSpace(line[len(prefix):])), true
}

// Split breaks s on whitespace, keeping double-quoted runs together.
func Split(s string) []string {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t'):
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, cur.String())
	}
	return args
}

// Execute runs the subcommand in args[0] with args[1:] as flags and
// positional arguments. "--help" returns the command's usage as an error.
func (r *Registry) Execute(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand")
	}
	name := args[0]
	cmd, ok := r.cmds[name]
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	cmd.FlagSet.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	if err := cmd.FlagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return fmt.Errorf("usage: cmd %s %s", name, cmd.Usage)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return cmd.Run(cmd.FlagSet.Args())
}
