// Package console is an interactive shell over the session manager. It owns
// one last-config store for its lifetime, so "last" replays whatever was
// started earlier in the same shell.
package console

import (
	"context"
	"sort"
)

// Command is one console verb.
type Command interface {
	Name() string
	Usage() string
	Description() string
	Execute(ctx context.Context, args []string) (string, error)
}

// Registry holds registered commands and provides lookup.
type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

func (r *Registry) Register(c Command) {
	r.commands[c.Name()] = c
}

func (r *Registry) Get(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// All returns the registered commands sorted by name.
func (r *Registry) All() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// command adapts a function to Command.
type command struct {
	name        string
	usage       string
	description string
	minArgs     int
	run         func(ctx context.Context, args []string) (string, error)
}

func (c *command) Name() string        { return c.name }
func (c *command) Usage() string       { return c.usage }
func (c *command) Description() string { return c.description }

func (c *command) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) < c.minArgs {
		return "", &usageError{usage: c.usage}
	}
	return c.run(ctx, args)
}

type usageError struct {
	usage string
}

func (e *usageError) Error() string { return "usage: " + e.usage }
