package core

import (
	"errors"
	"sync"
)

// ErrUnknownCommand is returned by Dispatch for an unregistered id.
var ErrUnknownCommand = errors.New("unknown command")

// CommandHandler decodes its own arguments from args.
type CommandHandler func(args *[]byte) error

// Command is one entry of the command dictionary. Responses are entries
// without a handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // e.g. "oid=%c ns=%u"
	Handler CommandHandler
}

// Signature returns "name format", the dictionary key of the command.
func (c *Command) Signature() string {
	if c.Format == "" {
		return c.Name
	}
	return c.Name + " " + c.Format
}

// CommandRegistry assigns ids in registration order.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	byName   map[string]uint16
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{byName: make(map[string]uint16)}
}

// Register adds a command and returns its id. Registering a name again
// returns the existing id.
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byName[name]; ok {
		return id
	}
	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{ID: id, Name: name, Format: format, Handler: handler})
	r.byName[name] = id
	return id
}

// RegisterResponse adds a device-to-host message.
func (r *CommandRegistry) RegisterResponse(name, format string) uint16 {
	return r.Register(name, format, nil)
}

func (r *CommandRegistry) Get(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

func (r *CommandRegistry) ByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch runs the handler of id.
func (r *CommandRegistry) Dispatch(id uint16, args *[]byte) error {
	cmd, ok := r.Get(id)
	if !ok || cmd.Handler == nil {
		return ErrUnknownCommand
	}
	return cmd.Handler(args)
}

// All returns every entry in id order.
func (r *CommandRegistry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Dictionary returns one signature per line in id order.
func (r *CommandRegistry) Dictionary() string {
	var b []byte
	for _, c := range r.All() {
		b = append(b, c.Signature()...)
		b = append(b, '\n')
	}
	return string(b)
}
