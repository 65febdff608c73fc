package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dealease/backend/domain"
)

type CommandHandler func(ctx context.Context, payload any) (any, error)
type QueryHandler func(ctx context.Context, params any) (any, error)

// Dispatcher routes named maintenance commands and queries, such as the debug
// helpers exposed over HTTP.
type Dispatcher struct {
	cmdHandlers map[string]CommandHandler
	qryHandlers map[string]QueryHandler
	mu          sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		cmdHandlers: make(map[string]CommandHandler),
		qryHandlers: make(map[string]QueryHandler),
	}
}

func (d *Dispatcher) RegisterCommand(name string, handler CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmdHandlers[name] = handler
}

func (d *Dispatcher) RegisterQuery(name string, handler QueryHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.qryHandlers[name] = handler
}

func (d *Dispatcher) ExecuteCommand(ctx context.Context, name string, payload any) (any, error) {
	d.mu.RLock()
	handler, ok := d.cmdHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrCodeNotFound, "command not registered", fmt.Errorf("%s", name))
	}
	return handler(ctx, payload)
}

func (d *Dispatcher) ExecuteQuery(ctx context.Context, name string, params any) (any, error) {
	d.mu.RLock()
	handler, ok := d.qryHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrCodeNotFound, "query not registered", fmt.Errorf("%s", name))
	}
	return handler(ctx, params)
}

// Names lists the registered commands and queries, sorted.
func (d *Dispatcher) Names() (commands, queries []string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for name := range d.cmdHandlers {
		commands = append(commands, name)
	}
	for name := range d.qryHandlers {
		queries = append(queries, name)
	}
	sort.Strings(commands)
	sort.Strings(queries)
	return commands, queries
}
