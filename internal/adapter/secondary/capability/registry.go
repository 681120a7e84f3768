package capability

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
)

// ModulePrefix is the optional prefix of module names on the command line.
const ModulePrefix = "LM_"

// Handler runs one module function with the remaining command tokens.
type Handler func(args []string) (string, error)

// Function is one exposed module function.
type Function struct {
	Name string
	Call Handler
}

// Module is a capability module and its exposed functions.
type Module struct {
	Name        string
	Precompiled bool
	Functions   []Function
}

// Registry is the static capability table. It implements
// domain.DispatchExecutor and domain.ModuleCatalog.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	modules map[string]Module
	log     zerolog.Logger
}

var (
	_ domain.DispatchExecutor = (*Registry)(nil)
	_ domain.ModuleCatalog    = (*Registry)(nil)
)

// NewRegistry creates a registry holding modules.
func NewRegistry(modules ...Module) (*Registry, error) {
	r := &Registry{modules: make(map[string]Module), log: logging.For("dispatch")}
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds m. Names must be unique.
func (r *Registry) Register(m Module) error {
	name := strings.TrimPrefix(strings.TrimSpace(m.Name), ModulePrefix)
	if name == "" {
		return errors.New("module name is required")
	}
	seen := make(map[string]bool, len(m.Functions))
	for _, fn := range m.Functions {
		if fn.Name == "" || fn.Call == nil {
			return fmt.Errorf("module %s: function needs a name and a handler", name)
		}
		if seen[fn.Name] {
			return fmt.Errorf("module %s: duplicate function %s", name, fn.Name)
		}
		seen[fn.Name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.modules[name]; dup {
		return fmt.Errorf("module %s already registered", name)
	}
	m.Name = name
	r.modules[name] = m
	r.order = append(r.order, name)
	return nil
}

// Modules returns the module descriptors in registration order.
func (r *Registry) Modules() []domain.ModuleDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ModuleDescriptor, 0, len(r.order))
	for _, name := range r.order {
		m := r.modules[name]
		d := domain.ModuleDescriptor{Name: m.Name, Precompiled: m.Precompiled}
		for _, fn := range m.Functions {
			d.Functions = append(d.Functions, fn.Name)
		}
		out = append(out, d)
	}
	return out
}

// Execute resolves args[0] to a module and args[1] to one of its functions,
// replying the function output. Lookup and function failures are replied and
// reported as false; a panicking function is recovered the same way.
func (r *Registry) Execute(args []string, out domain.Replier) (ok bool, err error) {
	if len(args) < 2 {
		out.Reply(fmt.Sprintf("[ERROR] %v: want <module> <function> [args...]", domain.ErrShellFault))
		return false, nil
	}

	name := strings.TrimPrefix(args[0], ModulePrefix)
	fnName := strings.TrimSuffix(args[1], "()")

	fn, lookupErr := r.lookup(name, fnName)
	if lookupErr != nil {
		out.Reply(fmt.Sprintf("[ERROR] %v", lookupErr))
		return false, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Strs("args", args).Msg("module function panic")
			out.Reply(fmt.Sprintf("[ERROR] %s.%s: %v", name, fnName, domain.Recovered(rec)))
			ok, err = false, nil
		}
	}()

	res, callErr := fn.Call(args[2:])
	if callErr != nil {
		r.log.Debug().Err(callErr).Strs("args", args).Msg("module function failed")
		out.Reply(fmt.Sprintf("[ERROR] %s.%s: %v", name, fnName, callErr))
		return false, nil
	}
	if res != "" {
		for _, line := range strings.Split(res, "\n") {
			out.Reply(line)
		}
	}
	return true, nil
}

func (r *Registry) lookup(module, function string) (Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[module]
	if !ok {
		return Function{}, fmt.Errorf("%w: %s", domain.ErrUnknownModule, module)
	}
	for _, fn := range m.Functions {
		if fn.Name == function {
			return fn, nil
		}
	}
	return Function{}, fmt.Errorf("%w: %s.%s", domain.ErrUnknownFunction, module, function)
}
