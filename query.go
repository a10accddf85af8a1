package timevault

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iov-one/timevault/errors"
)

// Query modes, selected by the "?mod" suffix of a query path.
const (
	// KeyQueryMod returns the value of the exact key.
	KeyQueryMod = ""
	// PrefixQueryMod returns every pair whose key starts with the data.
	PrefixQueryMod = "prefix"
)

// Model is a key value pair returned by a query.
type Model struct {
	Key   []byte
	Value []byte
}

func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

// QueryHandler answers the queries of one path.
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRegister adds the query handlers of an extension.
type QueryRegister func(QueryRouter)

// QueryRouter dispatches abci queries by path, like an http.ServeMux.
type QueryRouter struct {
	routes map[string]QueryHandler
}

func NewQueryRouter() QueryRouter {
	return QueryRouter{routes: make(map[string]QueryHandler)}
}

func (r QueryRouter) RegisterAll(regs ...QueryRegister) {
	for _, reg := range regs {
		reg(r)
	}
}

// Register panics when path already has a handler.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("Re-registering route: %s", path))
	}
	r.routes[path] = h
}

// Handler returns nil for an unknown path.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}

// Paths returns the registered paths, sorted.
func (r QueryRouter) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ParseQueryPath splits "/vaults?prefix" into the "/vaults" route and the
// prefix mode.
func ParseQueryPath(path string) (route, mod string, err error) {
	i := strings.IndexByte(path, '?')
	if i < 0 {
		return path, KeyQueryMod, nil
	}
	if mod := path[i+1:]; mod != PrefixQueryMod {
		return "", "", errors.Wrapf(errors.ErrInput, "unknown query mode %q", mod)
	}
	return path[:i], PrefixQueryMod, nil
}
