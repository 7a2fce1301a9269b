package di

import "slices"

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// Validate checks the whole dependency table without constructing anything.
//
// Keys are walked in sorted order and the first problem is returned:
// MissingRegistrationError for an undeclared dependency, or
// CircularDependencyError for a cycle. Registrations added after Validate
// returns are not covered.
func (r *Registry) Validate() error {
	_, err := r.Order()
	return err
}

// Order returns every registered key so that each key appears after all of
// its dependencies. Ties are broken by key order, so the result is stable
// for a given table.
func (r *Registry) Order() ([]DependencyKey, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	table := r.snapshot()

	keys := make([]DependencyKey, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	states := make(map[DependencyKey]visitState, len(table))
	order := make([]DependencyKey, 0, len(table))

	var visit func(key DependencyKey, path []DependencyKey) error
	visit = func(key DependencyKey, path []DependencyKey) error {
		switch states[key] {
		case visiting:
			return CircularDependencyError{Path: extendPath(path, key)}
		case visited:
			return nil
		}

		path = extendPath(path, key)
		deps, ok := table[key]
		if !ok {
			return MissingRegistrationError{Key: key, Path: path}
		}

		states[key] = visiting
		for _, dep := range deps {
			if err := visit(dep, path); err != nil {
				return err
			}
		}
		states[key] = visited
		order = append(order, key)
		return nil
	}

	for _, k := range keys {
		if err := visit(k, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Dependents returns the keys that declare key as a direct dependency, sorted.
func (r *Registry) Dependents(key DependencyKey) []DependencyKey {
	if r == nil {
		return nil
	}
	var out []DependencyKey
	for k, deps := range r.snapshot() {
		if slices.Contains(deps, key) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
