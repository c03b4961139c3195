package runtime

// Environment is one lexical scope: a name table with a pointer to the
// enclosing scope. The chain ends at the global environment.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates an environment enclosed by parent. A nil parent
// makes a global environment.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Define binds name to value in this scope, shadowing any binding in outer
// scopes and overwriting a previous binding in this one.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks name up through the scope chain. Used for unresolved (global)
// references.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set assigns to an existing binding found through the scope chain. It
// reports false when no binding exists; assignment never creates one.
func (e *Environment) Set(name string, value Value) bool {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			env.values[name] = value
			return true
		}
	}
	return false
}

// GetAt reads name from the scope exactly distance hops up the chain. The
// resolver guarantees the binding exists there.
func (e *Environment) GetAt(distance int, name string) (Value, bool) {
	env := e.ancestor(distance)
	if env == nil {
		return nil, false
	}
	v, ok := env.values[name]
	return v, ok
}

// SetAt assigns name in the scope exactly distance hops up the chain.
func (e *Environment) SetAt(distance int, name string, value Value) bool {
	env := e.ancestor(distance)
	if env == nil {
		return false
	}
	if _, ok := env.values[name]; !ok {
		return false
	}
	env.values[name] = value
	return true
}

func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance && env != nil; i++ {
		env = env.parent
	}
	return env
}
