package runtime

import "time"

// installBuiltins defines the native functions in the global environment.
func installBuiltins(globals *Environment) {
	globals.Define("clock", BuiltinVal{
		Name:  "clock",
		Arity: 0,
		Fn: func(args []Value) (Value, error) {
			return NumberVal(float64(time.Now().UnixMilli()) / 1000.0), nil
		},
	})
}
