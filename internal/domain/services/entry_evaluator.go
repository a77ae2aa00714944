package services

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/reglet-dev/composer/internal/domain/entities"
)

var entryRefPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Constructor builds a context value from an expanded textual value and
// already-evaluated arguments.
type Constructor func(value string, args []any) (any, error)

// builtinConstructors are available to every evaluator.
var builtinConstructors = map[string]Constructor{
	"": func(value string, _ []any) (any, error) { return value, nil },
	"string": func(value string, _ []any) (any, error) {
		return value, nil
	},
	"int": func(value string, _ []any) (any, error) {
		return strconv.Atoi(value)
	},
	"bool": func(value string, _ []any) (any, error) {
		return strconv.ParseBool(value)
	},
	"duration": func(value string, _ []any) (any, error) {
		return time.ParseDuration(value)
	},
	"list": func(_ string, args []any) (any, error) {
		return args, nil
	},
}

// EntryEvaluator resolves context entry sources to values.
type EntryEvaluator struct {
	constructors map[string]Constructor
	system       map[string]any
}

// NewEntryEvaluator creates an evaluator over the system context entries.
func NewEntryEvaluator(system map[string]any) *EntryEvaluator {
	e := &EntryEvaluator{
		constructors: make(map[string]Constructor, len(builtinConstructors)),
		system:       system,
	}
	for name, c := range builtinConstructors {
		e.constructors[name] = c
	}
	return e
}

// WithSystem returns an evaluator sharing e's constructors over a different
// system context.
func (e *EntryEvaluator) WithSystem(system map[string]any) *EntryEvaluator {
	out := &EntryEvaluator{
		constructors: make(map[string]Constructor, len(e.constructors)),
		system:       system,
	}
	for name, c := range e.constructors {
		out.constructors[name] = c
	}
	return out
}

// Register adds or replaces a constructor for classname.
func (e *EntryEvaluator) Register(classname string, c Constructor) {
	e.constructors[classname] = c
}

// Evaluate resolves source. References in constructed values look up
// resolved first and then the system context.
func (e *EntryEvaluator) Evaluate(source entities.EntrySource, resolved map[string]any) (any, error) {
	switch s := source.(type) {
	case entities.Overridden:
		return s.Value, nil

	case entities.Imported:
		v, ok := e.system[s.Key]
		if !ok {
			return nil, fmt.Errorf("imported key %q is not present in the system context", s.Key)
		}
		return v, nil

	case entities.Constructed:
		ctor, ok := e.constructors[s.Classname]
		if !ok {
			return nil, fmt.Errorf("no constructor registered for %q", s.Classname)
		}
		args := make([]any, 0, len(s.Args))
		for i, arg := range s.Args {
			v, err := e.Evaluate(arg, resolved)
			if err != nil {
				return nil, fmt.Errorf("argument %d of %s: %w", i, s.Classname, err)
			}
			args = append(args, v)
		}
		value, err := e.expand(s.Value, resolved)
		if err != nil {
			return nil, err
		}
		v, err := ctor(value, args)
		if err != nil {
			return nil, fmt.Errorf("construct %s: %w", s.Classname, err)
		}
		return v, nil

	case nil:
		return nil, fmt.Errorf("entry source is missing")

	default:
		return nil, fmt.Errorf("unsupported entry source %T", source)
	}
}

func (e *EntryEvaluator) expand(value string, resolved map[string]any) (string, error) {
	var missing string
	out := entryRefPattern.ReplaceAllStringFunc(value, func(ref string) string {
		key := ref[2 : len(ref)-1]
		if v, ok := resolved[key]; ok {
			return fmt.Sprint(v)
		}
		if v, ok := e.system[key]; ok {
			return fmt.Sprint(v)
		}
		if missing == "" {
			missing = key
		}
		return ref
	})
	if missing != "" {
		return "", fmt.Errorf("unresolved reference ${%s}", missing)
	}
	return out, nil
}
