package dispatch

import (
	"strconv"
	"strings"
	"time"
)

// ParamKind distinguishes how a parameter is supplied on the line.
type ParamKind int

const (
	// KindPositional parameters bind in declaration order.
	KindPositional ParamKind = iota
	// KindOption parameters are supplied as --name value or --name=value.
	KindOption
	// KindFlag parameters are boolean presence switches (--name).
	KindFlag
)

// ParamType is the coercion target for a parameter value.
type ParamType int

const (
	TypeString ParamType = iota
	TypeInt
	TypeBool
	TypeDuration
)

// ParamSpec describes one parameter of a command. The ordered list of specs
// on a Node is fixed at registration time.
type ParamSpec struct {
	Name        string
	Kind        ParamKind
	Type        ParamType
	Required    bool
	Default     any
	Description string
}

// Args is the validated, typed argument set handed to a handler. Lookups on
// absent names return the zero value.
type Args struct {
	values   map[string]any
	provided map[string]bool
}

// Provided reports whether the parameter was present on the line (as opposed
// to defaulted).
func (a Args) Provided(name string) bool {
	return a.provided[name]
}

// String returns the string value bound to name.
func (a Args) String(name string) string {
	if v, ok := a.values[name].(string); ok {
		return v
	}
	return ""
}

// Int returns the int value bound to name.
func (a Args) Int(name string) int {
	if v, ok := a.values[name].(int); ok {
		return v
	}
	return 0
}

// Bool returns the bool value bound to name.
func (a Args) Bool(name string) bool {
	if v, ok := a.values[name].(bool); ok {
		return v
	}
	return false
}

// Duration returns the duration value bound to name.
func (a Args) Duration(name string) time.Duration {
	if v, ok := a.values[name].(time.Duration); ok {
		return v
	}
	return 0
}

func coerce(spec ParamSpec, raw string) (any, *Failure) {
	switch spec.Type {
	case TypeString:
		return raw, nil
	case TypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, Failf(FailValidation, "parameter '%s' expects an integer, got '%s'", spec.Name, raw)
		}
		return n, nil
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, Failf(FailValidation, "parameter '%s' expects a boolean, got '%s'", spec.Name, raw)
		}
		return b, nil
	case TypeDuration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, Failf(FailValidation, "parameter '%s' expects a duration, got '%s'", spec.Name, raw)
		}
		return d, nil
	default:
		return nil, Failf(FailValidation, "parameter '%s' has an unknown type", spec.Name)
	}
}

// BindArgs validates raw tokens against an ordered parameter specification
// and produces the typed argument set. Validation is bounded by the token
// count and never invokes any handler code.
func BindArgs(specs []ParamSpec, tokens []string) (Args, *Failure) {
	args := Args{
		values:   make(map[string]any, len(specs)),
		provided: make(map[string]bool, len(specs)),
	}

	byName := make(map[string]ParamSpec, len(specs))
	var positionals []ParamSpec
	for _, s := range specs {
		if s.Kind == KindPositional {
			positionals = append(positionals, s)
		} else {
			byName[s.Name] = s
		}
	}

	posIdx := 0
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if strings.HasPrefix(tok, "--") {
			name := strings.TrimPrefix(tok, "--")
			inline := ""
			hasInline := false
			if eq := strings.Index(name, "="); eq != -1 {
				inline = name[eq+1:]
				name = name[:eq]
				hasInline = true
			}
			spec, ok := byName[name]
			if !ok {
				return Args{}, Failf(FailValidation, "unknown parameter '--%s'", name)
			}
			switch spec.Kind {
			case KindFlag:
				if hasInline {
					v, f := coerce(ParamSpec{Name: name, Type: TypeBool}, inline)
					if f != nil {
						return Args{}, f
					}
					args.values[name] = v
				} else {
					args.values[name] = true
				}
			case KindOption:
				raw := inline
				if !hasInline {
					if i+1 >= len(tokens) {
						return Args{}, Failf(FailValidation, "parameter '--%s' requires a value", name)
					}
					i++
					raw = tokens[i]
				}
				v, f := coerce(spec, raw)
				if f != nil {
					return Args{}, f
				}
				args.values[name] = v
			}
			args.provided[name] = true
			continue
		}

		if posIdx >= len(positionals) {
			return Args{}, Failf(FailValidation, "unexpected argument '%s'", tok)
		}
		spec := positionals[posIdx]
		posIdx++
		v, f := coerce(spec, tok)
		if f != nil {
			return Args{}, f
		}
		args.values[spec.Name] = v
		args.provided[spec.Name] = true
	}

	for _, s := range specs {
		if args.provided[s.Name] {
			continue
		}
		if s.Required {
			return Args{}, Failf(FailValidation, "missing required parameter '%s'", s.Name)
		}
		if s.Default != nil {
			args.values[s.Name] = s.Default
		} else if s.Kind == KindFlag {
			args.values[s.Name] = false
		}
	}

	return args, nil
}
