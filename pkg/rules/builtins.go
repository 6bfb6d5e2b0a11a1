package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// preprocessSource rewrites rule source for zygomys:
//
//  1. :keyword becomes the string "__kw_keyword", so (attr :Use_Type)
//     names an attribute without defining a symbol.
//  2. kebab-case identifiers become snake_case (attr-or -> attr_or), since
//     zygomys reads the hyphen as subtraction.
//  3. ; comments become // comments.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	out := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := i + 1
			for j < len(b) && b[j] != '"' {
				if b[j] == '\\' && j+1 < len(b) {
					j++
				}
				j++
			}
			if j < len(b) {
				j++
			}
			out = append(out, b[i:j]...)
			i = j
		case b[i] == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			if j < len(b) {
				j++
			}
			out = append(out, b[i:j]...)
			i = j
		case b[i] == ';':
			out = append(out, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out = append(out, b[i])
				i++
			}
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++
		default:
			out = append(out, b[i])
			i++
		}
	}
	return string(out)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// kwPrefix marks keywords rewritten by preprocessSource.
const kwPrefix = "__kw_"

// toName reads an attribute name from a string or keyword.
func toName(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected attribute name, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toSexp converts an attribute value. Unset values become nil.
func toSexp(v any) zygo.Sexp {
	switch t := v.(type) {
	case nil:
		return zygo.SexpNull
	case string:
		if strings.TrimSpace(t) == "" {
			return zygo.SexpNull
		}
		return &zygo.SexpStr{S: t}
	case bool:
		return &zygo.SexpBool{Val: t}
	case int:
		return &zygo.SexpInt{Val: int64(t)}
	case int64:
		return &zygo.SexpInt{Val: t}
	case int32:
		return &zygo.SexpInt{Val: int64(t)}
	case float32:
		return floatSexp(float64(t))
	case float64:
		return floatSexp(t)
	}
	return &zygo.SexpStr{S: fmt.Sprint(v)}
}

// floatSexp keeps integral values as ints so (== (attr "Floors") 3) holds.
func floatSexp(f float64) zygo.Sexp {
	if math.IsNaN(f) {
		return zygo.SexpNull
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return &zygo.SexpInt{Val: int64(f)}
	}
	return &zygo.SexpFloat{Val: f}
}

// resultString reads the template name returned by a rule.
func resultString(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		return strings.TrimPrefix(v.S, kwPrefix), nil
	case *zygo.SexpInt:
		return strconv.FormatInt(v.Val, 10), nil
	case *zygo.SexpFloat:
		return strconv.FormatFloat(v.Val, 'f', -1, 64), nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return "", nil
		}
	case *zygo.SexpBool:
		if !v.Val {
			return "", nil
		}
	}
	return "", fmt.Errorf("rule must return a template name or nil, got %T (%s)", s, s.SexpString(nil))
}

// registerBuiltins installs the attribute accessors over attrs.
func registerBuiltins(env *zygo.Zlisp, attrs map[string]any) {
	// (attr "Use_Type") fails when the attribute is absent.
	env.AddFunction("attr", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("attr requires exactly 1 argument, got %d", len(args))
		}
		key, err := toName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attr: %w", err)
		}
		v, ok := attrs[key]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("attr: no attribute %q", key)
		}
		return toSexp(v), nil
	})

	// (attr-or "Use_Type" "Residential")
	env.AddFunction("attr_or", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("attr-or requires exactly 2 arguments, got %d", len(args))
		}
		key, err := toName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attr-or: %w", err)
		}
		v, ok := attrs[key]
		if !ok {
			return args[1], nil
		}
		s := toSexp(v)
		if s == zygo.SexpNull {
			return args[1], nil
		}
		return s, nil
	})

	// (has-attr "Use_Type")
	env.AddFunction("has_attr", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("has-attr requires exactly 1 argument, got %d", len(args))
		}
		key, err := toName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("has-attr: %w", err)
		}
		v, ok := attrs[key]
		return &zygo.SexpBool{Val: ok && toSexp(v) != zygo.SexpNull}, nil
	})
}
