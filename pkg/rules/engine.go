// Package rules evaluates template assignment rules written in zygomys
// Lisp. A rule sees one feature's attributes through the attr builtins and
// returns the name of the energy template to assign, or nil for none.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError is a parse or runtime error in rule source.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("rules: line %d: %s", e.Line, e.Message)
	}
	return "rules: " + e.Message
}

// Engine runs rules in a fresh sandbox per evaluation. It is safe for
// concurrent use.
type Engine struct {
	// Timeout bounds one evaluation; zero means DefaultTimeout.
	Timeout time.Duration
}

// NewEngine returns an engine with the default timeout.
func NewEngine() *Engine {
	return &Engine{Timeout: DefaultTimeout}
}

// Template evaluates source against attrs and returns the template name.
// An empty name means the rule assigned nothing. Rule errors come back as
// *EvalError; timeouts and panics are returned as plain errors.
func (e *Engine) Template(source string, attrs map[string]any) (string, error) {
	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("rules: panic during evaluation: %v", r)}
			}
		}()
		name, err := evaluate(source, attrs)
		ch <- evalResult{name: name, err: err}
	}()
	return waitWithTimeout(ch, e.timeout())
}

func (e *Engine) timeout() time.Duration {
	if e == nil || e.Timeout <= 0 {
		return DefaultTimeout
	}
	return e.Timeout
}

// Check parses source without running it.
func Check(source string) error {
	if strings.TrimSpace(source) == "" {
		return nil
	}
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, nil)
	if err := env.LoadString(preprocessSource(source)); err != nil {
		return parseZygomysError(err)
	}
	return nil
}

func evaluate(source string, attrs map[string]any) (string, error) {
	// An empty rule assigns nothing.
	if strings.TrimSpace(source) == "" {
		return "", nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, attrs)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return "", parseZygomysError(err)
	}
	out, err := env.Run()
	if err != nil {
		return "", parseZygomysError(err)
	}
	name, err := resultString(out)
	if err != nil {
		return "", &EvalError{Message: err.Error()}
	}
	return name, nil
}

// linePattern matches zygomys messages of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

func parseZygomysError(err error) *EvalError {
	msg := err.Error()
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &EvalError{Line: line, Message: strings.TrimSpace(m[2])}
	}
	return &EvalError{Message: strings.TrimSpace(msg)}
}
