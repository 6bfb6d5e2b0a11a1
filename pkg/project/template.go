package project

import (
	"fmt"

	"github.com/chazu/plinth/pkg/feature"
	"github.com/chazu/plinth/pkg/rules"
)

// templater assigns TemplateName to features before filtering.
type templater struct {
	field   string
	table   map[string]any
	columns []string
	source  string
	engine  *rules.Engine
}

func newTemplater(o Options) (*templater, error) {
	t := &templater{
		field:   o.TemplateField,
		table:   o.TemplateMap,
		columns: o.MapToColumns,
		source:  o.TemplateRules,
	}
	if len(t.table) > 0 && len(t.columns) == 0 {
		return nil, fmt.Errorf("project: template map needs map-to columns")
	}
	if t.source != "" {
		if err := rules.Check(t.source); err != nil {
			return nil, fmt.Errorf("project: template rules: %w", err)
		}
		t.engine = rules.NewEngine()
	}
	return t, nil
}

// assign sets TemplateName on f. A failed rule leaves f unchanged and is
// returned so the caller can log it.
func (t *templater) assign(f *feature.Feature) error {
	switch {
	case t.field != "" && t.field != TemplateName:
		if v, ok := f.Attr(t.field); ok {
			delete(f.Attributes, t.field)
			f.Set(TemplateName, v)
		}
	case len(t.table) > 0:
		if name, ok := lookupTemplate(t.table, t.columns, f); ok {
			f.Set(TemplateName, name)
		}
	case t.engine != nil:
		name, err := t.engine.Template(t.source, f.Attributes)
		if err != nil {
			return err
		}
		if name != "" {
			f.Set(TemplateName, name)
		}
	}
	return nil
}

// lookupTemplate walks a nested template map with the values of columns,
// one level per column. A leaf reached before the last column matches only
// when the remaining columns are unset.
func lookupTemplate(table map[string]any, columns []string, f *feature.Feature) (string, bool) {
	level := table
	for i, col := range columns {
		v, ok := f.Attr(col)
		if !ok || feature.IsUnset(v) {
			return "", false
		}
		next, ok := level[feature.Key(v)]
		if !ok {
			return "", false
		}
		switch n := next.(type) {
		case map[string]any:
			level = n
			continue
		case string:
			for _, rest := range columns[i+1:] {
				if rv, ok := f.Attr(rest); ok && !feature.IsUnset(rv) {
					return "", false
				}
			}
			return n, true
		default:
			return "", false
		}
	}
	return "", false
}
