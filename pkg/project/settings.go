package project

import (
	"fmt"

	"github.com/chazu/plinth/pkg/feature"
)

// Attribute names with meaning to the assembler.
const (
	TemplateName        = "TemplateName"
	EnergySimulatorName = "EnergySimulatorName"
	FloorToFloorStrict  = "FloorToFloorStrict"
	DefaultFIDField     = "fid"
)

// Setting is a named per-building default.
type Setting struct {
	Name  string
	Value any
}

// DefaultSettings are applied to every building missing them. A nil value
// adds the column without a default.
var DefaultSettings = []Setting{
	{"CoreDepth", 3.0},
	{"Envr", 1.0},
	{"Fdist", 1.0},
	{"FloorToFloorHeight", 3.0},
	{"PerimeterOffset", 3.0},
	{"RoomWidth", 3.0},
	{"WindowToWallRatioE", 0.4},
	{"WindowToWallRatioN", 0.4},
	{"WindowToWallRatioRoof", 0.0},
	{"WindowToWallRatioS", 0.4},
	{"WindowToWallRatioW", 0.4},
	{TemplateName, nil},
	{EnergySimulatorName, "UMI Shoeboxer (default)"},
	{FloorToFloorStrict, true},
}

// nonPlottable settings are stored apart from the numeric ones.
var nonPlottable = map[string]bool{
	TemplateName:        true,
	EnergySimulatorName: true,
	FloorToFloorStrict:  true,
}

// applyDefaults fills unset settings on f. Explicit values always win.
func applyDefaults(f *feature.Feature) {
	for _, s := range DefaultSettings {
		if v, ok := f.Attr(s.Name); ok && !feature.IsUnset(v) {
			continue
		}
		f.Set(s.Name, s.Value)
	}
}

// SettingRow is one melted (object, setting, value) triple.
type SettingRow struct {
	ObjectID string
	Name     string
	Value    any
}

// Settings holds the melted settings of every building.
type Settings struct {
	Plottable    []SettingRow
	NonPlottable []SettingRow
}

// SettingsStore persists settings rows, replacing any existing rows.
type SettingsStore interface {
	ReplacePlottable(rows []SettingRow) error
	ReplaceNonPlottable(rows []SettingRow) error
}

// SettingRows melts building settings, setting by setting, dropping unset
// values.
func (p *Project) SettingRows() Settings {
	var out Settings
	for _, s := range DefaultSettings {
		for _, b := range p.Buildings {
			v, ok := b.Feature.Attr(s.Name)
			if !ok || feature.IsUnset(v) {
				continue
			}
			row := SettingRow{ObjectID: b.ID.String(), Name: s.Name, Value: v}
			if nonPlottable[s.Name] {
				out.NonPlottable = append(out.NonPlottable, row)
			} else {
				out.Plottable = append(out.Plottable, row)
			}
		}
	}
	return out
}

// WriteSettings hands the settings rows to st.
func (p *Project) WriteSettings(st SettingsStore) error {
	rows := p.SettingRows()
	if err := st.ReplacePlottable(rows.Plottable); err != nil {
		return fmt.Errorf("project: write plottable settings: %w", err)
	}
	if err := st.ReplaceNonPlottable(rows.NonPlottable); err != nil {
		return fmt.Errorf("project: write non-plottable settings: %w", err)
	}
	return nil
}
