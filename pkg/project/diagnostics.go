package project

// Stage names a filtering step of the pipeline.
type Stage string

const (
	StageInvalid Stage = "invalid geometry"
	StageHeight  Stage = "missing height"
	StageBuild   Stage = "solid construction"
)

// Discard records one feature dropped by a stage.
type Discard struct {
	Stage  Stage
	Index  int // original row index
	Part   int // part within an exploded multi-part row
	FID    string
	Reason string
}

// Diagnostics collects per-feature discards in pipeline order.
type Diagnostics struct {
	Discards []Discard
}

// Stage returns the discards recorded by s.
func (d *Diagnostics) Stage(s Stage) []Discard {
	var out []Discard
	for _, x := range d.Discards {
		if x.Stage == s {
			out = append(out, x)
		}
	}
	return out
}

// Indices returns the original row indices discarded by s.
func (d *Diagnostics) Indices(s Stage) []int {
	var out []int
	for _, x := range d.Discards {
		if x.Stage == s {
			out = append(out, x.Index)
		}
	}
	return out
}

// Len returns the total number of discards.
func (d *Diagnostics) Len() int {
	return len(d.Discards)
}
