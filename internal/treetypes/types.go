package treetypes

// Variation is one alternative asset for a growth stage.
type Variation struct {
	Filename string
	Name     string // optional display name
}

// Stage is a growth stage. Index is 1-based and contiguous within a type.
type Stage struct {
	Index      int
	Variations []Variation
}

// Descriptor is a tree type loaded from a treeTypes.xml file.
type Descriptor struct {
	Name      string
	SplitType string
	Title     string
	Stages    []Stage
}

// MaxStage is the number of growth stages.
func (d *Descriptor) MaxStage() int {
	return len(d.Stages)
}
