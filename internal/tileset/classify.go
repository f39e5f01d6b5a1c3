package tileset

import "math"

// DefaultWeight is the neutral traversal weight.
const DefaultWeight float32 = 1.0

// Classification is the navigation view of a tile.
type Classification struct {
	Walkable bool
	Obstacle bool
	Weight   float32
}

// Classifier derives a Classification from tile attributes.
type Classifier interface {
	Classify(td *TileData) Classification
}

// PropertyClassifier reads the classification from named tile properties.
type PropertyClassifier struct {
	WalkableKey string
	ObstacleKey string
	WeightKey   string
}

var DefaultClassifier = PropertyClassifier{
	WalkableKey: "walkable",
	ObstacleKey: "obstacle",
	WeightKey:   "weight",
}

func (c PropertyClassifier) Classify(td *TileData) Classification {
	out := Classification{Weight: DefaultWeight}
	if td == nil {
		return out
	}
	out.Walkable, _ = td.Properties.Bool(c.WalkableKey)
	out.Obstacle, _ = td.Properties.Bool(c.ObstacleKey)
	if w, ok := td.Properties.Float(c.WeightKey); ok && !math.IsNaN(w) && !math.IsInf(w, 0) {
		out.Weight = float32(w)
	}
	return out
}

// Classify applies the default property keys: "walkable", "obstacle" and a
// numeric "weight" (1.0 when absent or unparsable).
func Classify(td *TileData) Classification {
	return DefaultClassifier.Classify(td)
}
