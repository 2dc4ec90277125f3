package urlfeat

// Vector is a fixed-schema feature row: the canonical 30 columns in the order
// of FeatureNames, each holding a ternary value. It is immutable once
// produced by Extract; accessors return copies.
type Vector struct {
	values []int8
}

// Value returns the value for a named column, or 0 if the name is not one of
// the canonical columns. Missing features default to neutral by convention.
func (v Vector) Value(name string) int8 {
	for i, n := range featureNames {
		if n == name {
			if i >= len(v.values) {
				return 0
			}
			return v.values[i]
		}
	}
	return 0
}

// Values returns the column values in canonical order.
func (v Vector) Values() []int8 {
	out := make([]int8, len(v.values))
	copy(out, v.values)
	return out
}

// Map returns a name-to-value view, mainly for JSON responses and feedback
// persistence.
func (v Vector) Map() map[string]int8 {
	out := make(map[string]int8, len(v.values))
	for i, n := range featureNames {
		if i >= len(v.values) {
			break
		}
		out[n] = v.values[i]
	}
	return out
}

// Align reorders the vector to an externally supplied column schema, the
// order the classifier was trained on. Columns the extractor does not
// produce are zero-filled; canonical columns absent from the schema are
// dropped. The result is ready to send to the model service as-is.
func (v Vector) Align(schema []string) []float64 {
	byName := make(map[string]int8, len(v.values))
	for i, n := range featureNames {
		if i >= len(v.values) {
			break
		}
		byName[n] = v.values[i]
	}

	out := make([]float64, len(schema))
	for i, col := range schema {
		out[i] = float64(byName[col]) // missing columns stay 0
	}
	return out
}
