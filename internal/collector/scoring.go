package collector

// relationWeights maps registry relation-type labels to normalized
// strengths. Direct band membership is the strongest signal, tribute acts
// the weakest.
var relationWeights = map[string]float64{
	"member of band":      1.0,
	"collaboration":       0.8,
	"subgroup":            0.7,
	"supporting musician": 0.6,
	"tribute":             0.4,
}

// defaultStrength is assigned to relation types outside the table.
const defaultStrength = 0.5

// StrengthFor returns the normalized strength for a relation type.
// Unrecognized types score the default.
func StrengthFor(relationType string) float64 {
	if w, ok := relationWeights[relationType]; ok {
		return w
	}
	return defaultStrength
}
