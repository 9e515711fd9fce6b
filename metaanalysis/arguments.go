package metaanalysis

// Arguments are the current values of an algorithm's parameters.
type Arguments map[string]any

// multiGroupAlgorithms need a second dataset to compare against.
// The document carries no such flag, so membership is by name.
var multiGroupAlgorithms = map[string]bool{
	"MKDAChi2":       true,
	"ALESubtraction": true,
}

func IsMultiGroup(name string) bool {
	return multiGroupAlgorithms[name]
}

// DefaultArguments builds the initial values of a parameter schema.
// Keyword parameters start as an empty mapping, all others take their default verbatim.
func DefaultArguments(params map[string]Parameter) Arguments {
	args := make(Arguments, len(params))
	for name, p := range params {
		if p.IsKeywordArgs() {
			args[name] = map[string]any{}
			continue
		}
		args[name] = p.Default
	}
	return args
}

// Patch merges patch on top of the arguments and returns the result.
// Keys missing from patch keep their value; the receiver is not modified.
func (a Arguments) Patch(patch Arguments) Arguments {
	out := make(Arguments, len(a)+len(patch))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// keywordParam returns the name of the catch-all parameter, if any.
// With several, the first in name order wins.
func keywordParam(params map[string]Parameter) (string, bool) {
	found := ""
	for name, p := range params {
		if p.IsKeywordArgs() && (found == "" || name < found) {
			found = name
		}
	}
	return found, found != ""
}
