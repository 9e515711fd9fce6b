package metaanalysis

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownAlgorithm     = errors.New("unknown algorithm")
	ErrUnknownCorrector     = errors.New("unknown corrector")
	ErrUnknownArgument      = errors.New("unknown argument")
	ErrMissingSecondDataset = errors.New("algorithm requires a second dataset")
)

// Request is a meta-analysis as submitted by a user.
type Request struct {
	Type          string    `json:"type" binding:"required"`
	Estimator     string    `json:"estimator" binding:"required"`
	EstimatorArgs Arguments `json:"estimatorArgs"`
	Corrector     string    `json:"corrector"`
	CorrectorArgs Arguments `json:"correctorArgs"`
	StudysetID    string    `json:"studysetId"`
	AnnotationID  string    `json:"annotationId"`
	// Filter selects the annotation column that marks included analyses.
	Filter string `json:"filter"`
	// SecondDataset is the comparison dataset of multi-group algorithms.
	SecondDataset string `json:"secondDataset,omitempty"`
}

type Component struct {
	Type string    `json:"type"`
	Args Arguments `json:"args"`
}

// Resolved is a validated meta-analysis specification with all defaults filled in.
type Resolved struct {
	Type          string     `json:"type"`
	Estimator     Component  `json:"estimator"`
	Corrector     *Component `json:"corrector,omitempty"`
	StudysetID    string     `json:"studysetId,omitempty"`
	AnnotationID  string     `json:"annotationId,omitempty"`
	Filter        string     `json:"filter,omitempty"`
	SecondDataset string     `json:"secondDataset,omitempty"`
	MultiGroup    bool       `json:"multiGroup"`
}

// BuildSpecification validates a request against the specification and merges the user
// arguments over the defaults.
func (s Specification) BuildSpecification(req Request) (Resolved, error) {
	algo, ok := s.Lookup(req.Type, req.Estimator)
	if !ok || req.Type == CorrectorType {
		return Resolved{}, fmt.Errorf("%w: %s/%s", ErrUnknownAlgorithm, req.Type, req.Estimator)
	}
	multi := IsMultiGroup(req.Estimator)
	if multi && req.SecondDataset == "" {
		return Resolved{}, fmt.Errorf("%w: %s", ErrMissingSecondDataset, req.Estimator)
	}
	estArgs, err := resolveArgs(algo, req.EstimatorArgs)
	if err != nil {
		return Resolved{}, fmt.Errorf("estimator %s: %w", req.Estimator, err)
	}

	out := Resolved{
		Type:         req.Type,
		Estimator:    Component{Type: req.Estimator, Args: estArgs},
		StudysetID:   req.StudysetID,
		AnnotationID: req.AnnotationID,
		Filter:       req.Filter,
		MultiGroup:   multi,
	}
	if multi {
		out.SecondDataset = req.SecondDataset
	}

	if req.Corrector != "" {
		corr, ok := s.Corrector(req.Corrector)
		if !ok {
			return Resolved{}, fmt.Errorf("%w: %s", ErrUnknownCorrector, req.Corrector)
		}
		corrArgs, err := resolveArgs(corr, req.CorrectorArgs)
		if err != nil {
			return Resolved{}, fmt.Errorf("corrector %s: %w", req.Corrector, err)
		}
		out.Corrector = &Component{Type: req.Corrector, Args: corrArgs}
	}
	return out, nil
}

// resolveArgs patches user values over the defaults. Names outside the schema go into the
// keyword parameter when the algorithm has one and are rejected otherwise.
func resolveArgs(algo Algorithm, user Arguments) (Arguments, error) {
	args := DefaultArguments(algo.Parameters)
	kwName, hasKw := keywordParam(algo.Parameters)

	known := Arguments{}
	extra := map[string]any{}
	for k, v := range user {
		if _, ok := algo.Parameters[k]; ok {
			known[k] = v
			continue
		}
		extra[k] = v
	}
	if len(extra) > 0 && !hasKw {
		names := make([]string, 0, len(extra))
		for k := range extra {
			names = append(names, k)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %v", ErrUnknownArgument, names)
	}

	args = args.Patch(known)
	if len(extra) > 0 {
		kw := map[string]any{}
		if m, ok := args[kwName].(map[string]any); ok {
			for k, v := range m {
				kw[k] = v
			}
		}
		for k, v := range extra {
			kw[k] = v
		}
		args[kwName] = kw
	}
	return args, nil
}
