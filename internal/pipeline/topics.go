package pipeline

import "github.com/amirb101/three-sided-sub001/internal/domain"

// topicGroups are the tag sets a run can search the archive with. One group
// is picked at random per run so the feed rotates across subjects instead of
// draining a single tag.
var topicGroups = [][]string{
	{"real-analysis", "sequences-and-series", "limits"},
	{"linear-algebra", "matrices", "eigenvalues"},
	{"calculus", "integration", "improper-integrals"},
	{"probability", "combinatorics", "expected-value"},
	{"number-theory", "modular-arithmetic", "prime-numbers"},
	{"abstract-algebra", "group-theory", "ring-theory"},
	{"topology", "metric-spaces", "compactness"},
	{"complex-analysis", "contour-integration", "residues"},
}

// pickCriteria builds the fetch criteria for this run: a randomly chosen
// topic group plus the configured quality band. Accepted answers are always
// required and closed questions always excluded.
func (o *Orchestrator) pickCriteria() domain.FetchCriteria {
	group := topicGroups[o.intn(len(topicGroups))]
	return domain.FetchCriteria{
		TagGroup:               group,
		RecencyWindow:          o.cfg.RecencyWindow,
		ScoreMin:               o.cfg.ScoreMin,
		ScoreMax:               o.cfg.ScoreMax,
		MustHaveAcceptedAnswer: true,
		ExcludeClosed:          true,
	}
}
