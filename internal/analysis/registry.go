package analysis

import "stockscan/internal/model"

// registry is the fixed seven-step analysis framework. The order here is
// the report order; the aggregator re-orders concurrent results to match
// it. Every task lists the knowledge field so each prompt names the
// company and can fall back to model knowledge when richer sources are
// missing.
//
// Design decision: The framework is a data table consumed by one generic
// runner, not seven task implementations. Adding an analysis dimension
// is an entry here, nothing else.
var registry = []model.TaskSpec{
	{
		ID:          "phase",
		DisplayName: "Business Phase Analysis",
		RequiredFields: []string{
			model.FieldDocuments,
			model.FieldDailyMetrics,
			model.FieldFinancials,
			model.FieldKnowledge,
		},
	},
	{
		ID:          "business",
		DisplayName: "Business Model Analysis",
		RequiredFields: []string{
			model.FieldDocuments,
			model.FieldReferences,
			model.FieldBasicInfo,
			model.FieldKnowledge,
		},
	},
	{
		ID:          "moat",
		DisplayName: "Moat Analysis",
		RequiredFields: []string{
			model.FieldDocuments,
			model.FieldReferences,
			model.FieldKnowledge,
		},
	},
	{
		ID:          "growth",
		DisplayName: "Growth Potential Analysis",
		RequiredFields: []string{
			model.FieldDocuments,
			model.FieldFinancials,
			model.FieldKnowledge,
		},
	},
	{
		ID:          "metrics",
		DisplayName: "Key Metrics Analysis",
		RequiredFields: []string{
			model.FieldDailyMetrics,
			model.FieldFinancials,
			model.FieldKnowledge,
		},
	},
	{
		ID:          "risk",
		DisplayName: "Risk Analysis",
		RequiredFields: []string{
			model.FieldDocuments,
			model.FieldReferences,
			model.FieldKnowledge,
		},
	},
	{
		ID:          "valuation",
		DisplayName: "Valuation Framework",
		RequiredFields: []string{
			model.FieldBasicInfo,
			model.FieldDailyMetrics,
			model.FieldFinancials,
			model.FieldKnowledge,
		},
	},
}

// Registry returns the fixed task table in report order. Callers receive
// a copy so the table itself can never be mutated.
func Registry() []model.TaskSpec {
	specs := make([]model.TaskSpec, len(registry))
	copy(specs, registry)
	return specs
}

// TaskCount returns the number of registered tasks.
func TaskCount() int {
	return len(registry)
}
