// Package dispatch turns query text into a SPARQL 1.1 Protocol request plan.
//
// A Plan is pure data: method, URL, ordered headers and body. Nothing is
// sent here; pkg/exec executes plans.
//
//	plan, err := dispatch.BuildPlan(query, "https://dbpedia.org/sparql", dispatch.FormatAuto)
//	if err != nil {
//		return err
//	}
//	req, err := plan.NewRequest(ctx)
package dispatch
