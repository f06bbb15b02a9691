package journal

import (
	"time"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// ContractGroup is the executions of one contract, in input order.
type ContractGroup struct {
	Contract   domain.ContractIdentity
	Executions []domain.Execution
}

// GroupByContract splits executions by contract, keeping groups in order of
// first appearance.
func GroupByContract(execs []domain.Execution) []ContractGroup {
	var groups []ContractGroup
	index := make(map[string]int)
	for _, e := range execs {
		key := e.Contract.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ContractGroup{Contract: e.Contract})
		}
		groups[i].Executions = append(groups[i].Executions, e)
	}
	return groups
}

// MatchDay runs Match for every contract traded on date and concatenates the
// results. Seq is renumbered across the whole day.
func MatchDay(date time.Time, execs []domain.Execution) MatchResult {
	var day MatchResult
	for _, g := range GroupByContract(execs) {
		res := Match(date, g.Contract, g.Executions)
		day.Trips = append(day.Trips, res.Trips...)
		day.Leftovers = append(day.Leftovers, res.Leftovers...)
	}
	for i := range day.Trips {
		day.Trips[i].Seq = i + 1
	}
	return day
}
