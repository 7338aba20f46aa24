package pathfind

import "github.com/pthm-cable/physarum/agent"

func toCell(c agent.GridCell) Cell    { return Cell{X: c.X, Y: c.Y} }
func fromCell(c Cell) agent.GridCell { return agent.GridCell{X: c.X, Y: c.Y} }

// StartExploration resets an agent's blind-search state so it begins
// exploring from start, one frontier cell per benchmark step, instead of
// running a full search up front.
func StartExploration(a *agent.Agent, start agent.GridCell) {
	a.ExplorationFrontier = []agent.GridCell{start}
	a.ExplorationVisited = map[agent.GridCell]bool{start: true}
	a.ExplorationParents = map[agent.GridCell]agent.GridCell{}
	a.ExplorationCost = map[agent.GridCell]float64{start: 0}
}

// StepExploration pops one frontier cell, marks it visited, and expands its
// open neighbors. It returns the popped cell (the benchmark harness animates
// the agent's world-space motion toward it) and whether that cell is goal.
func StepExploration(a *agent.Agent, g *Grid, goal agent.GridCell) (agent.GridCell, bool) {
	if len(a.ExplorationFrontier) == 0 {
		return agent.GridCell{}, false
	}
	cur := a.ExplorationFrontier[0]
	a.ExplorationFrontier = a.ExplorationFrontier[1:]
	curCell := toCell(cur)

	for _, n := range g.Neighbors(curCell) {
		gc := fromCell(n)
		if a.ExplorationVisited[gc] {
			continue
		}
		a.ExplorationVisited[gc] = true
		a.ExplorationParents[gc] = cur
		a.ExplorationCost[gc] = a.ExplorationCost[cur] + moveCost(curCell, n)
		a.ExplorationFrontier = append(a.ExplorationFrontier, gc)
	}

	return cur, cur == goal
}

// ReconstructExplorationPath walks ExplorationParents back from goal to the
// exploration's start cell, returning the path in start-to-goal order.
func ReconstructExplorationPath(a *agent.Agent, goal agent.GridCell) []agent.GridCell {
	path := []agent.GridCell{goal}
	cur := goal
	for {
		parent, ok := a.ExplorationParents[cur]
		if !ok {
			break
		}
		path = append(path, parent)
		cur = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// MeetingTable is the shared visited-cell record two bidirectional
// exploration agents consult each step to detect when their frontiers have
// touched, since neither agent can see the other's visited set directly.
type MeetingTable struct {
	fromStart map[agent.GridCell]bool
	fromGoal  map[agent.GridCell]bool
}

// NewMeetingTable builds an empty meeting table for one bidirectional
// exploration pair.
func NewMeetingTable() *MeetingTable {
	return &MeetingTable{
		fromStart: map[agent.GridCell]bool{},
		fromGoal:  map[agent.GridCell]bool{},
	}
}

// MarkFromStart records a cell visited by the agent exploring from start.
func (m *MeetingTable) MarkFromStart(c agent.GridCell) { m.fromStart[c] = true }

// MarkFromGoal records a cell visited by the agent exploring from goal.
func (m *MeetingTable) MarkFromGoal(c agent.GridCell) { m.fromGoal[c] = true }

// Met reports whether both explorations have now visited c.
func (m *MeetingTable) Met(c agent.GridCell) bool { return m.fromStart[c] && m.fromGoal[c] }
