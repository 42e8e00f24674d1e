package model

import "fmt"

// Warning indicates a modeling gap, which does not prevent a model from being serialized.
type Warning struct {
	Pointer string // A pointer, locating the flow node - e.g. PizzaOrderProcess/Task_OrderPizza.
	Detail  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Pointer, w.Detail)
}

// CheckReachability reports flow nodes, which cannot be reached from any start event,
// and flow nodes other than end events without outgoing sequence flow.
func CheckReachability(definitions *Definitions) []Warning {
	var warnings []Warning

	for _, process := range definitions.Processes() {
		outgoing := make(map[string][]string)
		for _, sequenceFlow := range process.SequenceFlows() {
			outgoing[sequenceFlow.SourceRef] = append(outgoing[sequenceFlow.SourceRef], sequenceFlow.TargetRef)
		}

		flowNodes := process.FlowNodes()

		reached := make(map[string]bool, len(flowNodes))

		var queue []string
		for _, flowNode := range flowNodes {
			if flowNode.Type().IsStartEvent() {
				reached[flowNode.Id] = true
				queue = append(queue, flowNode.Id)
			}
		}

		for len(queue) != 0 {
			id := queue[0]
			queue = queue[1:]

			for _, targetId := range outgoing[id] {
				if !reached[targetId] {
					reached[targetId] = true
					queue = append(queue, targetId)
				}
			}
		}

		for _, flowNode := range flowNodes {
			pointer := pointerOf(process.Id, flowNode.Id)
			if !reached[flowNode.Id] {
				warnings = append(warnings, Warning{
					Pointer: pointer,
					Detail:  fmt.Sprintf("flow node %s is not reachable from a start event", flowNode.Id),
				})
			}
			if flowNode.Type() != ElementEndEvent && len(outgoing[flowNode.Id]) == 0 {
				warnings = append(warnings, Warning{
					Pointer: pointer,
					Detail:  fmt.Sprintf("flow node %s has no outgoing sequence flow", flowNode.Id),
				})
			}
		}
	}

	return warnings
}
