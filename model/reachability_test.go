package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckReachability(t *testing.T) {
	assert := assert.New(t)

	t.Run("pizza order", func(t *testing.T) {
		warnings := CheckReachability(mustBuild(t, PizzaOrderDescription()))

		assert.Equal([]Warning{
			{Pointer: "PizzaOrderProcess/Task_OrderPizza", Detail: "flow node Task_OrderPizza has no outgoing sequence flow"},
			{Pointer: "PizzaOrderProcess/EndEvent_1", Detail: "flow node EndEvent_1 is not reachable from a start event"},
		}, warnings)

		assert.Equal("PizzaOrderProcess/EndEvent_1: flow node EndEvent_1 is not reachable from a start event", warnings[1].String())
	})

	t.Run("order fulfillment", func(t *testing.T) {
		warnings := CheckReachability(mustBuild(t, mustReadDescription(t, "order-fulfillment.yaml")))
		assert.Empty(warnings)
	})

	t.Run("process without start event", func(t *testing.T) {
		description := Description{
			TargetNamespace: "http://example.com",
			Processes:       []ProcessSpec{{Id: "process"}},
			Nodes: []NodeSpec{
				{Type: "TASK", Id: "task"},
				{Type: "END_EVENT", Id: "endEvent"},
			},
			Edges: []EdgeSpec{{Id: "flow", Source: "task", Target: "endEvent"}},
		}

		warnings := CheckReachability(mustBuild(t, description))

		assert.Equal([]Warning{
			{Pointer: "process/task", Detail: "flow node task is not reachable from a start event"},
			{Pointer: "process/endEvent", Detail: "flow node endEvent is not reachable from a start event"},
		}, warnings)
	})
}
