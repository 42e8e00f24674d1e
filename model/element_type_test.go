package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementType(t *testing.T) {
	assert := assert.New(t)

	for elementType := ElementBusinessRuleTask; elementType <= ElementUserTask; elementType++ {
		assert.Equal(elementType, MapElementType(elementType.String()), elementType.String())

		if elementType != ElementTimerStartEvent {
			assert.Equal(elementType, MapElementType(elementType.localName()), elementType.localName())
		}
	}

	assert.Equal(ElementType(0), MapElementType(""))
	assert.Equal(ElementType(0), MapElementType("subProcess"))
	assert.Equal(ElementType(0), MapElementType("start_event"))

	t.Run("timer start event is serialized as start event", func(t *testing.T) {
		assert.Equal("startEvent", ElementTimerStartEvent.localName())
		assert.True(ElementTimerStartEvent.IsStartEvent())
		assert.True(ElementTimerStartEvent.IsFlowNode())
	})

	t.Run("JSON", func(t *testing.T) {
		b, err := json.Marshal(ElementServiceTask)
		assert.NoError(err)
		assert.Equal(`"SERVICE_TASK"`, string(b))

		var elementType ElementType
		assert.NoError(json.Unmarshal([]byte(`"serviceTask"`), &elementType))
		assert.Equal(ElementServiceTask, elementType)

		elementType = 0
		assert.Error(json.Unmarshal([]byte(`"SUB_PROCESS"`), &elementType))
	})

	assert.False(ElementLane.IsFlowNode())
	assert.False(ElementSequenceFlow.IsFlowNode())
}
