package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce_TextFlow(t *testing.T) {
	v := Reduce(View{}, Submitted{Question: "¿Qué es el PIB?"})
	assert.Equal(t, ViewLoading, v.Kind)

	v = Reduce(v, ReplyReceived{Reply: Reply{Kind: ReplyText, Text: "Hola"}})
	assert.Equal(t, ViewText, v.Kind)
	assert.Equal(t, "Hola", v.Text)
	assert.Nil(t, v.Chart)
	assert.Equal(t, RecommendationPending, v.RecommendationState)

	v = Reduce(v, RecommendationDone{Text: "Hazlo"})
	assert.Equal(t, RecommendationReady, v.RecommendationState)
	assert.Equal(t, "Hazlo", v.Recommendation)
	assert.Equal(t, "¿Qué es el PIB?", v.Question)
	assert.True(t, v.Savable())
}

func TestReduce_ChartClearsText(t *testing.T) {
	v := View{Kind: ViewText, Question: "old", Text: "old answer", Recommendation: "old rec"}

	v = Reduce(v, Submitted{Question: "new"})
	v = Reduce(v, ReplyReceived{Reply: Reply{Kind: ReplyChart, Chart: &Chart{Type: ChartBar, Title: "T"}}})

	assert.Equal(t, ViewChart, v.Kind)
	assert.Empty(t, v.Text)
	assert.Empty(t, v.Recommendation)
	assert.Equal(t, RecommendationNone, v.RecommendationState)
	assert.Equal(t, "T", v.Chart.Title)
}

func TestReduce_Failures(t *testing.T) {
	loading := Reduce(View{}, Submitted{Question: "q"})

	v := Reduce(loading, ReplyMalformed{Err: ErrMalformedReply})
	assert.Equal(t, ViewFailed, v.Kind)
	assert.Equal(t, FailureMalformed, v.Failure)
	assert.Empty(t, v.Text)
	assert.Nil(t, v.Chart)
	assert.False(t, v.Savable())

	v = Reduce(loading, TransportFailed{Err: errors.New("503")})
	assert.Equal(t, FailureTransport, v.Failure)

	v = Reduce(loading, TransportFailed{Err: ErrNoClearResponse})
	assert.Equal(t, FailureNoAnswer, v.Failure)
}

func TestReduce_RecommendationFailureKeepsAnswer(t *testing.T) {
	v := Reduce(View{}, Submitted{Question: "q"})
	v = Reduce(v, ReplyReceived{Reply: Reply{Kind: ReplyText, Text: "answer"}})
	v = Reduce(v, RecommendationFailed{Err: errors.New("boom")})

	assert.Equal(t, ViewText, v.Kind)
	assert.Equal(t, "answer", v.Text)
	assert.Equal(t, RecommendationErrored, v.RecommendationState)
	assert.Empty(t, v.Recommendation)
}

func TestReduce_IgnoresEventsOutOfPlace(t *testing.T) {
	idle := View{}
	assert.Equal(t, idle, Reduce(idle, ReplyReceived{Reply: Reply{Kind: ReplyText, Text: "x"}}))
	assert.Equal(t, idle, Reduce(idle, RecommendationDone{Text: "x"}))
	assert.Equal(t, idle, Reduce(idle, QuotaWriteFailed{}))

	chart := View{Kind: ViewChart, Question: "q", Chart: &Chart{}}
	assert.Equal(t, chart, Reduce(chart, RecommendationDone{Text: "x"}))
	assert.Equal(t, chart, Reduce(chart, TransportFailed{Err: errors.New("late")}))
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	v := Reduce(View{}, Submitted{Question: "q"})
	v = Reduce(v, ReplyReceived{Reply: Reply{Kind: ReplyText, Text: "answer"}})
	before := v

	_ = Reduce(v, RecommendationDone{Text: "rec"})
	_ = Reduce(v, QuotaWriteFailed{})

	assert.Equal(t, before, v)
}

func TestView_SavableNeedsQuestion(t *testing.T) {
	assert.False(t, View{Kind: ViewText, Question: "  ", Text: "x"}.Savable())
	assert.False(t, View{Kind: ViewLoading, Question: "q"}.Savable())
	assert.True(t, View{Kind: ViewChart, Question: "q", Chart: &Chart{}}.Savable())
}
