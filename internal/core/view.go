package core

import (
	"errors"
	"strings"
)

type ViewKind string

const (
	ViewIdle    ViewKind = "idle"
	ViewLoading ViewKind = "loading"
	ViewText    ViewKind = "text"
	ViewChart   ViewKind = "chart"
	ViewFailed  ViewKind = "failed"
)

// Failure says why a submission ended in ViewFailed.
type Failure string

const (
	FailureMalformed Failure = "malformed"
	FailureNoAnswer  Failure = "no_answer"
	FailureTransport Failure = "transport"
)

type RecommendationState string

const (
	RecommendationNone    RecommendationState = ""
	RecommendationPending RecommendationState = "pending"
	RecommendationReady   RecommendationState = "ready"
	RecommendationErrored RecommendationState = "failed"
)

// View is the display state of one user's current query; a user with no
// query sees ViewIdle. Views are values: Reduce returns a new one and never mutates its
// argument, and only the fields belonging to Kind are ever set.
type View struct {
	Kind     ViewKind
	Question string

	Text                string
	Recommendation      string
	RecommendationState RecommendationState

	Chart *Chart

	Failure Failure
	Detail  string

	// QuotaNotRecorded is set when the answer arrived but the daily
	// counter could not be written.
	QuotaNotRecorded bool
}

type Event interface{ isEvent() }

type (
	Submitted            struct{ Question string }
	ReplyReceived        struct{ Reply Reply }
	ReplyMalformed       struct{ Err error }
	TransportFailed      struct{ Err error }
	QuotaWriteFailed     struct{}
	RecommendationDone   struct{ Text string }
	RecommendationFailed struct{ Err error }
)

func (Submitted) isEvent()            {}
func (ReplyReceived) isEvent()        {}
func (ReplyMalformed) isEvent()       {}
func (TransportFailed) isEvent()      {}
func (QuotaWriteFailed) isEvent()     {}
func (RecommendationDone) isEvent()   {}
func (RecommendationFailed) isEvent() {}

// Reduce applies e to v. Events that do not fit the current kind leave v
// unchanged.
func Reduce(v View, e Event) View {
	switch e := e.(type) {
	case Submitted:
		return View{Kind: ViewLoading, Question: e.Question}

	case ReplyReceived:
		if v.Kind != ViewLoading {
			return v
		}
		switch e.Reply.Kind {
		case ReplyText:
			return View{
				Kind:                ViewText,
				Question:            v.Question,
				Text:                e.Reply.Text,
				RecommendationState: RecommendationPending,
			}
		case ReplyChart:
			if e.Reply.Chart != nil {
				return View{Kind: ViewChart, Question: v.Question, Chart: e.Reply.Chart}
			}
		}
		return View{Kind: ViewFailed, Question: v.Question, Failure: FailureMalformed}

	case ReplyMalformed:
		if v.Kind != ViewLoading {
			return v
		}
		return View{Kind: ViewFailed, Question: v.Question, Failure: FailureMalformed, Detail: errText(e.Err)}

	case TransportFailed:
		if v.Kind != ViewLoading {
			return v
		}
		failure := FailureTransport
		if isNoAnswer(e.Err) {
			failure = FailureNoAnswer
		}
		return View{Kind: ViewFailed, Question: v.Question, Failure: failure, Detail: errText(e.Err)}

	case QuotaWriteFailed:
		if v.Kind != ViewText && v.Kind != ViewChart {
			return v
		}
		v.QuotaNotRecorded = true
		return v

	case RecommendationDone:
		if v.Kind != ViewText || v.RecommendationState != RecommendationPending {
			return v
		}
		v.Recommendation = e.Text
		v.RecommendationState = RecommendationReady
		return v

	case RecommendationFailed:
		if v.Kind != ViewText || v.RecommendationState != RecommendationPending {
			return v
		}
		v.RecommendationState = RecommendationErrored
		v.Detail = errText(e.Err)
		return v
	}
	return v
}

// Savable reports whether the view holds an answer worth persisting.
func (v View) Savable() bool {
	return strings.TrimSpace(v.Question) != "" && (v.Kind == ViewText || v.Kind == ViewChart)
}

func isNoAnswer(err error) bool {
	return errors.Is(err, ErrNoClearResponse)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
