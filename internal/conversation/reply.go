package conversation

import "fmt"

// Status classifies a handler result.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "warning"
	case StatusFailed:
		return "failed"
	}
	return "ok"
}

// Reason names why a handler could not do its job.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNoNews     Reason = "no_news"     // no news-shaped message in history
	ReasonNoContent  Reason = "no_content"  // no exportable message in history
	ReasonNoDocument Reason = "no_document" // artifact slot empty
	ReasonNoAddress  Reason = "no_address"  // no email address in the user text
	ReasonNoResults  Reason = "no_results"  // corpus returned nothing
	ReasonNoRelevant Reason = "no_relevant" // everything failed the domain filter
	ReasonDocument   Reason = "document"    // artifact missing or empty on disk
	ReasonUpstream   Reason = "upstream"    // external call failed
)

// Status markers that prefix rendered replies.
const (
	MarkerWarning  = "❗"
	MarkerError    = "❌"
	MarkerDocument = "📄"
	MarkerMail     = "📧"
	MarkerNews     = "📰"
	MarkerLink     = "🔗"
)

// Kind tags successful replies that carry their own marker.
type Kind int

const (
	KindText Kind = iota
	KindDocument
	KindMail
)

// Reply is the result of one handler invocation. It only becomes text in Render.
type Reply struct {
	Status Status
	Reason Reason
	Kind   Kind
	Text   string
	// Document, when non-nil, replaces the session's artifact slot ("" clears it).
	Document *string
}

func ok(text string) Reply { return Reply{Status: StatusOK, Text: text} }

func warn(reason Reason, text string) Reply {
	return Reply{Status: StatusWarning, Reason: reason, Text: text}
}

func failed(reason Reason, text string) Reply {
	return Reply{Status: StatusFailed, Reason: reason, Text: text}
}

// errorReply is what the engine stores when a handler errors or panics.
func errorReply(err error) Reply {
	return Reply{Status: StatusFailed, Reason: ReasonUpstream, Text: fmt.Sprintf("Error: %v", err)}
}

// Render converts the reply to the user-visible message.
func (r Reply) Render() string {
	switch r.Status {
	case StatusWarning:
		return MarkerWarning + " " + r.Text
	case StatusFailed:
		return MarkerError + " " + r.Text
	}
	switch r.Kind {
	case KindDocument:
		return MarkerDocument + " " + r.Text
	case KindMail:
		return MarkerMail + " " + r.Text
	}
	return r.Text
}
