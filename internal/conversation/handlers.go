package conversation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/sohanAi024/News-Multi-Agent/internal/ranking"
	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
	"github.com/sohanAi024/News-Multi-Agent/provider"
)

// Turn is the input to a handler.
type Turn struct {
	Text     string           // raw user text
	History  []models.Message // full history, ending with the user message
	Document string           // artifact slot, empty when nothing was exported
}

// Handler performs one action. A returned error is rendered by the engine as a failure.
type Handler interface {
	Handle(ctx context.Context, turn Turn) (Reply, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, turn Turn) (Reply, error)

func (f HandlerFunc) Handle(ctx context.Context, turn Turn) (Reply, error) { return f(ctx, turn) }

// Searcher answers a query from the corpus.
type Searcher interface {
	Search(ctx context.Context, query string) (ranking.Outcome, error)
}

// Renderer turns text into a document and returns its path.
type Renderer interface {
	Render(ctx context.Context, title, text string) (string, error)
}

// Mailer sends the document at path to recipient.
type Mailer interface {
	Send(ctx context.Context, recipient, path string) error
}

type searchHandler struct{ searcher Searcher }

func (h searchHandler) Handle(ctx context.Context, turn Turn) (Reply, error) {
	out, err := h.searcher.Search(ctx, turn.Text)
	if err != nil {
		return Reply{}, err
	}
	switch out.Kind {
	case ranking.OutcomeNoCandidates:
		return warn(ReasonNoResults, out.Message()), nil
	case ranking.OutcomeNoRelevant:
		return warn(ReasonNoRelevant, out.Message()), nil
	}
	return ok(out.Message()), nil
}

const summarizePrompt = "Summarize the key points from these news articles. " +
	"Keep the original article structure but make each summary concise. " +
	"Include the source URLs. Format as:\n\n" +
	"📰 [Concise Title]\n" +
	"🔗 [URL]\n" +
	"📅 [Date]\n" +
	"[Bullet point summary]\n\n" +
	"Original articles:\n%s"

type summarizeHandler struct{ llm provider.Completer }

func (h summarizeHandler) Handle(ctx context.Context, turn Turn) (Reply, error) {
	news, found := LastNewsMessage(turn.History)
	if !found {
		return warn(ReasonNoNews, "No news content found to summarize. Please search for news first."), nil
	}
	summary, err := h.llm.Complete(ctx, fmt.Sprintf(summarizePrompt, news), provider.CompleteOptions{})
	if err != nil {
		return Reply{}, err
	}
	return ok(summary), nil
}

type exportHandler struct {
	renderer Renderer
	title    string
}

func (h exportHandler) Handle(ctx context.Context, turn Turn) (Reply, error) {
	content, found := LastExportableMessage(turn.History)
	if !found {
		return warn(ReasonNoContent, "No content available to create PDF. Please search or get news first."), nil
	}
	path, err := h.renderer.Render(ctx, h.title, content)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Status:   StatusOK,
		Kind:     KindDocument,
		Text:     "PDF created successfully: " + path,
		Document: &path,
	}, nil
}

var emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)

type deliverHandler struct {
	mailer Mailer
	remove func(string) error
}

func (h deliverHandler) Handle(ctx context.Context, turn Turn) (Reply, error) {
	addr := emailPattern.FindString(turn.Text)
	if addr == "" {
		return warn(ReasonNoAddress, "Please provide a valid email address."), nil
	}
	if turn.Document == "" {
		return warn(ReasonNoDocument, "No PDF found to send. Please create a PDF first."), nil
	}

	cleared := ""
	if err := h.mailer.Send(ctx, addr, turn.Document); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) || errors.Is(err, models.ErrDocumentEmpty) {
			r := failed(ReasonDocument, err.Error())
			r.Document = &cleared
			return r, nil
		}
		return Reply{}, err
	}

	if err := h.remove(turn.Document); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.FromCtx(ctx).Warn().Err(err).Str("path", turn.Document).Msg("remove delivered document")
	}
	return Reply{
		Status:   StatusOK,
		Kind:     KindMail,
		Text:     "PDF sent successfully to " + addr,
		Document: &cleared,
	}, nil
}

const clarifyMenu = "What would you like to do next? You can:\n" +
	"• Search for news\n" +
	"• Summarize content\n" +
	"• Translate to another language\n" +
	"• Create PDF\n" +
	"• Send email"

func clarify(context.Context, Turn) (Reply, error) { return ok(clarifyMenu), nil }
