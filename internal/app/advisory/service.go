package advisory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krishisakhi/sakhi-agent/internal/app/chatlog"
	"github.com/krishisakhi/sakhi-agent/internal/domain"
	"github.com/krishisakhi/sakhi-agent/internal/observability"
)

// Composer builds the opaque model request for one turn. Text and image
// modes are mutually exclusive on the presence of image.
type Composer interface {
	Compose(convCtx domain.ConversationContext, history []*domain.Message, question string, image *domain.ImageAttachment) domain.ModelRequest
}

// ModelInvoker calls the generative model with its retry policy applied.
type ModelInvoker interface {
	Invoke(ctx context.Context, req domain.ModelRequest) (string, error)
}

// Voice triggers spoken playback of an advisor message. Implemented by
// the speech coordinator; nil when the host has no speech hardware.
type Voice interface {
	Speak(id domain.MessageID, text string, lang domain.Language) error
}

// Service orchestrates one advisory turn: escalation pre-filter, context
// assembly, model invocation, proactive-update handling and log appends.
type Service struct {
	plots    domain.PlotStore
	profiles domain.ProfileStore
	log      *chatlog.Synchronizer
	builder  *ContextBuilder
	composer Composer
	invoker  ModelInvoker
	voice    Voice
	now      func() time.Time
}

func NewService(
	plots domain.PlotStore,
	profiles domain.ProfileStore,
	log *chatlog.Synchronizer,
	builder *ContextBuilder,
	composer Composer,
	invoker ModelInvoker,
	voice Voice,
) *Service {
	return &Service{
		plots:    plots,
		profiles: profiles,
		log:      log,
		builder:  builder,
		composer: composer,
		invoker:  invoker,
		voice:    voice,
		now:      time.Now,
	}
}

type SendInput struct {
	UserID domain.UserID
	PlotID domain.PlotID
	Text   string
	Image  *domain.ImageAttachment
}

type SendOutput struct {
	UserMessage *domain.Message
	Replies     []*domain.Message
	Escalated   bool
}

// Send runs one conversation turn. The farmer's message is persisted
// before anything else, so a later failure only ever affects the
// advisor's turn, never the farmer's own record. All appends are keyed
// by the plot id captured here, not whatever plot is active later.
func (s *Service) Send(ctx context.Context, in SendInput) (*SendOutput, error) {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", in.UserID,
		"plot_id", in.PlotID,
	)
	log.Info("advisory turn started", "has_image", in.Image != nil)

	profile, err := s.profiles.GetProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	plot, err := s.plots.GetPlot(ctx, in.UserID, in.PlotID)
	if err != nil {
		return nil, err
	}

	userMsg := &domain.Message{
		UserID:    in.UserID,
		PlotID:    in.PlotID,
		Author:    domain.RoleFarmer,
		Text:      in.Text,
		CreatedAt: s.now(),
	}
	if in.Image != nil {
		userMsg.ImageURL = in.Image.URL
	}
	userMsg, err = s.log.Append(ctx, userMsg)
	if err != nil {
		log.Error("failed to persist farmer message", "error", err)
		return nil, err
	}

	out := &SendOutput{UserMessage: userMsg}

	if ShouldEscalate(in.Text, in.Image != nil) {
		log.Info("escalating to human helpline")
		referral, err := s.appendAdvisor(ctx, in, ReferralMessage)
		if err != nil {
			return nil, err
		}
		s.speak(ctx, referral, profile.Language)
		out.Replies = []*domain.Message{referral}
		out.Escalated = true
		return out, nil
	}

	convCtx := s.builder.Build(*profile, plot)
	history, err := s.log.History(ctx, in.UserID, in.PlotID)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}

	req := s.composer.Compose(convCtx, history, in.Text, in.Image)
	reply, err := s.invoker.Invoke(ctx, req)
	if err != nil {
		// the log must still reflect what happened
		log.Error("model invocation failed", "error", err)
		if failMsg, aerr := s.appendAdvisor(ctx, in, failureText(err)); aerr == nil {
			s.speak(ctx, failMsg, profile.Language)
		}
		return nil, err
	}

	replies, err := s.deliverReply(ctx, in, profile.Language, reply)
	if err != nil {
		return nil, err
	}
	out.Replies = replies

	log.Info("advisory turn completed", "replies", len(replies))
	return out, nil
}

// deliverReply splits the raw model output on the proactive-update marker
// and appends the resulting advisor message(s): the display text is
// voiced; the update offer never is.
func (s *Service) deliverReply(ctx context.Context, in SendInput, lang domain.Language, reply string) ([]*domain.Message, error) {
	displayText, proposedCrop, found := ParseProactiveUpdate(reply)
	if !found {
		msg, err := s.appendAdvisor(ctx, in, reply)
		if err != nil {
			return nil, err
		}
		s.speak(ctx, msg, lang)
		return []*domain.Message{msg}, nil
	}

	var replies []*domain.Message
	if displayText != "" {
		msg, err := s.appendAdvisor(ctx, in, displayText)
		if err != nil {
			return nil, err
		}
		s.speak(ctx, msg, lang)
		replies = append(replies, msg)
	}

	offer, err := s.log.Append(ctx, &domain.Message{
		UserID:           in.UserID,
		PlotID:           in.PlotID,
		Author:           domain.RoleAdvisor,
		Text:             fmt.Sprintf("Shall I update your plot details to show you are growing %s?", proposedCrop),
		CreatedAt:        s.now(),
		UpdateSuggestion: true,
		Crop:             proposedCrop,
	})
	if err != nil {
		return nil, err
	}
	return append(replies, offer), nil
}

// AcceptUpdate resolves a pending update offer: it sets the plot's crop
// and appends the confirmation message.
func (s *Service) AcceptUpdate(ctx context.Context, userID domain.UserID, plotID domain.PlotID, crop string) (*domain.Message, error) {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", userID,
		"plot_id", plotID,
		"crop", crop,
	)

	if err := s.plots.SetCrop(ctx, userID, plotID, crop); err != nil {
		log.Error("failed to update crop", "error", err)
		return nil, err
	}

	confirmation, err := s.log.Append(ctx, &domain.Message{
		UserID:    userID,
		PlotID:    plotID,
		Author:    domain.RoleAdvisor,
		Text:      fmt.Sprintf("Ok, I've updated your plot to show you are growing %s. What's our next step?", crop),
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	log.Info("crop update accepted")
	return confirmation, nil
}

type TurnInput struct {
	Profile domain.UserProfile
	Plot    *domain.Plot
	History []*domain.Message
	Text    string
	Image   *domain.ImageAttachment
}

// Advise runs a stateless advisory turn against caller-supplied history,
// without touching any store. The escalation short-circuit applies here
// too and costs zero model invocations.
func (s *Service) Advise(ctx context.Context, in TurnInput) (string, error) {
	if ShouldEscalate(in.Text, in.Image != nil) {
		return ReferralMessage, nil
	}

	convCtx := s.builder.Build(in.Profile, in.Plot)
	req := s.composer.Compose(convCtx, in.History, in.Text, in.Image)
	return s.invoker.Invoke(ctx, req)
}

func (s *Service) appendAdvisor(ctx context.Context, in SendInput, text string) (*domain.Message, error) {
	return s.log.Append(ctx, &domain.Message{
		UserID:    in.UserID,
		PlotID:    in.PlotID,
		Author:    domain.RoleAdvisor,
		Text:      text,
		CreatedAt: s.now(),
	})
}

func (s *Service) speak(ctx context.Context, msg *domain.Message, lang domain.Language) {
	if s.voice == nil {
		return
	}
	if err := s.voice.Speak(msg.ID, msg.Text, lang); err != nil {
		// speech failures stay out of the conversation flow
		observability.LoggerFromContext(ctx).Warn("voice playback failed",
			"message_id", msg.ID, "error", err)
	}
}

// failureText maps an invocation error to the advisor message recorded in
// the log, so the conversation reflects the failure.
func failureText(err error) string {
	if errors.Is(err, domain.ErrModelUnavailable) {
		return BusyMessage
	}
	return "Sorry, an error occurred: failed to get a response from the AI. Please check your connection."
}

// BusyMessage is shown when the model stays overloaded after all retries.
const BusyMessage = "Krishi Sakhi is currently helping many farmers and is very busy. " +
	"Please try sending your message again in a moment."
