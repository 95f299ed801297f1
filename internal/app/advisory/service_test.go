package advisory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisakhi/sakhi-agent/internal/adapters/signals"
	"github.com/krishisakhi/sakhi-agent/internal/adapters/storage/memory"
	"github.com/krishisakhi/sakhi-agent/internal/app/advisory"
	"github.com/krishisakhi/sakhi-agent/internal/app/chatlog"
	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

type fakeComposer struct {
	lastHistory []*domain.Message
}

func (c *fakeComposer) Compose(convCtx domain.ConversationContext, history []*domain.Message, question string, image *domain.ImageAttachment) domain.ModelRequest {
	c.lastHistory = history
	return domain.ModelRequest{System: question, Image: image}
}

type fakeInvoker struct {
	calls int
	reply string
	err   error
}

func (f *fakeInvoker) Invoke(ctx context.Context, req domain.ModelRequest) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeVoice struct {
	spoken []string
}

func (v *fakeVoice) Speak(id domain.MessageID, text string, lang domain.Language) error {
	v.spoken = append(v.spoken, text)
	return nil
}

type testHarness struct {
	svc      *advisory.Service
	plots    *memory.PlotStore
	messages *memory.MessageStore
	invoker  *fakeInvoker
	voice    *fakeVoice
}

func newHarness(t *testing.T, invoker *fakeInvoker) *testHarness {
	t.Helper()

	plots := memory.NewPlotStore()
	profiles := memory.NewProfileStore()
	messages := memory.NewMessageStore()

	profiles.PutProfile(&domain.UserProfile{ID: "u1", Name: "Ramesh", Language: domain.LanguageEnglish})

	sowing := time.Now().AddDate(0, 0, -20)
	require.NoError(t, plots.SavePlot(context.Background(), &domain.Plot{
		ID:         "p1",
		UserID:     "u1",
		Name:       "North Field",
		Location:   "Jaipur, Rajasthan",
		Crop:       "Bajra",
		SowingDate: &sowing,
	}))

	voice := &fakeVoice{}
	svc := advisory.NewService(
		plots,
		profiles,
		chatlog.New(messages),
		advisory.NewContextBuilder(signals.NewStaticHistory(), signals.NewStaticSource()),
		&fakeComposer{},
		invoker,
		voice,
	)
	return &testHarness{svc: svc, plots: plots, messages: messages, invoker: invoker, voice: voice}
}

func (h *testHarness) logTexts(t *testing.T) []string {
	t.Helper()
	msgs, err := h.messages.ListMessages(context.Background(), "u1", "p1")
	require.NoError(t, err)
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestSendPlainReply(t *testing.T) {
	h := newHarness(t, &fakeInvoker{reply: "Water the field in the evening."})

	out, err := h.svc.Send(context.Background(), advisory.SendInput{
		UserID: "u1", PlotID: "p1", Text: "When should I irrigate?",
	})
	require.NoError(t, err)

	assert.False(t, out.Escalated)
	require.Len(t, out.Replies, 1)
	assert.Equal(t, "Water the field in the evening.", out.Replies[0].Text)
	assert.Equal(t, domain.RoleAdvisor, out.Replies[0].Author)
	assert.Equal(t, 1, h.invoker.calls)

	assert.Equal(t, []string{"When should I irrigate?", "Water the field in the evening."}, h.logTexts(t))
	assert.Equal(t, []string{"Water the field in the evening."}, h.voice.spoken)
}

func TestSendEscalatesWithoutInvoking(t *testing.T) {
	h := newHarness(t, &fakeInvoker{reply: "should never be seen"})

	out, err := h.svc.Send(context.Background(), advisory.SendInput{
		UserID: "u1", PlotID: "p1", Text: "My crop is dying, what do I do?",
	})
	require.NoError(t, err)

	assert.True(t, out.Escalated)
	require.Len(t, out.Replies, 1)
	assert.Equal(t, advisory.ReferralMessage, out.Replies[0].Text)
	assert.Zero(t, h.invoker.calls, "escalated turns must not reach the model")
	assert.Equal(t, []string{advisory.ReferralMessage}, h.voice.spoken)
}

func TestSendWithImageSkipsEscalation(t *testing.T) {
	h := newHarness(t, &fakeInvoker{reply: "That looks like a fungal infection."})

	out, err := h.svc.Send(context.Background(), advisory.SendInput{
		UserID: "u1", PlotID: "p1",
		Text:  "Is my crop dying? See the photo.",
		Image: &domain.ImageAttachment{Data: []byte{0x1}, MIMEType: "image/jpeg"},
	})
	require.NoError(t, err)

	assert.False(t, out.Escalated)
	assert.Equal(t, 1, h.invoker.calls)
}

func TestSendProactiveUpdate(t *testing.T) {
	h := newHarness(t, &fakeInvoker{
		reply: "Great, plant Bajra now.\nPROACTIVE_UPDATE_SUGGESTION: Moong",
	})

	out, err := h.svc.Send(context.Background(), advisory.SendInput{
		UserID: "u1", PlotID: "p1", Text: "What should I plant next?",
	})
	require.NoError(t, err)

	require.Len(t, out.Replies, 2)
	display, offer := out.Replies[0], out.Replies[1]

	assert.Equal(t, "Great, plant Bajra now.", display.Text)
	assert.False(t, display.UpdateSuggestion)

	assert.True(t, offer.UpdateSuggestion)
	assert.Equal(t, "Moong", offer.Crop)
	assert.Equal(t, "Shall I update your plot details to show you are growing Moong?", offer.Text)

	// only the display text is voiced, never the offer
	assert.Equal(t, []string{"Great, plant Bajra now."}, h.voice.spoken)
}

func TestAcceptUpdate(t *testing.T) {
	h := newHarness(t, &fakeInvoker{})

	confirmation, err := h.svc.AcceptUpdate(context.Background(), "u1", "p1", "Moong")
	require.NoError(t, err)
	assert.Equal(t, "Ok, I've updated your plot to show you are growing Moong. What's our next step?", confirmation.Text)

	plot, err := h.plots.GetPlot(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Moong", plot.Crop)
}

func TestSendModelUnavailable(t *testing.T) {
	h := newHarness(t, &fakeInvoker{err: domain.ErrModelUnavailable})

	_, err := h.svc.Send(context.Background(), advisory.SendInput{
		UserID: "u1", PlotID: "p1", Text: "When should I irrigate?",
	})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)

	// the farmer's message and the busy notice both land in the log
	assert.Equal(t, []string{"When should I irrigate?", advisory.BusyMessage}, h.logTexts(t))
	assert.Equal(t, []string{advisory.BusyMessage}, h.voice.spoken)
}

func TestSendUnknownPlot(t *testing.T) {
	h := newHarness(t, &fakeInvoker{reply: "unused"})

	_, err := h.svc.Send(context.Background(), advisory.SendInput{
		UserID: "u1", PlotID: "nope", Text: "hello",
	})
	assert.ErrorIs(t, err, domain.ErrPlotNotFound)
	assert.Zero(t, h.invoker.calls)
}

func TestAdvise(t *testing.T) {
	h := newHarness(t, &fakeInvoker{reply: "Sow after the first rain."})

	reply, err := h.svc.Advise(context.Background(), advisory.TurnInput{
		Profile: domain.UserProfile{Name: "Ramesh", Language: domain.LanguageEnglish},
		Plot:    &domain.Plot{Name: "North Field", Location: "Jaipur"},
		History: []*domain.Message{{Author: domain.RoleFarmer, Text: "hello"}},
		Text:    "When do I sow bajra?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sow after the first rain.", reply)
	assert.Equal(t, 1, h.invoker.calls)

	referral, err := h.svc.Advise(context.Background(), advisory.TurnInput{
		Profile: domain.UserProfile{Name: "Ramesh"},
		Text:    "I need help with a subsidy application",
	})
	require.NoError(t, err)
	assert.Equal(t, advisory.ReferralMessage, referral)
	assert.Equal(t, 1, h.invoker.calls, "escalation answers locally")
}
