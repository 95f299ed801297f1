package llm

import (
	"fmt"
	"strings"

	"github.com/krishisakhi/sakhi-agent/internal/app/advisory"
	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

const textPromptTemplate = `You are "Krishi Sakhi," a friendly, confident, and expert female agricultural advisor for farmers in India.

**CURRENT DATE:** %s.

**CRITICAL RULES:**
1.  **FORMATTING:** Do NOT use markdown. Use plain text only. Do not use asterisks (*). Use numbered lists (e.g., '1. First step', '2. Second step') for instructions.
2.  **BE TIMELY:** ALL crop suggestions MUST be seasonally appropriate for the CURRENT DATE and location.
3.  **BE CONCISE:** Keep answers short and direct.
4.  **PROACTIVE PROFILE UPDATE:** If the farmer decides to grow a crop (e.g., "I will grow Bajra"), END your response with this EXACT phrase: "%s [Crop Name]".
5.  **BE THE EXPERT:** Provide direct, actionable advice. NEVER say "consult a local expert" unless the query is about a severe, unidentifiable disease or legal/subsidy issue.
6.  **LANGUAGE:** You MUST respond in %s.

**FARMER'S CONTEXT:**
%s
- Crop Stage: %s

**REAL-TIME DATA for today:**
- Weather: %s
- Alert: %s

**CONVERSATION HISTORY:**
%s
---
Based on all context, provide a clear, concise, actionable answer in %s to the farmer's latest message.`

const imagePromptTemplate = `You are "Krishi Sakhi," an expert female plant pathologist. Your task is to analyze an image from a farmer in India.

**CRITICAL RULES:**
1.  **FORMATTING:** Do NOT use markdown. Use plain text only. Do not use asterisks (*). Use numbered lists (e.g., '1. First step', '2. Second step') for instructions.
2.  **Analyze Image First:** Identify what is in the image (e.g., a leaf, a pest). Look for signs of disease, deficiency, or damage.
3.  **Use Context & Check for Mismatch:** Compare the plant in the image to the farmer's crop ('%s'). If they don't match, you MUST ask for clarification.
4.  **Provide Actionable Steps:** Give a clear, step-by-step solution in a numbered list.
5.  **LANGUAGE:** You MUST respond in %s.

**FARMER'S CONTEXT:**
%s

Based on your analysis, answer the farmer's question: "%s"`

// Composer builds model requests for the two advisory modes. It never
// touches the network; the output is consumed by the invoker.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Compose selects image or text mode on the presence of an attachment.
func (c *Composer) Compose(convCtx domain.ConversationContext, history []*domain.Message, question string, image *domain.ImageAttachment) domain.ModelRequest {
	if image != nil {
		return c.composeImage(convCtx, question, image)
	}
	return c.composeText(convCtx, history)
}

func (c *Composer) composeText(convCtx domain.ConversationContext, history []*domain.Message) domain.ModelRequest {
	lang := convCtx.Profile.Language.DisplayName()
	system := fmt.Sprintf(textPromptTemplate,
		convCtx.Today.Format("Mon Jan 02 2006"),
		advisory.ProactiveUpdateMarker,
		lang,
		contextBlock(convCtx),
		convCtx.CropStage,
		convCtx.Weather,
		convCtx.Alert,
		historyBlock(history),
		lang,
	)
	return domain.ModelRequest{System: system}
}

func (c *Composer) composeImage(convCtx domain.ConversationContext, question string, image *domain.ImageAttachment) domain.ModelRequest {
	crop := "Not Selected"
	if convCtx.Plot.HasCrop() {
		crop = convCtx.Plot.Crop
	}
	system := fmt.Sprintf(imagePromptTemplate,
		crop,
		convCtx.Profile.Language.DisplayName(),
		contextBlock(convCtx),
		question,
	)
	return domain.ModelRequest{System: system, Image: image}
}

// contextBlock renders the farmer's grounding data. Unset plot fields
// are spelled out as absent rather than defaulted.
func contextBlock(convCtx domain.ConversationContext) string {
	plot := convCtx.Plot

	field := func(v, absent string) string {
		if v == "" {
			return absent
		}
		return v
	}

	var location, landSize, irrigation, soilType, soilPH, n, p, k string
	crop := "Not Selected"
	sowing := "N/A"
	if plot != nil {
		location = plot.Location
		landSize = plot.LandSize
		irrigation = plot.IrrigationSource
		soilType = plot.SoilType
		soilPH = plot.SoilPH
		n, p, k = plot.Nitrogen, plot.Phosphorus, plot.Potassium
		if plot.HasCrop() {
			crop = plot.Crop
		}
		if plot.SowingDate != nil {
			sowing = plot.SowingDate.Format("2006-01-02")
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Name: %s\n", convCtx.Profile.Name)
	fmt.Fprintf(&b, "- Location: %s\n", field(location, "N/A"))
	fmt.Fprintf(&b, "- Land Size: %s\n", field(landSize, "Not specified"))
	fmt.Fprintf(&b, "- Irrigation: %s\n", field(irrigation, "Not specified"))
	fmt.Fprintf(&b, "- Soil Type: %s\n", field(soilType, "Not specified"))
	fmt.Fprintf(&b, "- Soil pH: %s\n", field(soilPH, "Not specified"))
	fmt.Fprintf(&b, "- NPK Values (N, P, K in kg/ha): %s, %s, %s\n", field(n, "N/A"), field(p, "N/A"), field(k, "N/A"))
	fmt.Fprintf(&b, "- Current Crop: %s\n", crop)
	fmt.Fprintf(&b, "- Sowing Date: %s\n", sowing)
	fmt.Fprintf(&b, "- PLOT HISTORY: %s", convCtx.HistoryNote)
	return b.String()
}

// historyBlock renders the prior conversation, role-tagged, verbatim.
func historyBlock(history []*domain.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		role := "Krishi Sakhi"
		if m.Author == domain.RoleFarmer {
			role = "Farmer"
		}
		lines = append(lines, role+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}
