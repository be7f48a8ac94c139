package service

import (
	"context"
	"fmt"
	"strings"

	"freightchat/internal/logger"
	"freightchat/internal/model"
	"freightchat/internal/utils"
)

// BaseSystemPrompt is sent on every AI call ahead of the turn's augmentation
const BaseSystemPrompt = `You are a dispatch assistant for a small trucking carrier. You help owner-operators and dispatchers with their loads: status, rates, brokers, documents, communications and profitability. Answer in plain, concise English. Use the data supplied below when it is present and never invent load details that are not in it.`

// questionManagementPolicy is appended to every augmentation
const questionManagementPolicy = `Question policy:
- Ask at most one clarifying question in your reply.
- Never ask permission to show information the user explicitly requested; show it.
- Prefer direct, actionable answers over questions.`

// maxContextMatches is how many search results are shown to the AI
const maxContextMatches = 5

// ContextAssembler builds the prompt material for a classified turn
type ContextAssembler struct {
	repo LoadRepository
	log  logger.Logger
}

// NewContextAssembler creates an assembler
func NewContextAssembler(repo LoadRepository, log logger.Logger) *ContextAssembler {
	return &ContextAssembler{repo: repo, log: log}
}

// Assemble builds the context bundle. dialogueContext is the text of the
// last question the assistant asked, used for acknowledgements.
func (a *ContextAssembler) Assemble(ctx context.Context, utterance string, c *model.Classification, dialogueContext string) model.ContextBundle {
	var bundle model.ContextBundle
	switch c.IntentType {
	case model.IntentSpecificEntity:
		bundle = a.specificEntity(ctx, utterance, c)
	case model.IntentEntitySearch:
		bundle = a.entitySearch(utterance, c)
	case model.IntentDomainGeneral:
		bundle = a.domainGeneral(utterance)
	case model.IntentButtonResponse:
		bundle = a.buttonResponse(utterance, dialogueContext)
	default:
		bundle = a.noContext(utterance, c.UnresolvedEntityID)
	}

	bundle.PromptAugmentation = strings.TrimSpace(bundle.PromptAugmentation) + "\n\n" + questionManagementPolicy
	return bundle
}

// SystemPrompt joins the base prompt with a bundle's augmentation
func SystemPrompt(bundle model.ContextBundle) string {
	return BaseSystemPrompt + "\n\n" + bundle.PromptAugmentation
}

func targetLoadID(c *model.Classification) (int64, bool) {
	if len(c.MatchedRecords) > 0 {
		return c.MatchedRecords[0].Record.ID, true
	}
	if c.AnchorEntityID != nil {
		return *c.AnchorEntityID, true
	}
	return 0, false
}

func (a *ContextAssembler) specificEntity(ctx context.Context, utterance string, c *model.Classification) model.ContextBundle {
	id, ok := targetLoadID(c)
	if !ok {
		return a.noContext(utterance, nil)
	}

	load, err := a.repo.FindByID(ctx, id)
	if err != nil {
		a.log.WithError(err).Warn("failed to fetch load for context", map[string]interface{}{"load_id": id})
		return a.noContext(utterance, nil)
	}
	if load == nil {
		return a.noContext(utterance, &id)
	}

	related, err := a.repo.GetRelated(ctx, id)
	if err != nil {
		a.log.WithError(err).Warn("failed to fetch related records for context", map[string]interface{}{"load_id": id})
		related = nil
	}

	var b strings.Builder
	b.WriteString("The user is asking about a specific load. Its full record is below. ")
	b.WriteString("Answer directly from this data and do not ask the user to provide it again.\n\n")
	b.WriteString(renderLoad(load, related))

	data := model.JSONMap{"load": load}
	if related != nil {
		data["related"] = related
	}

	return model.ContextBundle{
		PromptAugmentation: b.String(),
		RewrittenMessage:   fmt.Sprintf("Regarding load #%d: %s", load.ID, strings.TrimSpace(utterance)),
		ContextType:        c.IntentType.ContextType(),
		StructuredData:     data,
	}
}

func renderLoad(l *model.Load, related *model.Related) string {
	var b strings.Builder
	fmt.Fprintf(&b, "LOAD #%d\n", l.ID)
	if l.ReferenceNumber != "" {
		fmt.Fprintf(&b, "Reference: %s\n", l.ReferenceNumber)
	}
	fmt.Fprintf(&b, "Status: %s\n", utils.StatusLabel(l.Status))
	fmt.Fprintf(&b, "Broker: %s\n", l.BrokerName)
	fmt.Fprintf(&b, "Route: %s\n", l.Route())
	fmt.Fprintf(&b, "Rate: %s\n", rateLine(l))
	if l.Equipment != nil {
		fmt.Fprintf(&b, "Equipment: %s\n", *l.Equipment)
	}
	if l.Commodity != nil {
		fmt.Fprintf(&b, "Commodity: %s\n", *l.Commodity)
	}
	if l.WeightLbs != nil {
		fmt.Fprintf(&b, "Weight: %.0f lbs\n", *l.WeightLbs)
	}
	fmt.Fprintf(&b, "Pickup: %s\n", formatDate(l.PickupDate))
	fmt.Fprintf(&b, "Delivery: %s\n", formatDate(l.DeliveryDate))
	if len(l.Accessorials) > 0 {
		fmt.Fprintf(&b, "Accessorials: %s\n", strings.Join(l.Accessorials, ", "))
	}

	if related == nil {
		b.WriteString("\nRelated documents, communications and financials are currently unavailable.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nDOCUMENTS (%d):\n", len(related.Documents))
	for _, d := range related.Documents {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", d.Kind, d.Name, d.Status)
	}
	fmt.Fprintf(&b, "\nCOMMUNICATIONS (%d):\n", len(related.Communications))
	for _, c := range related.Communications {
		fmt.Fprintf(&b, "- %s %s with %s: %s\n", c.OccurredAt.Format("Jan 2 15:04"), c.Channel, c.Counterparty, c.Summary)
	}
	if f := related.Financials; f != nil {
		b.WriteString("\nFINANCIALS:\n")
		fmt.Fprintf(&b, "Revenue %s | Fuel %s | Tolls %s | Other %s | Net profit %s | Invoice %s\n",
			formatMoney(f.Revenue), formatMoney(f.FuelCost), formatMoney(f.Tolls),
			formatMoney(f.OtherExpenses), formatMoney(f.NetProfit), f.InvoiceStatus)
	} else {
		b.WriteString("\nFINANCIALS: none recorded\n")
	}
	return b.String()
}

func (a *ContextAssembler) entitySearch(utterance string, c *model.Classification) model.ContextBundle {
	top := c.MatchedRecords
	if len(top) > maxContextMatches {
		top = top[:maxContextMatches]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user's message matched %d load(s). The top %d are listed with relevance scores (0-100) and match reasons:\n\n", len(c.MatchedRecords), len(top))
	matches := make([]map[string]interface{}, 0, len(top))
	for i, r := range top {
		fmt.Fprintf(&b, "%d. %s [score %d; %s]\n", i+1, loadSummaryLine(&r.Record), r.RelevanceScore, r.MatchReason)
		matches = append(matches, map[string]interface{}{
			"load_id":         r.Record.ID,
			"relevance_score": r.RelevanceScore,
			"matched_fields":  r.MatchedFields,
			"match_reason":    r.MatchReason,
		})
	}
	b.WriteString("\nCompare across these loads when it helps answer the question. If the user probably meant one specific load, help them pick it by referring to loads as \"load #ID\".")

	return model.ContextBundle{
		PromptAugmentation: b.String(),
		RewrittenMessage:   strings.TrimSpace(utterance),
		ContextType:        c.IntentType.ContextType(),
		StructuredData:     model.JSONMap{"matches": matches},
	}
}

func (a *ContextAssembler) domainGeneral(utterance string) model.ContextBundle {
	return model.ContextBundle{
		PromptAugmentation: "No specific load data applies to this message. Answer from general freight and trucking knowledge (rates, fuel, lanes, brokers, compliance, paperwork). Give practical numbers or steps where you can.",
		RewrittenMessage:   strings.TrimSpace(utterance),
		ContextType:        model.IntentDomainGeneral,
	}
}

func (a *ContextAssembler) buttonResponse(utterance, dialogueContext string) model.ContextBundle {
	ack := strings.TrimSpace(utterance)

	var b strings.Builder
	fmt.Fprintf(&b, "The user replied %q to your previous suggestion.", ack)
	if dialogueContext != "" {
		fmt.Fprintf(&b, " Your previous question was: %q.", dialogueContext)
	}
	b.WriteString(" If the reply is affirmative, carry out that suggested action now using the data you already have. ")
	b.WriteString("If it is negative, acknowledge briefly and drop the suggestion. ")
	b.WriteString("Do not ask any new question in this reply.")

	data := model.JSONMap{"acknowledgement": ack}
	rewritten := ack
	if dialogueContext != "" {
		data["prior_question"] = dialogueContext
		rewritten = fmt.Sprintf("%s (in reply to: %s)", ack, dialogueContext)
	}

	return model.ContextBundle{
		PromptAugmentation: b.String(),
		RewrittenMessage:   rewritten,
		ContextType:        model.IntentButtonResponse.ContextType(),
		StructuredData:     data,
	}
}

func (a *ContextAssembler) noContext(utterance string, unresolved *int64) model.ContextBundle {
	var b strings.Builder
	if unresolved != nil {
		fmt.Fprintf(&b, "The user referred to load #%d, but no load with that ID exists. Say so plainly and suggest checking the number or searching by broker, city or status.\n\n", *unresolved)
	}
	b.WriteString("You can help with: looking up a load by number (\"load #1234\"), searching loads by broker, status, city or rate, ")
	b.WriteString("explaining rates and profitability, and general trucking questions. If the request is unclear, briefly explain what you can do.")

	var data model.JSONMap
	if unresolved != nil {
		data = model.JSONMap{"unresolved_load_id": *unresolved}
	}

	return model.ContextBundle{
		PromptAugmentation: b.String(),
		RewrittenMessage:   strings.TrimSpace(utterance),
		ContextType:        model.IntentNoContext,
		StructuredData:     data,
	}
}
