package intake

// Outcome is what one dialog step produces: the bot message, the identifier
// of the question being asked (empty when the profile is satisfied), and any
// quick-reply options to attach.
type Outcome struct {
	BotMessage     string   `json:"bot_message"`
	NextQuestionID string   `json:"next_question_id,omitempty"`
	QuickReplies   []string `json:"quick_replies,omitempty"`
}

const closingMessage = "Thanks! I have your basic details. We can proceed to the next steps soon."

// NextMissingField walks the ask sequence and returns the first field that is
// neither completed nor filled. Completion wins over value: a field in
// completed_fields is never re-asked even if its value looks empty.
func NextMissingField(p Profile) (PromptedField, bool) {
	completed := CompletedSet(p)
	for _, f := range BasicOrder {
		if _, done := completed[f.Key]; done {
			continue
		}
		if IsEmptyValue(p[f.Key]) {
			return f, true
		}
	}
	return PromptedField{}, false
}

// NextQuestion is the deterministic dialog floor: the first unmet field's
// question with its canned quick replies, or the closing message once every
// field is satisfied.
func NextQuestion(p Profile) Outcome {
	f, ok := NextMissingField(Normalize(p))
	if !ok {
		return Outcome{BotMessage: closingMessage}
	}
	return Outcome{
		BotMessage:     f.Question,
		NextQuestionID: QuestionID(f.Key),
		QuickReplies:   QuickRepliesFor(f.Key),
	}
}
