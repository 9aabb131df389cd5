package prompt

// Question is one M-CHAT-R questionnaire item in the compact form used for
// prompt context. RiskOnYes marks items where a "yes" answer indicates risk;
// for the rest, "no" does.
type Question struct {
	ID        int
	Text      string
	RiskOnYes bool
}

// Questions is the M-CHAT-R item catalog, ordered by id.
var Questions = []Question{
	{ID: 1, Text: "Looks when you point at something across the room?"},
	{ID: 2, Text: "Ever wondered if child might be deaf?", RiskOnYes: true},
	{ID: 3, Text: "Does child play pretend / make-believe?"},
	{ID: 4, Text: "Does child like climbing on things?"},
	{ID: 5, Text: "Unusual finger movements near eyes?", RiskOnYes: true},
	{ID: 6, Text: "Points with one finger to ask for something?"},
	{ID: 7, Text: "Points with one finger to show something interesting?"},
	{ID: 8, Text: "Interested in other children?"},
	{ID: 9, Text: "Shows things by bringing/holding them up to share?"},
	{ID: 10, Text: "Responds when you call their name?"},
	{ID: 11, Text: "Smiles back when you smile?"},
	{ID: 12, Text: "Gets upset by everyday noises?", RiskOnYes: true},
	{ID: 13, Text: "Does child walk?"},
	{ID: 14, Text: "Makes eye contact during interaction?"},
	{ID: 15, Text: "Tries to copy what you do?"},
	{ID: 16, Text: "Looks where you look when you turn your head?"},
	{ID: 17, Text: "Tries to get you to watch them?"},
	{ID: 18, Text: "Understands when told to do something?"},
	{ID: 19, Text: "Looks at your face when something new happens?"},
	{ID: 20, Text: "Likes movement activities (swinging, bouncing)?"},
}

// RiskIndicating reports whether an answer to the question flags risk.
func (q Question) RiskIndicating(answer bool) bool {
	if q.RiskOnYes {
		return answer
	}
	return !answer
}
