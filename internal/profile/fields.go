package profile

import "slices"

// Fields is the fixed set of field-of-study tags a profile may carry.
var Fields = []string{
	"Arts & Design",
	"Business",
	"Computer Science",
	"Education",
	"Engineering",
	"Environmental Science",
	"Government & Law",
	"Healthcare",
	"Journalism & Media",
	"Nonprofit",
	"Science & Research",
	"Other",
}

// IsField reports whether tag is one of Fields.
func IsField(tag string) bool {
	return slices.Contains(Fields, tag)
}

// Questions are the narrative prompts answered by Question1-6, in order.
var Questions = [6]string{
	"What did you work on during your internship?",
	"What skills did you build?",
	"Would you recommend this internship to other students?",
	"What was the most memorable moment?",
	"What advice would you give a future intern?",
	"Anything else to share?",
}

// Answer is one prompt with its response.
type Answer struct {
	Question string `json:"question"`
	Text     string `json:"text"`
}

// Answers pairs each non-empty response with its prompt.
func (p *Profile) Answers() []Answer {
	texts := [6]string{p.Question1, p.Question2, p.Question3, p.Question4, p.Question5, p.Question6}
	out := make([]Answer, 0, len(texts))
	for i, text := range texts {
		if text == "" {
			continue
		}
		out = append(out, Answer{Question: Questions[i], Text: text})
	}
	return out
}
