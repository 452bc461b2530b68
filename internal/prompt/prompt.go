// Package prompt renders the completion prompt for grounded question
// answering. Substitution is plain text interpolation: context, history and
// question are treated as opaque blocks and never re-parsed.
package prompt

import "strings"

const withHistoryTemplate = `You are a helpful financial assistant.
You will answer the user's question based on the given context and the past conversation history.

Chat History:
{history}

Context:
{context}

Question: {question}

Answer only from the context. If not enough context, say "I don't know".`

const withoutHistoryTemplate = `You are a helpful financial assistant.
You will answer the user's question based on the given context.

Context:
{context}

Question: {question}

Answer only from the context. If not enough context, say "I don't know".`

// Render builds the final prompt. An empty historyText selects the variant
// without the history section.
func Render(contextText, question, historyText string) string {
	if historyText == "" {
		return strings.NewReplacer(
			"{context}", contextText,
			"{question}", question,
		).Replace(withoutHistoryTemplate)
	}
	return strings.NewReplacer(
		"{history}", historyText,
		"{context}", contextText,
		"{question}", question,
	).Replace(withHistoryTemplate)
}
