// Package feedback builds the generation prompts for pronunciation feedback and
// normalizes the generated text into a plain, child-safe sentence sequence.
package feedback

import (
	"fmt"
	"strings"

	"github.com/speakpath/backend/internal/models"
)

// personaPrompt is the system-level persona instruction. Retrieved context is
// appended as background-only material; the model must never quote or reveal it.
const personaPrompt = "You are an encouraging, friendly speech therapist helping children practice pronunciation. " +
	"Ensure that you are providing constructive feedback on their pronunciation. " +
	"Ensure you are following the professional and ethical speech pathologist guidelines when interacting with the child."

// Request is the complete input bundle for one feedback generation.
type Request struct {
	QuestionText  string
	Transcript    string
	Match         models.MatchResult
	Pronunciation models.PronunciationScores
	Passages      []models.PassageWithScore
}

// BuildSystemPrompt returns the persona instruction, with a grounding block
// appended when retrieval produced passages. With an empty retrieval the block
// is omitted entirely rather than rendered as an empty section.
func BuildSystemPrompt(passages []models.PassageWithScore) string {
	if len(passages) == 0 {
		return personaPrompt
	}

	var sb strings.Builder

	sb.WriteString(personaPrompt)
	sb.WriteString("\n\nUse the following reference material as background knowledge only. ")
	sb.WriteString("Never quote it, cite it, or mention that it exists.\n\n--- Reference Material ---\n")

	for i, p := range passages {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		sb.WriteString(p.Content)
	}

	return sb.String()
}

// BuildUserPrompt returns the task instruction: question, transcript, verdict,
// similarity to two decimals, pronunciation sub-scores, and the three-sentence
// output-shape requirement.
func BuildUserPrompt(req Request) string {
	return fmt.Sprintf(`Question asked: %q
Child's speech: %q

Expected best match: %q
Cosine similarity: %.2f
Correct: %t

Pronunciation Assessment Results:
Accuracy: %.1f
Fluency: %.1f
Completeness: %.1f
Pronunciation: %.1f

Generate exactly three sentences giving feedback:
- First sentence: encouraging and positive
- Second sentence: area to improve
- Third sentence: fun motivational line
DO NOT include any headings, labels, numbers, bullets, markdown symbols, or emojis.
Output ONLY the sentences themselves, nothing else.`,
		req.QuestionText,
		req.Transcript,
		req.Match.AnswerText,
		req.Match.Similarity,
		req.Match.Correct,
		req.Pronunciation.Accuracy,
		req.Pronunciation.Fluency,
		req.Pronunciation.Completeness,
		req.Pronunciation.Pronunciation,
	)
}
