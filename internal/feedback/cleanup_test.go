package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	t.Run("strips numbered lists, bullets, and markdown emphasis", func(t *testing.T) {
		in := "1. Great job! \n2) Try softer consonants.\n**Keep going!**"
		out := Clean(in)

		assert.Equal(t, "Great job! Try softer consonants. Keep going!", out)
	})

	t.Run("strips known labels case-insensitively", func(t *testing.T) {
		in := "Encouraging Summary: You did wonderfully.\narea to improve : Focus on the s sound.\nMOTIVATIONAL LINE: Keep shining!"
		out := Clean(in)

		assert.Equal(t, "You did wonderfully. Focus on the s sound. Keep shining!", out)
	})

	t.Run("strips heading markers and bullet glyphs", func(t *testing.T) {
		in := "# Feedback\n- You spoke clearly.\n• Try slowing down.\n* You are a star!"
		out := Clean(in)

		assert.Equal(t, "Feedback You spoke clearly. Try slowing down. You are a star!", out)
	})

	t.Run("removes characters outside the allow-set", func(t *testing.T) {
		in := "Great work ✨ (really)! You said \"the cat\" well; keep it up."
		out := Clean(in)

		assert.NotContains(t, out, "(")
		assert.NotContains(t, out, ";")
		assert.NotContains(t, out, "✨")
		assert.Contains(t, out, `"the cat"`)
	})

	t.Run("collapses whitespace runs and trims", func(t *testing.T) {
		in := "  Nice   try.\n\n\tDo it   again.  "
		out := Clean(in)

		assert.Equal(t, "Nice try. Do it again.", out)
	})

	t.Run("idempotent on clean text", func(t *testing.T) {
		once := Clean("1. Great job! \n2) Try softer consonants.\n**Keep going!**")
		twice := Clean(once)

		assert.Equal(t, once, twice)
	})

	t.Run("no structural decoration survives", func(t *testing.T) {
		in := "### First!\n2) Second...\n* Third?"
		out := Clean(in)

		assert.NotRegexp(t, `(?m)^\d+[.)]`, out)
		assert.NotContains(t, out, "#")
		assert.NotContains(t, out, "*")
		assert.NotContains(t, out, "•")
	})
}
