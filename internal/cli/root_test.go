package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Run("registers the expected subcommands", func(t *testing.T) {
		names := map[string]bool{}
		for _, cmd := range GetRootCmd().Commands() {
			names[cmd.Name()] = true
		}

		assert.True(t, names["serve"])
		assert.True(t, names["review"])
		assert.True(t, names["configure"])
	})

	t.Run("reports the version", func(t *testing.T) {
		assert.Equal(t, version, GetVersion())
	})
}

func TestReviewCommand(t *testing.T) {
	t.Run("reviews the sample application offline", func(t *testing.T) {
		var out bytes.Buffer
		cmd := GetRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"review"})

		require.NoError(t, cmd.Execute())

		assert.Contains(t, out.String(), "UNDERWRITER REVIEW PACKAGE")
		assert.Contains(t, out.String(), "32.5")
		assert.Contains(t, out.String(), "Obtain BANK_STATEMENT before closing")
		assert.Contains(t, out.String(), "Policy decision: PASS")
	})

	t.Run("fails a weak application", func(t *testing.T) {
		var out bytes.Buffer
		cmd := GetRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"review", "--fico", "600", "--loan-amount", "495000"})

		require.NoError(t, cmd.Execute())

		assert.Contains(t, out.String(), "Policy decision: FAIL")
		assert.Contains(t, out.String(), "manual review")
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		var out bytes.Buffer
		cmd := GetRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"review", "--income", "0"})

		assert.Error(t, cmd.Execute())
	})
}
