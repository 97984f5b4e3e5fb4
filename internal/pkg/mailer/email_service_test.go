package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledMailerIsNoop(t *testing.T) {
	svc := NewEmailService("", 587, "", "", "Bot", "ops@example.com")
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.SendOperatorAlert("subject", "msg", nil))

	svc = NewEmailService("smtp.example.com", 587, "bot@example.com", "pw", "Bot", "")
	assert.False(t, svc.Enabled())
}

func TestRenderAlertEscapesAndSorts(t *testing.T) {
	out := renderAlert("Stage <pin> failed", map[string]interface{}{
		"z_form": "abc",
		"a_err":  "<script>",
	})

	assert.Contains(t, out, "Stage &lt;pin&gt; failed")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Less(t, strings.Index(out, "a_err"), strings.Index(out, "z_form"))
}
