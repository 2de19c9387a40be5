package dom

import (
	"strings"
	"testing"

	"github.com/chiru781/cursior/internal/domain"
)

func TestAllUsesSelectorEngine(t *testing.T) {
	css := All(domain.ID("email"))
	if !strings.Contains(css, `querySelectorAll("[id=\"email\"]")`) {
		t.Fatalf("unexpected css query %s", css)
	}

	xp := All(domain.LinkText("Forgot password?"))
	if !strings.Contains(xp, `document.evaluate("//a[normalize-space(.)=\"Forgot password?\"]"`) {
		t.Fatalf("unexpected xpath query %s", xp)
	}
}

func TestSnippetsQuoteArguments(t *testing.T) {
	s := SelectOption(domain.Name("payment"), `Pay "now"`)
	if !strings.Contains(s, `var want="Pay \"now\""`) {
		t.Fatalf("label not quoted: %s", s)
	}

	v := SetValue(domain.Name("qty"), "3")
	if !strings.Contains(v, `e.value="3"`) || !strings.HasPrefix(v, "(function(){") {
		t.Fatalf("unexpected snippet %s", v)
	}
}
