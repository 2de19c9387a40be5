package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// By is an element lookup strategy.
type By string

const (
	ByID        By = "id"
	ByName      By = "name"
	ByCSS       By = "css"
	ByXPath     By = "xpath"
	ByClassName By = "class"
	ByLinkText  By = "link_text"
)

// Locator identifies elements on a page independent of the browser driver.
type Locator struct {
	By    By
	Value string
}

func ID(v string) Locator       { return Locator{By: ByID, Value: v} }
func Name(v string) Locator     { return Locator{By: ByName, Value: v} }
func CSS(v string) Locator      { return Locator{By: ByCSS, Value: v} }
func XPath(v string) Locator    { return Locator{By: ByXPath, Value: v} }
func Class(v string) Locator    { return Locator{By: ByClassName, Value: v} }
func LinkText(v string) Locator { return Locator{By: ByLinkText, Value: v} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}

// UsesXPath reports whether drivers must evaluate the locator as XPath.
func (l Locator) UsesXPath() bool {
	return l.By == ByXPath || l.By == ByLinkText
}

// CSS renders a CSS selector. XPath-only strategies return ok=false.
func (l Locator) CSS() (string, bool) {
	switch l.By {
	case ByID:
		return fmt.Sprintf(`[id=%s]`, strconv.Quote(l.Value)), true
	case ByName:
		return fmt.Sprintf(`[name=%s]`, strconv.Quote(l.Value)), true
	case ByClassName:
		return "." + l.Value, true
	case ByCSS:
		return l.Value, true
	default:
		return "", false
	}
}

// XPath renders an absolute XPath expression. Arbitrary CSS cannot be
// converted and returns ok=false.
func (l Locator) XPath() (string, bool) {
	switch l.By {
	case ByXPath:
		return l.Value, true
	case ByID:
		return fmt.Sprintf(`//*[@id=%s]`, xpathLiteral(l.Value)), true
	case ByName:
		return fmt.Sprintf(`//*[@name=%s]`, xpathLiteral(l.Value)), true
	case ByClassName:
		return fmt.Sprintf(`//*[contains(concat(" ", normalize-space(@class), " "), %s)]`,
			xpathLiteral(" "+l.Value+" ")), true
	case ByLinkText:
		return fmt.Sprintf(`//a[normalize-space(.)=%s]`, xpathLiteral(l.Value)), true
	default:
		return "", false
	}
}

// Selector returns the driver-level selector and whether it is XPath.
func (l Locator) Selector() (string, bool) {
	if l.UsesXPath() {
		x, _ := l.XPath()
		return x, true
	}
	css, _ := l.CSS()
	return css, false
}

// Nth targets the i-th (zero-based) match of l.
func (l Locator) Nth(i int) (Locator, error) {
	x, ok := l.XPath()
	if !ok {
		return Locator{}, fmt.Errorf("locator %s cannot be indexed", l)
	}
	return XPath(fmt.Sprintf("(%s)[%d]", x, i+1)), nil
}

// Child targets descendants matching child inside the i-th match of l.
func (l Locator) Child(i int, child Locator) (Locator, error) {
	parent, err := l.Nth(i)
	if err != nil {
		return Locator{}, err
	}
	cx, ok := child.XPath()
	if !ok {
		return Locator{}, fmt.Errorf("locator %s cannot be nested", child)
	}
	if !strings.HasPrefix(cx, "/") {
		cx = "//" + cx
	} else if !strings.HasPrefix(cx, "//") {
		cx = "/" + cx
	}
	return XPath(parent.Value + cx), nil
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
