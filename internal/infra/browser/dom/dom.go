// Package dom renders JavaScript snippets that operate on the elements a
// domain.Locator matches. Drivers use them where the native API has no
// equivalent; page objects use them for JS fallbacks.
package dom

import (
	"encoding/json"
	"fmt"

	"github.com/chiru781/cursior/internal/domain"
)

// All evaluates to an array of the elements matched by loc.
func All(loc domain.Locator) string {
	sel, isXPath := loc.Selector()
	if isXPath {
		return fmt.Sprintf(`(function(){var r=document.evaluate(%s,document,null,XPathResult.ORDERED_NODE_SNAPSHOT_TYPE,null);var a=[];for(var i=0;i<r.snapshotLength;i++){a.push(r.snapshotItem(i));}return a;})()`, literal(sel))
	}
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s))`, literal(sel))
}

// first wraps body in a function receiving the first match as e. Without a
// match the snippet evaluates to missing.
func first(loc domain.Locator, missing, body string) string {
	return fmt.Sprintf(`(function(){var e=%s[0];if(!e){return %s;}%s})()`, All(loc), missing, body)
}

func Count(loc domain.Locator) string {
	return All(loc) + `.length`
}

func Visible(loc domain.Locator) string {
	return first(loc, "false", `var s=window.getComputedStyle(e);return s.display!=="none"&&s.visibility!=="hidden"&&e.getClientRects().length>0;`)
}

func Texts(loc domain.Locator) string {
	return All(loc) + `.map(function(e){return (e.innerText||e.textContent||"").trim();})`
}

func Text(loc domain.Locator) string {
	return first(loc, "null", `return (e.innerText||e.textContent||"").trim();`)
}

func Selected(loc domain.Locator) string {
	return first(loc, "false", `return !!(e.checked||e.selected);`)
}

func Attribute(loc domain.Locator, name string) string {
	return first(loc, "null", fmt.Sprintf(`var v=e.getAttribute(%s);return v===null?"":v;`, literal(name)))
}

// Click clicks the first match through the DOM, bypassing overlays.
func Click(loc domain.Locator) string {
	return first(loc, "false", `e.click();return true;`)
}

// SetValue assigns value and fires the events frameworks listen to.
func SetValue(loc domain.Locator, value string) string {
	return first(loc, "false", fmt.Sprintf(`e.focus();e.value=%s;e.dispatchEvent(new Event("input",{bubbles:true}));e.dispatchEvent(new Event("change",{bubbles:true}));return true;`, literal(value)))
}

// SelectOption selects the option whose visible text is label.
func SelectOption(loc domain.Locator, label string) string {
	return first(loc, "false", fmt.Sprintf(`var want=%s;for(var i=0;i<e.options.length;i++){if(e.options[i].text.trim()===want){e.selectedIndex=i;e.dispatchEvent(new Event("change",{bubbles:true}));return true;}}return false;`, literal(label)))
}

func ScrollIntoView(loc domain.Locator) string {
	return first(loc, "false", `e.scrollIntoView({block:"center"});return true;`)
}

func Hover(loc domain.Locator) string {
	return first(loc, "false", `["mouseover","mouseenter"].forEach(function(t){e.dispatchEvent(new MouseEvent(t,{bubbles:true}));});return true;`)
}

// ReadyState evaluates to document.readyState.
const ReadyState = `document.readyState`

// AcceptDialogs makes window.confirm and window.alert succeed silently.
const AcceptDialogs = `(function(){window.confirm=function(){return true;};window.alert=function(){};return true;})()`

func literal(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
