package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// dispatchRouteChange performs a client-side route change, the way an SPA
// link click would, instead of a full HTTP navigation.
func dispatchRouteChange(p *rod.Page, path string) error {
	js := fmt.Sprintf(`() => {
		history.pushState(null, "", %q);
		window.dispatchEvent(new CustomEvent("location-changed", {detail: {replace: false}}));
	}`, path)
	_, err := p.Eval(js)
	return err
}

// waitForHALoading polls the page's shadow tree for the absence of HA's
// "_loading" flag, bounded by cap. Timeout is non-fatal: the caller
// proceeds with whatever is currently rendered.
func waitForHALoading(p *rod.Page, cap time.Duration) {
	deadline := time.Now().Add(cap)
	const js = `() => {
		try {
			const ha = document.querySelector("home-assistant");
			if (!ha || !ha.shadowRoot) return true;
			const main = ha.shadowRoot.querySelector("home-assistant-main");
			if (!main) return true;
			return main._loading !== true;
		} catch (e) { return true; }
	}`
	for time.Now().Before(deadline) {
		if evalBool(p, js) {
			return
		}
		time.Sleep(smartWaitPoll)
	}
}

// dismissToast clicks away any active HA toast notification, returning
// whether one was found and dismissed.
func dismissToast(p *rod.Page) bool {
	const js = `() => {
		try {
			const ha = document.querySelector("home-assistant");
			const toast = ha && ha.shadowRoot && ha.shadowRoot.querySelector("notification-manager");
			const el = toast && toast.shadowRoot && toast.shadowRoot.querySelector("ha-toast");
			if (el && el.opened) {
				el.opened = false;
				return true;
			}
			return false;
		} catch (e) { return false; }
	}`
	return evalBool(p, js)
}

// setLanguage invokes HA's language selection the way the sidebar's
// language picker would, via a dispatched custom event the frontend
// listens for.
func setLanguage(p *rod.Page, lang string) {
	js := fmt.Sprintf(`() => {
		try {
			localStorage.setItem("selectedLanguage", JSON.stringify(%q));
			window.dispatchEvent(new CustomEvent("hass-language-select", {detail: {language: %q}}));
		} catch (e) {}
	}`, lang, lang)
	_, _ = p.Eval(js)
}

// setTheme dispatches HA's settheme event so the frontend re-applies
// styling without a full reload.
func setTheme(p *rod.Page, theme string, dark bool) {
	js := fmt.Sprintf(`() => {
		try {
			window.dispatchEvent(new CustomEvent("settheme", {detail: {theme: %q, dark: %t}}));
		} catch (e) {}
	}`, theme, dark)
	_, _ = p.Eval(js)
}

// smartWait polls document scroll height and shadow-root content length
// at 100ms intervals; three consecutive identical readings are taken as
// "stable" and the function returns early. bound acts purely as a timeout.
func smartWait(p *rod.Page, bound time.Duration) {
	const js = `() => {
		try {
			const ha = document.querySelector("home-assistant");
			const shadowLen = ha && ha.shadowRoot ? ha.shadowRoot.innerHTML.length : 0;
			return document.body.scrollHeight + shadowLen;
		} catch (e) { return document.body.scrollHeight; }
	}`
	deadline := time.Now().Add(bound)
	var last, stableCount int
	for time.Now().Before(deadline) {
		cur := evalInt(p, js)
		if cur == last && cur != 0 {
			stableCount++
			if stableCount >= 3 {
				return
			}
		} else {
			stableCount = 0
		}
		last = cur
		time.Sleep(smartWaitPoll)
	}
}
