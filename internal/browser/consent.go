package browser

import (
	"strings"
	"time"
)

var consentButtons = []string{
	`button[aria-label^="Accept all"]`,
	`button:has-text("Accept all")`,
	`form[action*="consent"] button`,
	`ytd-button-renderer:has-text("Accept all") button`,
}

// IsConsentURL reports whether the browser was redirected to the cookie consent interstitial.
func IsConsentURL(url string) bool {
	return strings.Contains(url, "consent.youtube.com") || strings.Contains(url, "consent.google.")
}

// AcceptConsent clicks the first matching accept button on a consent interstitial or dialog.
// It returns false when there was nothing to accept.
func (s *Session) AcceptConsent() (bool, error) {
	if s.page == nil {
		return false, nil
	}

	for _, selector := range consentButtons {
		button := s.page.Locator(selector).First()

		count, err := button.Count()
		if err != nil || count == 0 {
			continue
		}

		visible, err := button.IsVisible()
		if err != nil || !visible {
			continue
		}

		s.logger.Debug("found consent button", "selector", selector)

		if err := button.Click(); err != nil {
			s.logger.Warn("failed to click consent button", "selector", selector, "error", err)
			continue
		}

		if IsConsentURL(s.page.URL()) {
			if err := s.page.WaitForLoadState(); err != nil {
				return true, err
			}
		}
		time.Sleep(time.Second)
		return true, nil
	}

	if IsConsentURL(s.page.URL()) {
		return false, errConsentButtonMissing
	}
	return false, nil
}
