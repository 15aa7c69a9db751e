// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package logging

import "strings"

// RedactEmail masks the local part of an email address for log output.
// "alice@example.com" becomes "a***@example.com". Malformed addresses are
// fully masked.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// RedactPhone masks a phone number, keeping only the last four digits.
// "+15550001111" becomes "********1111".
func RedactPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// RedactTarget masks a delivery target based on its shape. Email addresses
// and phone numbers get their specific masking; anything else (webhook URLs)
// is passed through, since endpoints are operator-configured and not PII.
func RedactTarget(target string) string {
	switch {
	case strings.Contains(target, "@"):
		return RedactEmail(target)
	case strings.HasPrefix(target, "+"):
		return RedactPhone(target)
	default:
		return target
	}
}
