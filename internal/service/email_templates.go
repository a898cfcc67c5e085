package service

import (
	"fmt"
	"strings"

	"github.com/thirtyapp/thirty/internal/model"
)

func welcomeEmailTemplate(name, appURL, appName string) (subject, body string) {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}

	subject = fmt.Sprintf("Welcome to %s", appName)
	body = fmt.Sprintf(`%s,

Welcome to %s! Your 30-day journaling challenge starts whenever you're ready.

Pick a track, show up every day, and watch what 30 days of honest writing does.

%s

The %s team`, greeting, appName, appURL, appName)
	return subject, body
}

func passwordResetEmailTemplate(name, resetURL, appName string) (subject, body string) {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}

	subject = fmt.Sprintf("Reset your %s password", appName)
	body = fmt.Sprintf(`%s,

Someone requested a password reset for your account. If it was you, use the
link below within the next hour:

%s

If you didn't request this, you can ignore this email.

The %s team`, greeting, resetURL, appName)
	return subject, body
}

func purchaseReceiptEmailTemplate(name string, tracks []model.Track, appURL, appName string) (subject, body string) {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}

	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = string(t)
	}

	subject = fmt.Sprintf("Your %s purchase", appName)
	body = fmt.Sprintf(`%s,

Thanks for your purchase! You now own: %s.

Start your first day here: %s

The %s team`, greeting, strings.Join(names, ", "), appURL, appName)
	return subject, body
}

func accountDeletedEmailTemplate(name, appName string) (subject, body string) {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}

	subject = fmt.Sprintf("Your %s account has been deleted", appName)
	body = fmt.Sprintf(`%s,

Your account and all associated journal entries have been deleted. This
cannot be undone.

If this wasn't you, contact support immediately.

The %s team`, greeting, appName)
	return subject, body
}
