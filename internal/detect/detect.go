// Package detect finds the travel destination a chat message talks about.
package detect

import (
	"context"
	"strings"
)

// Detector returns the destination named by message, or ("", false).
// Implementations never fail; problems are logged and reported as absence.
type Detector interface {
	DetectDestination(ctx context.Context, message string) (string, bool)
}

// Func adapts a plain function to Detector.
type Func func(ctx context.Context, message string) (string, bool)

func (f Func) DetectDestination(ctx context.Context, message string) (string, bool) {
	return f(ctx, message)
}

// MatchKnown returns the first location in known that message mentions,
// compared case-insensitively.
func MatchKnown(message string, known []string) (string, bool) {
	m := strings.ToLower(strings.TrimSpace(message))
	if m == "" {
		return "", false
	}
	for _, loc := range known {
		l := strings.ToLower(strings.TrimSpace(loc))
		if l != "" && strings.Contains(m, l) {
			return loc, true
		}
	}
	return "", false
}

// canonical maps reply onto the matching entry of known. With no known
// locations any non-empty reply is accepted as is.
func canonical(reply string, known []string) (string, bool) {
	r := strings.TrimSpace(reply)
	if r == "" {
		return "", false
	}
	if len(known) == 0 {
		return r, true
	}
	for _, loc := range known {
		if strings.EqualFold(strings.TrimSpace(loc), r) {
			return loc, true
		}
	}
	return "", false
}
