// Package sanitize strips unsafe HTML from user-generated text before it is
// persisted. Event titles, locations, and comment content are plain text;
// event descriptions may carry basic formatting.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all HTML tags and attributes.
	strictPolicy = bluemonday.StrictPolicy()

	// ugcPolicy allows safe user-generated content with basic formatting
	// (<p>, <b>, <i>, <em>, <strong>, <a>, <ul>, <ol>, <li>, <br>).
	ugcPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags and returns plain text.
// Use for: titles, locations, user names, comment content.
func Text(input string) string {
	return strictPolicy.Sanitize(input)
}

// HTML sanitizes HTML content, allowing safe formatting tags.
// Use for: event descriptions.
func HTML(input string) string {
	return ugcPolicy.Sanitize(input)
}
