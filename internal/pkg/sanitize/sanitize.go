package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richTextPolicyOnce sync.Once
	richTextPolicy     *bluemonday.Policy

	plainTextPolicyOnce sync.Once
	plainTextPolicy     *bluemonday.Policy
)

// RichText keeps the markup produced by the CMS editor and strips
// everything else (scripts, event handlers, unknown elements).
func RichText(input string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return ""
	}
	return getRichTextPolicy().Sanitize(value)
}

// basicEntities are the escapes the strict policy adds to ordinary text.
// Only these are decoded after sanitizing; &lt; and &gt; stay encoded.
var basicEntities = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`, "&quot;", `"`)

// PlainText removes all markup, including markup hidden behind entities
// such as "&lt;script&gt;".
func PlainText(input string) string {
	value := strings.TrimSpace(html.UnescapeString(input))
	if value == "" {
		return ""
	}
	return strings.TrimSpace(basicEntities.Replace(getPlainTextPolicy().Sanitize(value)))
}

func getRichTextPolicy() *bluemonday.Policy {
	richTextPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("p", "pre", "code", "blockquote", "figure", "figcaption")
		richTextPolicy = policy
	})

	return richTextPolicy
}

func getPlainTextPolicy() *bluemonday.Policy {
	plainTextPolicyOnce.Do(func() {
		plainTextPolicy = bluemonday.StrictPolicy()
	})

	return plainTextPolicy
}
