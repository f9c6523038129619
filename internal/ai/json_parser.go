package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Pre-compiled patterns for cleaning up capability output. Models are
// asked for raw JSON but still occasionally wrap it in code fences or
// emit trailing commas.
var (
	codeFenceStartRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	codeFenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)

	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)//.*$`)

	// Greedy so nested structures are captured whole.
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	arrayRegex  = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// maxResponseSize bounds how much capability output we will parse.
const maxResponseSize = 10 * 1024 * 1024

// ParseResult represents the result of a JSON parse operation.
type ParseResult[T any] struct {
	Success      bool
	Data         T
	Error        string
	OriginalText string
}

// Parse attempts to decode capability output as JSON with fallback
// strategies for the usual formatting quirks:
//
//  1. Direct JSON parse
//  2. Remove code fences and retry
//  3. Strip trailing commas and comments, retry
//  4. Extract a JSON object/array from mixed content, retry
//
// A failure here is a capability response error; callers degrade the
// affected domain or stage and log it.
func Parse[T any](text string, context string) ParseResult[T] {
	if len(text) > maxResponseSize {
		return parseError[T](fmt.Sprintf("response exceeds size limit (%d > %d bytes)", len(text), maxResponseSize), text, context)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parseError[T]("empty response", text, context)
	}

	if result, err := tryDirectParse[T](trimmed); err == nil {
		return ParseResult[T]{Success: true, Data: result, OriginalText: text}
	} else {
		slog.Debug("direct JSON parse failed, trying cleanup strategies",
			"error", err.Error(),
			"preview", truncateString(text, 100),
			"context", context)
	}

	withoutFences := removeCodeFences(trimmed)
	if withoutFences != trimmed {
		if result, err := tryDirectParse[T](withoutFences); err == nil {
			return ParseResult[T]{Success: true, Data: result, OriginalText: text}
		}
	}

	cleaned := cleanupJSON(withoutFences)
	if result, err := tryDirectParse[T](cleaned); err == nil {
		return ParseResult[T]{Success: true, Data: result, OriginalText: text}
	}

	if extracted := extractJSON(cleaned); extracted != "" {
		if result, err := tryDirectParse[T](extracted); err == nil {
			return ParseResult[T]{Success: true, Data: result, OriginalText: text}
		}
	}

	return parseError[T]("all JSON parsing strategies failed", text, context)
}

func tryDirectParse[T any](text string) (T, error) {
	var result T
	err := json.Unmarshal([]byte(text), &result)
	return result, err
}

// removeCodeFences strips markdown code fences from text.
func removeCodeFences(text string) string {
	cleaned := codeFenceStartRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		cleaned = codeFenceAnyRegex.ReplaceAllString(text, "$1")
	}
	if strings.HasPrefix(cleaned, "`") && strings.HasSuffix(cleaned, "`") {
		cleaned = strings.TrimPrefix(cleaned, "`")
		cleaned = strings.TrimSuffix(cleaned, "`")
	}
	return strings.TrimSpace(cleaned)
}

// cleanupJSON removes trailing commas and // comments. Single quotes
// are left alone: rewriting them would break valid JSON containing
// apostrophes.
func cleanupJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	cleaned = singleLineCommentRegex.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// extractJSON pulls a JSON object or array out of mixed prose. The
// first-character check keeps an array from being mis-extracted as its
// first element.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '[':
			if match := arrayRegex.FindString(text); match != "" {
				return match
			}
		case '{':
			if match := objectRegex.FindString(text); match != "" {
				return match
			}
		}
	}
	if match := objectRegex.FindString(text); match != "" {
		return match
	}
	return arrayRegex.FindString(text)
}

func parseError[T any](message, text, context string) ParseResult[T] {
	var zero T
	if context != "" {
		message = context + ": " + message
	}
	return ParseResult[T]{Success: false, Data: zero, Error: message, OriginalText: text}
}
