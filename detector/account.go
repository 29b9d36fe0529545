package detector

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Comment is a single comment from an account's history, ordered oldest to
// newest within AccountSnapshot.Comments.
type Comment struct {
	Body       string    `json:"body"`
	CreatedUTC time.Time `json:"created_utc"`
	Score      float64   `json:"score"`
	Subreddit  string    `json:"subreddit"`
	// set when the upstream fetcher resolved the parent's timestamp; used
	// for response-latency analysis
	ParentCreatedUTC *time.Time `json:"parent_created_utc,omitempty"`
}

// Submission is a single link or self post from an account's history.
type Submission struct {
	Title      string    `json:"title"`
	CreatedUTC time.Time `json:"created_utc"`
	Score      float64   `json:"score"`
	Subreddit  string    `json:"subreddit"`
	IsSelf     bool      `json:"is_self"`
}

// AccountSnapshot is the sanitized view of a Reddit account used by all
// analyzers. It is constructed once per scoring request and treated as
// immutable for the duration of the call.
//
// Karma values are always non-negative after sanitization, and the comment
// and submission sequences are never nil.
type AccountSnapshot struct {
	Username     string       `json:"username"`
	CreatedUTC   time.Time    `json:"created_utc"`
	CommentKarma float64      `json:"comment_karma"`
	LinkKarma    float64      `json:"link_karma"`
	Comments     []Comment    `json:"comments"`
	Submissions  []Submission `json:"submissions"`
}

// AgeDays returns the account age in whole days relative to now.
func (a *AccountSnapshot) AgeDays(now time.Time) float64 {
	if a.CreatedUTC.IsZero() || now.Before(a.CreatedUTC) {
		return 0
	}
	return float64(int(now.Sub(a.CreatedUTC).Hours() / 24))
}

// CommentBodies returns the non-empty comment bodies, in history order.
func (a *AccountSnapshot) CommentBodies() []string {
	out := make([]string, 0, len(a.Comments))
	for _, c := range a.Comments {
		if c.Body != "" {
			out = append(out, c.Body)
		}
	}
	return out
}

// CommentTimestamps returns the comment timestamps, in history order.
func (a *AccountSnapshot) CommentTimestamps() []time.Time {
	out := make([]time.Time, 0, len(a.Comments))
	for _, c := range a.Comments {
		if !c.CreatedUTC.IsZero() {
			out = append(out, c.CreatedUTC)
		}
	}
	return out
}

// CoerceKarma converts the many shapes the upstream API returns karma in
// (number, string with separators, nested object) to a non-negative float.
// Unparseable values coerce to zero, never to an error.
func CoerceKarma(v any) float64 {
	var out float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		out = t
	case float32:
		out = float64(t)
	case int:
		out = float64(t)
	case int64:
		out = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		out = f
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		out = f
	case map[string]any:
		// some API revisions nest the counter, eg {"total": 123}
		for _, key := range []string{"total", "value", "karma"} {
			if inner, ok := t[key]; ok {
				return CoerceKarma(inner)
			}
		}
		return 0
	default:
		return 0
	}
	if out < 0 {
		return 0
	}
	return out
}

// CoerceTimestamp converts epoch numbers (seconds, possibly fractional),
// time.Time values, and free-form date strings to UTC time. The zero time
// plus an error is returned for anything unrecognizable.
func CoerceTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case float64:
		sec := int64(t)
		nsec := int64((t - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp number: %w", err)
		}
		return CoerceTimestamp(f)
	case string:
		// try epoch seconds first; API payloads often stringify them
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return CoerceTimestamp(f)
		}
		ts, err := dateparse.ParseAny(t)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp string: %w", err)
		}
		return ts.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

func coerceComment(raw map[string]any) Comment {
	c := Comment{
		Body:      coerceString(raw["body"]),
		Score:     CoerceKarma(raw["score"]),
		Subreddit: strings.ToLower(coerceString(raw["subreddit"])),
	}
	if ts, err := CoerceTimestamp(raw["created_utc"]); err == nil {
		c.CreatedUTC = ts
	}
	if pv, ok := raw["parent_created_utc"]; ok {
		if ts, err := CoerceTimestamp(pv); err == nil {
			c.ParentCreatedUTC = &ts
		}
	}
	return c
}

func coerceSubmission(raw map[string]any) Submission {
	s := Submission{
		Title:     coerceString(raw["title"]),
		Score:     CoerceKarma(raw["score"]),
		Subreddit: strings.ToLower(coerceString(raw["subreddit"])),
	}
	if ts, err := CoerceTimestamp(raw["created_utc"]); err == nil {
		s.CreatedUTC = ts
	}
	if b, ok := raw["is_self"].(bool); ok {
		s.IsSelf = b
	}
	return s
}

// SanitizeAccount builds an AccountSnapshot from a loosely-typed account
// record, applying all documented coercions. Individual malformed fields
// are coerced to defaults; an error is only returned when the record as a
// whole is unusable (no username and no creation timestamp).
func SanitizeAccount(raw map[string]any) (*AccountSnapshot, error) {
	if raw == nil {
		return nil, fmt.Errorf("account record is not a structured object")
	}

	acct := &AccountSnapshot{
		Username:     coerceString(raw["username"]),
		CommentKarma: CoerceKarma(raw["comment_karma"]),
		LinkKarma:    CoerceKarma(raw["link_karma"]),
		Comments:     []Comment{},
		Submissions:  []Submission{},
	}
	if ts, err := CoerceTimestamp(raw["created_utc"]); err == nil {
		acct.CreatedUTC = ts
	}

	if acct.Username == "" && acct.CreatedUTC.IsZero() {
		return nil, fmt.Errorf("account record has no identity: missing username and creation time")
	}

	if items, ok := raw["comments"].([]any); ok {
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				acct.Comments = append(acct.Comments, coerceComment(m))
			}
		}
	}
	if items, ok := raw["submissions"].([]any); ok {
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				acct.Submissions = append(acct.Submissions, coerceSubmission(m))
			}
		}
	}
	return acct, nil
}
