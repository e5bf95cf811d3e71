package server

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// fieldError is one entry of the multi-field validation envelope.
type fieldError struct {
	Param   string `json:"param"`
	Message string `json:"message"`
}

// fieldCheck inspects one raw JSON value and returns a message on violation.
type fieldCheck func(raw json.RawMessage) string

// fieldRule declares the validation for one body field. Required fields report
// the missing message when absent or null; optional fields are skipped.
type fieldRule struct {
	param    string
	optional bool
	missing  string
	checks   []fieldCheck
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func decodeBody(data []byte) (map[string]json.RawMessage, bool) {
	if len(data) == 0 {
		return map[string]json.RawMessage{}, true
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, false
	}
	if body == nil {
		body = map[string]json.RawMessage{}
	}
	return body, true
}

func runRules(body map[string]json.RawMessage, rules []fieldRule) []fieldError {
	var failures []fieldError
	for _, rule := range rules {
		raw, present := body[rule.param]
		if !present || isJSONNull(raw) {
			if !rule.optional {
				failures = append(failures, fieldError{Param: rule.param, Message: rule.missing})
			}
			continue
		}
		for _, check := range rule.checks {
			if message := check(raw); message != "" {
				failures = append(failures, fieldError{Param: rule.param, Message: message})
				break
			}
		}
	}
	return failures
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func stringValue(raw json.RawMessage) (string, bool) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

func isString(message string) fieldCheck {
	return func(raw json.RawMessage) string {
		if _, ok := stringValue(raw); !ok {
			return message
		}
		return ""
	}
}

func nonEmpty(message string) fieldCheck {
	return func(raw json.RawMessage) string {
		value, ok := stringValue(raw)
		if !ok || strings.TrimSpace(value) == "" {
			return message
		}
		return ""
	}
}

func matchesEmail(message string) fieldCheck {
	return func(raw json.RawMessage) string {
		value, ok := stringValue(raw)
		if !ok || !emailPattern.MatchString(strings.TrimSpace(value)) {
			return message
		}
		return ""
	}
}

func minLength(length int, message string) fieldCheck {
	return func(raw json.RawMessage) string {
		value, ok := stringValue(raw)
		if !ok || len(value) < length {
			return message
		}
		return ""
	}
}

func noSpaces(message string) fieldCheck {
	return func(raw json.RawMessage) string {
		value, ok := stringValue(raw)
		if !ok || strings.Contains(value, " ") {
			return message
		}
		return ""
	}
}

func isBool(message string) fieldCheck {
	return func(raw json.RawMessage) string {
		var value bool
		if err := json.Unmarshal(raw, &value); err != nil {
			return message
		}
		return ""
	}
}

// isSubscription accepts either a JSON object or a string holding JSON, the
// two shapes browsers and older clients send push subscriptions in.
func isSubscription(message string) fieldCheck {
	return func(raw json.RawMessage) string {
		if _, ok := subscriptionText(raw); !ok {
			return message
		}
		return ""
	}
}

// subscriptionText normalizes a push_sub value to the JSON text stored per user.
func subscriptionText(raw json.RawMessage) (string, bool) {
	if inner, ok := stringValue(raw); ok {
		if !json.Valid([]byte(inner)) {
			return "", false
		}
		return inner, true
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return "", false
	}
	return string(raw), true
}

var signupRules = []fieldRule{
	{
		param:   "email",
		missing: "Your email should not be empty",
		checks: []fieldCheck{
			isString("Your email is invalid"),
			nonEmpty("Your email should not be empty"),
			matchesEmail("Your email is invalid"),
		},
	},
	{
		param:   "password",
		missing: "Your password should not be empty",
		checks: []fieldCheck{
			isString("Your password is invalid"),
			nonEmpty("Your password should not be empty"),
			minLength(5, "Your password should contain minimum of 5 characters"),
			noSpaces("Your password contains illegal characters"),
		},
	},
}

var loginRules = []fieldRule{
	{
		param:   "email",
		missing: "Your email should not be empty",
		checks: []fieldCheck{
			isString("Your email is invalid"),
			nonEmpty("Your email should not be empty"),
			matchesEmail("Your email is invalid"),
		},
	},
	{
		param:   "password",
		missing: "Your password should not be empty",
		checks: []fieldCheck{
			isString("Your password is invalid"),
			nonEmpty("Your password should not be empty"),
		},
	},
}

var newEntryRules = []fieldRule{
	{
		param:   "title",
		missing: "Title should not be empty",
		checks: []fieldCheck{
			isString("Title should be a string"),
			nonEmpty("Title should not be empty"),
		},
	},
	{
		param:   "content",
		missing: "Content should not be empty",
		checks: []fieldCheck{
			isString("Content should be a string"),
			nonEmpty("Content should not be empty"),
		},
	},
	{
		param:   "is_favorite",
		missing: "Entry should either be favorited or not (boolean)",
		checks: []fieldCheck{
			isBool("Entry should either be favorited or not (boolean)"),
		},
	},
}

var modifyEntryRules = []fieldRule{
	{
		param:    "title",
		optional: true,
		checks: []fieldCheck{
			isString("Title should be a string"),
			nonEmpty("Title should not be empty"),
		},
	},
	{
		param:    "content",
		optional: true,
		checks: []fieldCheck{
			isString("Content should be a string"),
			nonEmpty("Content should not be empty"),
		},
	},
	{
		param:    "is_favorite",
		optional: true,
		checks: []fieldCheck{
			isBool("Entry should either be favorited or not (boolean)"),
		},
	},
}

var updateProfileRules = []fieldRule{
	{
		param:    "push_sub",
		optional: true,
		checks: []fieldCheck{
			isSubscription("Push Subscription should be JSON"),
		},
	},
	{
		param:    "email_reminder",
		optional: true,
		checks: []fieldCheck{
			isBool("Email reminder preference should be boolean"),
		},
	},
}

// validateEntryID parses the :id path parameter.
func validateEntryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondFieldErrors(c, []fieldError{{
			Param:   "id",
			Message: "Entry id should be an integer greater than zero",
		}})
		return 0, false
	}
	return id, true
}

// listQuery holds the validated pagination parameters of GET /entries.
type listQuery struct {
	limit         int
	page          int
	favoritesOnly bool
}

func validateListQuery(c *gin.Context) (listQuery, bool) {
	query := listQuery{limit: 0, page: 0}
	var failures []fieldError

	if rawLimit, present := c.GetQuery("limit"); present {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit <= 0 {
			failures = append(failures, fieldError{
				Param:   "limit",
				Message: "Limit parameter should be an integer greater than zero",
			})
		} else {
			query.limit = limit
		}
	}

	if rawPage, present := c.GetQuery("page"); present {
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 0 {
			failures = append(failures, fieldError{
				Param:   "page",
				Message: "Page parameter should be integer",
			})
		} else {
			query.page = page
		}
	}

	if rawFilter, present := c.GetQuery("filter"); present {
		if rawFilter != "favs" {
			failures = append(failures, fieldError{
				Param:   "filter",
				Message: "Filter parameter value is invalid",
			})
		} else {
			query.favoritesOnly = true
		}
	}

	if len(failures) > 0 {
		respondFieldErrors(c, failures)
		return listQuery{}, false
	}
	return query, true
}
