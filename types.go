package main

import (
	"math"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot is one complete set of dashboard data. It is replaced wholesale on
// every refresh or push and never mutated after decode.
type Snapshot struct {
	Stats       Stats     `json:"stats"`
	Users       UserList  `json:"users"`
	Calls       CallList  `json:"calls"`
	GeneratedAt Timestamp `json:"generatedAt,omitempty"`
}

type Stats struct {
	TotalUsers    Count `json:"totalUsers"`
	OnlineUsers   Count `json:"onlineUsers"`
	ActiveCalls   Count `json:"activeCalls"`
	MessagesToday Count `json:"messagesToday"`
}

// UnmarshalJSON treats anything other than an object as empty stats.
func (s *Stats) UnmarshalJSON(b []byte) error {
	*s = Stats{}
	if jsonKind(b) != '{' {
		return nil
	}
	type plain Stats
	return json.Unmarshal(b, (*plain)(s))
}

type User struct {
	Username    Text `json:"username"`
	DisplayName Text `json:"displayName"`
	Online      Flag `json:"online"`
}

// UserList decodes a users array. A non-array is an empty list and
// non-object entries are skipped.
type UserList []User

func (l *UserList) UnmarshalJSON(b []byte) error {
	*l = nil
	items, err := objectItems(b)
	if err != nil {
		return err
	}
	for _, raw := range items {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return err
		}
		*l = append(*l, u)
	}
	return nil
}

// CallList decodes a calls array with the same rules as UserList.
type CallList []Call

func (l *CallList) UnmarshalJSON(b []byte) error {
	*l = nil
	items, err := objectItems(b)
	if err != nil {
		return err
	}
	for _, raw := range items {
		var c Call
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		*l = append(*l, c)
	}
	return nil
}

func objectItems(b []byte) ([]jsoniter.RawMessage, error) {
	if jsonKind(b) != '[' {
		return nil, nil
	}
	var raw []jsoniter.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	items := raw[:0]
	for _, r := range raw {
		if jsonKind(r) == '{' {
			items = append(items, r)
		}
	}
	return items, nil
}

// jsonKind returns the first significant byte of a JSON value, 0 if empty.
func jsonKind(b []byte) byte {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return 0
	}
	return s[0]
}

type Call struct {
	ID        Text      `json:"id"`
	Caller    Text      `json:"caller"`
	Callee    Text      `json:"callee"`
	Status    Text      `json:"status"`
	StartedAt Timestamp `json:"startedAt"`
}

// Flag is a truthy boolean: true, "true"-like strings and non-zero numbers
// are set; null, zero and any other shape are not.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = false
	s := strings.TrimSpace(string(b))
	switch {
	case s == "true":
		*f = true
	case s == "" || s == "null" || s == "false":
	case s[0] == '"':
		unq, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		if v, err := strconv.ParseBool(strings.TrimSpace(unq)); err == nil {
			*f = Flag(v)
		}
	case s[0] == '{' || s[0] == '[':
	default:
		if n, err := strconv.ParseFloat(s, 64); err == nil && n != 0 && !math.IsNaN(n) {
			*f = true
		}
	}
	return nil
}

// Count is a non-negative integer that decodes leniently: null, numeric
// strings and floats are accepted, negatives clamp to 0 and anything else
// decodes as 0 instead of failing the surrounding document.
type Count int64

func (c *Count) UnmarshalJSON(b []byte) error {
	*c = 0
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f <= 0 {
		return nil
	}
	if f >= math.MaxInt64 {
		*c = Count(math.MaxInt64)
		return nil
	}
	*c = Count(int64(f))
	return nil
}

func (c Count) String() string { return strconv.FormatInt(int64(c), 10) }

// Text holds any JSON scalar as display text. Call ids arrive as numbers.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = ""
	s := strings.TrimSpace(string(b))
	switch {
	case s == "" || s == "null":
		return nil
	case s[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		*t = Text(str)
	case s[0] == '{' || s[0] == '[':
		// not a scalar; leave empty
	default:
		*t = Text(s)
	}
	return nil
}

// Timestamp is the raw timestamp text from the backend. Epoch seconds sent as
// JSON numbers are normalised to RFC 3339 so FormatTime sees one shape.
type Timestamp string

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	*ts = ""
	s := strings.TrimSpace(string(b))
	switch {
	case s == "" || s == "null":
		return nil
	case s[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		*ts = Timestamp(str)
	case s[0] == '{' || s[0] == '[' || s == "true" || s == "false":
		return nil
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			*ts = Timestamp(s)
			return nil
		}
		sec, frac := math.Modf(f)
		*ts = Timestamp(time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(time.RFC3339Nano))
	}
	return nil
}

func (ts Timestamp) IsZero() bool { return strings.TrimSpace(string(ts)) == "" }
