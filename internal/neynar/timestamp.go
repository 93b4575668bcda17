package neynar

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// castTime accepts RFC 3339 strings or unix seconds. Anything else decodes to
// the zero time, which never passes the watermark.
type castTime time.Time

func (t *castTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = castTime{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			*t = castTime(ts)
			return nil
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = castTime(time.Unix(secs, 0).UTC())
			return nil
		}
		*t = castTime{}
		return nil
	}
	if secs, err := strconv.ParseFloat(string(b), 64); err == nil {
		*t = castTime(time.Unix(int64(secs), 0).UTC())
		return nil
	}
	*t = castTime{}
	return nil
}
