package screen

import (
	"net/url"
	"strings"
)

// dispatchOSC handles one fully-buffered OSC payload (without the leading
// ESC ] and without its BEL/ST terminator).
func (s *Screen) dispatchOSC(payload []byte) {
	str := string(payload)
	sep := strings.IndexByte(str, ';')
	var code, rest string
	if sep < 0 {
		code, rest = str, ""
	} else {
		code, rest = str[:sep], str[sep+1:]
	}

	switch code {
	case "0", "2":
		s.title = rest
	case "7":
		s.cwd = decodeFileURLPath(rest)
	case "9":
		s.notifications = append(s.notifications, NotificationEvent{
			Kind: NotifyOSC9,
			Text: rest,
		})
	case "777":
		s.dispatchOSC777(rest)
	}
}

// dispatchOSC777 parses "notify;Summary;Body" payloads.
func (s *Screen) dispatchOSC777(rest string) {
	parts := strings.SplitN(rest, ";", 3)
	if len(parts) < 1 || parts[0] != "notify" {
		return
	}
	var summary, body string
	if len(parts) > 1 {
		summary = parts[1]
	}
	if len(parts) > 2 {
		body = parts[2]
	}
	s.notifications = append(s.notifications, NotificationEvent{
		Kind:    NotifyOSC777,
		Summary: summary,
		Body:    body,
	})
}

// decodeFileURLPath turns an OSC 7 "file://host/path" value into a plain,
// percent-decoded filesystem path. If the value isn't a well-formed file:
// URL, the raw string is percent-decoded instead, or returned unchanged when
// that decoding fails.
func decodeFileURLPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" {
		if decoded, derr := url.PathUnescape(raw); derr == nil {
			return decoded
		}
		return raw
	}
	return u.Path
}
