package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// SettingError reports a configured URL that the server cannot use.
type SettingError struct {
	Setting string
	Value   string
	Reason  string
}

func (e *SettingError) Error() string {
	return fmt.Sprintf("%s=%q: %s", e.Setting, e.Value, e.Reason)
}

// ServiceURL checks an optional absolute http(s) endpoint such as the stats
// server. An empty value means the collaborator is not configured.
func ServiceURL(setting, value string) error {
	_, err := parseHTTPURL(setting, value)
	return err
}

// OriginURL checks a scheme://host[:port] address with nothing after the host,
// such as the public base URL of this server.
func OriginURL(setting, value string) error {
	u, err := parseHTTPURL(setting, value)
	if err != nil || u == nil {
		return err
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return &SettingError{Setting: setting, Value: value, Reason: "must not contain a path, query or fragment"}
	}
	return nil
}

func parseHTTPURL(setting, value string) (*url.URL, error) {
	if value == "" {
		return nil, nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return nil, &SettingError{Setting: setting, Value: value, Reason: "not a valid URL"}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, &SettingError{Setting: setting, Value: value, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return nil, &SettingError{Setting: setting, Value: value, Reason: "host is missing"}
	}
	return u, nil
}
