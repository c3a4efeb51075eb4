package flagx

import "strings"

// StringList is a repeatable string flag: "-r a -r b" yields [a b]. A single
// occurrence may also carry a comma-separated list.
type StringList []string

func (l *StringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *StringList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}
