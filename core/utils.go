package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SplitList splits a comma separated list, dropping blank entries.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = CleanString(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}

// ParseEmailList splits a comma separated list of addresses, dropping anything without an "@".
func ParseEmailList(s string) []string {
	all := SplitList(s)
	emails := make([]string, 0, len(all))
	for _, e := range all {
		if strings.Contains(e, "@") {
			emails = append(emails, e)
		}
	}
	return emails
}

// MergeEmails returns the union of the given address lists, keeping the first occurrence of each address
// (compared case-insensitively) in order.
func MergeEmails(lists ...[]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, list := range lists {
		for _, e := range list {
			e = CleanString(e)
			key := strings.ToLower(e)
			if e == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, e)
		}
	}
	return merged
}
