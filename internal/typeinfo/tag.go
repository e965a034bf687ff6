// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"regexp"
	"strings"
)

// validColNameRx matches the column names accepted in a "db" tag.
var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// parseTag parses the input "db" tag string and returns the column name it
// binds to. Options after the name are not supported.
func parseTag(tag string) (string, error) {
	options := strings.Split(tag, ",")
	if len(options) > 1 {
		return "", fmt.Errorf("unsupported flag %q in tag %q", options[1], tag)
	}

	name := options[0]
	if len(name) == 0 {
		return "", fmt.Errorf("empty db tag")
	}

	if !validColNameRx.MatchString(name) {
		return "", fmt.Errorf("invalid column name in 'db' tag: %q", name)
	}

	return name, nil
}
