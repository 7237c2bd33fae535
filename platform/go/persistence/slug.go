package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	minSlugLength = 3
	maxSlugLength = 48
)

var restaurantSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// reservedSlugs collide with platform paths and hostnames.
var reservedSlugs = map[string]struct{}{
	"admin": {}, "api": {}, "app": {}, "platform": {}, "posbill": {}, "www": {},
}

// NormalizeSlug lowercases a restaurant slug and checks it is 3 to 48 characters of
// hyphen-separated letters and digits that is not reserved.
func NormalizeSlug(input string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(input))
	switch {
	case slug == "":
		return "", errors.New("slug is required")
	case len(slug) < minSlugLength || len(slug) > maxSlugLength:
		return "", fmt.Errorf("invalid slug %q: must be %d to %d characters", input, minSlugLength, maxSlugLength)
	case !restaurantSlug.MatchString(slug):
		return "", fmt.Errorf("invalid slug %q: use lowercase letters, digits and single hyphens", input)
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return "", fmt.Errorf("slug %q is reserved", slug)
	}
	return slug, nil
}
