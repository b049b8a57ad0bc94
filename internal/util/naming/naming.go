// Package naming provides consistent naming for node-group resources.
//
// Shared resources (key pairs, security groups) are named after the group
// tag itself. Node display names follow {tag}-{instanceID}. The hyphen is
// the separator in that convention, which is why group tags must not
// contain one.
package naming

import (
	"fmt"
	"strings"
)

// Separator joins the group tag and the instance id in node names.
const Separator = "-"

// ValidateTag rejects tags that contain the reserved separator or are empty.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag must not be empty")
	}
	if strings.Contains(tag, Separator) {
		return fmt.Errorf("tag %q must not contain %q", tag, Separator)
	}
	return nil
}

// KeyPair returns the name of the shared key pair for a group.
func KeyPair(tag string) string {
	return tag
}

// SecurityGroup returns the name of the shared security group for a group.
func SecurityGroup(tag string) string {
	return tag
}

// Node returns the display name of a node within a group.
func Node(tag, instanceID string) string {
	return fmt.Sprintf("%s%s%s", tag, Separator, instanceID)
}

// TagFromNode recovers the group tag from a node display name. The second
// return is false when the name does not follow the convention.
func TagFromNode(name string) (string, bool) {
	tag, _, ok := strings.Cut(name, Separator)
	if !ok || tag == "" {
		return "", false
	}
	return tag, true
}
