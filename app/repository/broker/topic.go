package broker

import (
	"strings"

	"github.com/juju/errors"
)

// validateTopic rejects names that no transport can publish to: empty,
// containing whitespace, or NATS wildcards.
func validateTopic(name string) error {
	if name == "" {
		return errors.NotValidf("empty topic name")
	}
	if strings.ContainsAny(name, " \t\r\n*>") {
		return errors.NotValidf("topic name %q", name)
	}
	return nil
}
