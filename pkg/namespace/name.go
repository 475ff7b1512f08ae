package namespace

import (
	"fmt"
	"strings"

	"github.com/aretw0/stash/pkg/domain"
)

// ValidateName trims name and checks it against the naming rules.
// It returns the trimmed name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidNamespaceName)
	case name[0] == '_' && !strings.HasPrefix(name, domain.SessionPrefix):
		return "", fmt.Errorf("%w: %q cannot start with an underscore", domain.ErrInvalidNamespaceName, name)
	case name[0] >= '0' && name[0] <= '9':
		return "", fmt.Errorf("%w: %q cannot start with a number", domain.ErrInvalidNamespaceName, name)
	}
	return name, nil
}
