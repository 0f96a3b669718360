package cmd

import (
	"errors"
	"os"

	"github.com/ThomasCrouzet/hive-ignite/internal/deploy"
	"github.com/ThomasCrouzet/hive-ignite/internal/resolve"
)

// describe splits an error into the detail line and hint shown to the user.
// A LoadError keeps its path in the detail, even when it wraps a validation
// problem found in an imported compose file.
func describe(err error) (detail, hint string) {
	var verr *resolve.ValidationError
	isValidation := errors.As(err, &verr)

	var lerr *deploy.LoadError
	if errors.As(err, &lerr) {
		if isValidation {
			return err.Error(), verr.Suggestion
		}
		if errors.Is(err, os.ErrNotExist) {
			return err.Error(), "check the path, or run 'hive-ignite init' to create a description"
		}
		return err.Error(), ""
	}

	if isValidation {
		return verr.Error(), verr.Suggestion
	}
	return err.Error(), ""
}
