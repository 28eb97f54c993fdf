package errext

import (
	"errors"
)

// Format formats the given error as a message (string) and a map of fields.
// In case of [Exception], the page stack trace is added as a field.
// In case of [HasHint], it also adds the hint as a field.
// In case of [HasExitCode], the code is added as well.
func Format(err error) (string, map[string]interface{}) {
	if err == nil {
		return "", nil
	}

	fields := make(map[string]interface{})
	var xerr Exception
	if errors.As(err, &xerr) && xerr.StackTrace() != "" {
		fields["stack"] = xerr.StackTrace()
	}

	var herr HasHint
	if errors.As(err, &herr) && herr.Hint() != "" {
		fields["hint"] = herr.Hint()
	}

	var ecerr HasExitCode
	if errors.As(err, &ecerr) && ecerr.ExitCode() != 0 {
		fields["exitCode"] = int(ecerr.ExitCode())
	}

	return err.Error(), fields
}
