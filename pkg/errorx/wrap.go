package errorx

import "fmt"

// Wrap annotates err with the operation name. Returns nil when err is nil.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", op, err)
}
