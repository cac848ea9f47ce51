package di

import "fmt"

func bootstrapError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return fmt.Errorf("bootstrap: %v", r)
}
