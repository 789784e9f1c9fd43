package viewmux

import (
	"errors"
	"fmt"

	"github.com/gogpu/viewmux/viewport"
)

var (
	// ErrUseAfterDestroy is returned by every Engine operation after Destroy.
	ErrUseAfterDestroy = errors.New("viewmux: engine has been destroyed")

	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("viewmux: invalid viewport configuration")

	// ErrUnknownViewport is returned for a viewport id the engine does not own.
	ErrUnknownViewport = errors.New("viewmux: unknown viewport")

	// ErrDuplicateEngine is returned when an engine id is already registered.
	ErrDuplicateEngine = errors.New("viewmux: engine id already registered")
)

// ConfigurationError reports a viewport that cannot be enabled as
// described.
type ConfigurationError struct {
	Viewport viewport.ID
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("viewmux: viewport %s: %s: %v", e.Viewport, e.Reason, e.Err)
	}
	return fmt.Sprintf("viewmux: viewport %s: %s", e.Viewport, e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigurationError) Unwrap() error { return e.Err }
