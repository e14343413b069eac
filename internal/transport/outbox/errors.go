package outbox

import "errors"

var ErrNoEvents = errors.New("no events")
