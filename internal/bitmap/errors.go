package bitmap

import "kvprotod/internal/resperr"

var (
	errInvalidOffset = resperr.Generic("bit offset is not an integer or out of range")
	errInvalidValue  = resperr.Generic("bit is not an integer or out of range")
)
