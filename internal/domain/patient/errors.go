package patient

import "errors"

var (
	ErrRecordNotFound = errors.New("patient record not found")
)
