package llmclient

import "errors"

// ErrEmptyResponse reports a well-formed provider reply that carried no
// usable text.
var ErrEmptyResponse = errors.New("llmclient: empty model response")
