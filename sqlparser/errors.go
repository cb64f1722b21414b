package sqlparser

import "errors"

// ErrMissingParameterDefinitions is the sentinel for validation failures
// where the SQL text references names with no parameter declaration.
// The wrapped message lists every missing name, comma separated; downstream
// tooling matches on that text, so the wording is part of the contract.
var ErrMissingParameterDefinitions = errors.New("Missing parameter definitions")
