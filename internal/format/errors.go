package format

import "errors"

var (
	ErrMalformedURL           = errors.New("malformed change url")
	ErrMalformedApprovalValue = errors.New("malformed approval value")
	ErrMissingUserIdentifier  = errors.New("user has neither name nor email")
)
