package keybinding

import "errors"

var (
	ErrEmpty               = errors.New("empty key string")
	ErrKeychordUnsupported = errors.New("keychords are not supported")
	ErrUnknownModifier     = errors.New("unknown modifier")
	ErrUnknownKey          = errors.New("unrecognized key")
	ErrUnbalancedBrackets  = errors.New("unbalanced brackets in key")
	ErrMissingKey          = errors.New("key string has no key")
)
