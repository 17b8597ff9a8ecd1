package session

import "errors"

// Errors.
var (
	ErrProviderMissing   = errors.New("no wallet provider available")
	ErrNoAccounts        = errors.New("wallet returned no accounts")
	ErrSignerUnavailable = errors.New("could not obtain a signer")
	ErrWrongNetwork      = errors.New("wrong network")
	ErrChainUnregistered = errors.New("network could not be added to the wallet")
)
