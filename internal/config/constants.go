package config

import "time"

// Authorization timing.
const (
	AuthRefreshInterval = 30 * time.Second // periodic owner/admin re-check
	AuthCacheWindow     = 30 * time.Second // a positive flag younger than this skips reads
)

// Timeouts for reads and RPC selection. Writes have none: a transaction is
// waited on until it is mined or fails.
const (
	RPCSelectTimeout     = 10 * time.Second // endpoint benchmark / RPC selection
	ReadTimeout          = 20 * time.Second // one command's contract reads
	ProviderPollInterval = 2 * time.Second  // rpc provider account/chain polling
)

// MaxEmails is the largest participant batch accepted in one write.
const MaxEmails = 10
