package version

import (
	tmversion "github.com/tendermint/tendermint/version"
)

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version string = EscrowSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// EscrowSemVer is the current version of the escrow application.
	// It's the Semantic Version of the software.
	EscrowSemVer = "0.1.0"

	// ABCIVersion is the version of the ABCI protocol the application
	// speaks, taken from the Tendermint release it is built against.
	ABCIVersion = tmversion.ABCIVersion
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint64

// Uint64 returns the Protocol version as a uint64,
// eg. for compatibility with ABCI types.
func (p Protocol) Uint64() uint64 {
	return uint64(p)
}

// AppProtocol versions the escrow state machine: transaction encoding,
// order records and emitted instructions. It is reported to Tendermint in
// ResponseInfo.
var AppProtocol Protocol = 1
