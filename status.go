package asyncq

import "github.com/ygrebnov/asyncq/rpcq"

// Status/Code are re-exported from rpcq, which defines them alongside the
// rest of the abstract surface consumed from the underlying RPC library,
// so that reader/writer call-wrapper interfaces can reference Status
// without an import cycle back into this package.
type (
	Status = rpcq.Status
	Code   = rpcq.Code
)

const (
	CodeOK                 = rpcq.CodeOK
	CodeCancelled           = rpcq.CodeCancelled
	CodeUnavailable         = rpcq.CodeUnavailable
	CodeNotFound            = rpcq.CodeNotFound
	CodeFailedPrecondition  = rpcq.CodeFailedPrecondition
	CodeInternal            = rpcq.CodeInternal
)

var (
	NewStatus        = rpcq.NewStatus
	StatusFromError  = rpcq.StatusFromError
	CodeString       = rpcq.CodeString
)
