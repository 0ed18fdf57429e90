package errorx

var (
	ErrUnsupportedNetwork = Error{Code: UnsupportedNetwork, Message: "unsupported network"}
	ErrBindingUnavailable = Error{Code: BindingUnavailable, Message: "contract binding is not available yet"}
	ErrFeeComputation     = Error{Code: FeeComputation, Message: "withdrawal not currently possible for this amount"}
	ErrRequestRejected    = Error{Code: RequestRejected, Message: "transaction request was rejected"}
	ErrInvalidState       = Error{Code: InvalidState, Message: "invalid transaction request state"}
	ErrSubmitFailed       = Error{Code: SubmitFailed, Message: "cannot submit transaction request"}
	ErrChainRead          = Error{Code: ChainRead, Message: "chain read failed"}
)
