package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest     Code = 100001
	BadResponse    Code = 100002
	NotFound       Code = 100004
	AlreadyExists  Code = 100006
	Internal       Code = 100007
	Unavailable    Code = 100008
	NotImplemented Code = 100009

	// Network and registry codes
	UnsupportedNetwork Code = 200001
	BindingUnavailable Code = 200002

	// Transaction request codes
	FeeComputation  Code = 300001
	RequestRejected Code = 300002
	InvalidState    Code = 300003
	SubmitFailed    Code = 300004

	// Chain read codes
	ChainRead Code = 400001
)
