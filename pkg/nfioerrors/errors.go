// Package nfioerrors defines the hypervisor error taxonomy.
//
// Each kind is a distinct error with a stable numeric code starting at 701,
// chosen to avoid collision with POSIX errno values. Drivers raise these at
// the hypervisor boundary; the lifecycle coordinator catches them to run
// compensation; the dispatcher catches them at the outermost boundary and
// maps them to a POSIX errno before returning to the kernel bridge.
package nfioerrors

// Code is a stable numeric identifier for a hypervisor error kind.
type Code int

const (
	// HypervisorConnection indicates the back-end is unreachable.
	HypervisorConnection Code = 701

	// VNFNotFound indicates the named instance is absent on the host.
	VNFNotFound Code = 702

	// VNFCommandExecution indicates execute_in_guest failed.
	VNFCommandExecution Code = 703

	// VNFCreate indicates the driver's create-family call failed.
	VNFCreate Code = 704

	// VNFDeploy indicates deploy failed, or activate's compensating destroy
	// succeeded after a failed start.
	VNFDeploy Code = 705

	// VNFDestroy indicates destroy failed.
	VNFDestroy Code = 706

	// VNFStart indicates start failed.
	VNFStart Code = 707

	// VNFRestart indicates restart failed.
	VNFRestart Code = 708

	// VNFStop indicates stop failed.
	VNFStop Code = 709

	// VNFPause indicates pause failed.
	VNFPause Code = 710

	// VNFUnpause indicates unpause failed.
	VNFUnpause Code = 711

	// VNFDeployErrorWithInconsistentState indicates activate's start failed
	// AND the compensating destroy also failed, leaving remote state unknown.
	VNFDeployErrorWithInconsistentState Code = 712
)

// names maps each Code to its human-readable kind name.
var names = map[Code]string{
	HypervisorConnection:                "HypervisorConnection",
	VNFNotFound:                         "VNFNotFound",
	VNFCommandExecution:                 "VNFCommandExecution",
	VNFCreate:                           "VNFCreate",
	VNFDeploy:                           "VNFDeploy",
	VNFDestroy:                          "VNFDestroy",
	VNFStart:                            "VNFStart",
	VNFRestart:                          "VNFRestart",
	VNFStop:                             "VNFStop",
	VNFPause:                            "VNFPause",
	VNFUnpause:                          "VNFUnpause",
	VNFDeployErrorWithInconsistentState: "VNFDeployErrorWithInconsistentState",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "Unknown"
}

// HypervisorError is a hypervisor-taxonomy error carrying a stable code, an
// optional wrapped cause, and the target identity the failure applies to.
type HypervisorError struct {
	Code     Code
	Host     string
	Fullname string
	Cause    error
}

func (e *HypervisorError) Error() string {
	msg := e.Code.String()
	if e.Fullname != "" {
		msg += ": " + e.Fullname
	}
	if e.Host != "" {
		msg += " @ " + e.Host
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *HypervisorError) Unwrap() error {
	return e.Cause
}

func newError(code Code, host, fullname string, cause error) *HypervisorError {
	return &HypervisorError{Code: code, Host: host, Fullname: fullname, Cause: cause}
}

func NewHypervisorConnectionError(host string, cause error) *HypervisorError {
	return newError(HypervisorConnection, host, "", cause)
}

func NewVNFNotFoundError(host, fullname string) *HypervisorError {
	return newError(VNFNotFound, host, fullname, nil)
}

func NewVNFCommandExecutionError(host, fullname string, cause error) *HypervisorError {
	return newError(VNFCommandExecution, host, fullname, cause)
}

func NewVNFCreateError(host, fullname string, cause error) *HypervisorError {
	return newError(VNFCreate, host, fullname, cause)
}

func NewVNFDeployError(host, fullname string, cause error) *HypervisorError {
	return newError(VNFDeploy, host, fullname, cause)
}

func NewVNFDestroyError(host, fullname string, cause error) *HypervisorError {
	return newError(VNFDestroy, host, fullname, cause)
}

func NewVNFStartError(host, fullname string, cause error) *HypervisorError {
	return newError(VNFStart, host, fullname, cause)
}

func NewVNFRestartError(host, fullname string, cause error) *HypervisorError {
	return newError(VNFRestart, host, fullname, cause)
}

func NewVNFStopError(host, fullname string, cause error) *HypervisorError {
	return newError(VNFStop, host, fullname, cause)
}

func NewVNFPauseError(host, fullname string, cause error) *HypervisorError {
	return newError(VNFPause, host, fullname, cause)
}

func NewVNFUnpauseError(host, fullname string, cause error) *HypervisorError {
	return newError(VNFUnpause, host, fullname, cause)
}

func NewVNFDeployErrorWithInconsistentState(host, fullname string, cause error) *HypervisorError {
	return newError(VNFDeployErrorWithInconsistentState, host, fullname, cause)
}

// CodeOf extracts the Code from err if it (or something it wraps) is a
// *HypervisorError. The second return is false for any other error.
func CodeOf(err error) (Code, bool) {
	var he *HypervisorError
	for err != nil {
		if h, ok := err.(*HypervisorError); ok {
			he = h
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if he == nil {
		return 0, false
	}
	return he.Code, true
}
