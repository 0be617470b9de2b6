package hypervisor

import "github.com/nfio-go/nfiofs/pkg/nfioerrors"

// ValidateIdentity enforces that host and fullname are non-empty before any
// remote call is attempted.
func ValidateIdentity(host, fullname string) error {
	if host == "" || fullname == "" {
		return nfioerrors.ErrInvalidArgument
	}
	return nil
}

// RequireImage enforces that image is non-empty; deploy is the only
// operation that needs it.
func RequireImage(image string) error {
	if image == "" {
		return nfioerrors.ErrInvalidArgument
	}
	return nil
}
