package auth

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/auth"
)

var errorTable = map[error]*httperrors.AppError{
	svc.ErrTenantRequired:       httperrors.ErrTenantRequired,
	svc.ErrTenantNotFound:       httperrors.ErrTenantNotFound,
	svc.ErrPublicSignupDisabled: httperrors.ErrPublicSignupDisabled,
	svc.ErrCapacityExceeded:     httperrors.ErrCapacityExceeded,
	svc.ErrEmailTaken:           httperrors.ErrEmailInUse,
	svc.ErrUsernameTaken:        httperrors.ErrUsernameTaken,
	svc.ErrAccountNotFound:      httperrors.ErrUserNotFound,
	svc.ErrAlreadyVerified:      httperrors.ErrAlreadyVerified,
	svc.ErrInvalidCode:          httperrors.ErrInvalidCode,
	svc.ErrInvalidCredentials:   httperrors.ErrInvalidCredentials,
	svc.ErrAccountDisabled:      httperrors.ErrAccountDisabled,
	svc.ErrEmailNotVerified:     httperrors.ErrEmailNotVerified,
	svc.ErrAccountLocked:        httperrors.ErrAccountLocked,
	svc.ErrInvalidToken:         httperrors.ErrTokenInvalid,
	svc.ErrTokenExpired:         httperrors.ErrTokenExpired,
	svc.ErrWrongTokenType:       httperrors.ErrWrongTokenType,
	svc.ErrTokenMismatch:        httperrors.ErrTokenMismatch,
	svc.ErrUserNotFound:         httperrors.ErrUserNotFound,
	svc.ErrInvalidResetToken:    httperrors.ErrInvalidReset,
	svc.ErrRateLimited:          httperrors.ErrRateLimitExceeded,
}

// writeError traduce el error del service. Los rate limits llevan Retry-After.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rl *svc.RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
	}
	httperrors.WriteError(w, r, httperrors.Map(err, errorTable))
}
