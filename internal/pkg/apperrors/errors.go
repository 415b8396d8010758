package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrInvalidAmount            ErrorType = "INVALID_AMOUNT"
	ErrInvalidParameter         ErrorType = "INVALID_PARAMETER"
	ErrUnauthorized             ErrorType = "UNAUTHORIZED"
	ErrUnsupportedProtocol      ErrorType = "UNSUPPORTED_PROTOCOL"
	ErrSlippageExceeded         ErrorType = "SLIPPAGE_EXCEEDED"
	ErrSwapOutputZero           ErrorType = "SWAP_OUTPUT_ZERO"
	ErrInsufficientShares       ErrorType = "INSUFFICIENT_SHARES"
	ErrInsufficientVaultBalance ErrorType = "INSUFFICIENT_VAULT_BALANCE"
	ErrInsufficientBalance      ErrorType = "INSUFFICIENT_BALANCE"
	ErrVotingPeriodNotEnded     ErrorType = "VOTING_PERIOD_NOT_ENDED"
	ErrProposalNotActive        ErrorType = "PROPOSAL_NOT_ACTIVE"
	ErrProposalNotPassed        ErrorType = "PROPOSAL_NOT_PASSED"
	ErrProposalExpired          ErrorType = "PROPOSAL_EXPIRED"
	ErrMaxActiveProposals       ErrorType = "MAX_ACTIVE_PROPOSALS"
	ErrInvalidActionData        ErrorType = "INVALID_ACTION_DATA"
	ErrAlreadyExists            ErrorType = "ALREADY_EXISTS"
	ErrNotFound                 ErrorType = "NOT_FOUND"
	ErrFeeExceedsMaximum        ErrorType = "FEE_EXCEEDS_MAXIMUM"
	ErrLeverageOutOfBounds      ErrorType = "LEVERAGE_OUT_OF_BOUNDS"
	ErrExchangePaused           ErrorType = "EXCHANGE_PAUSED"
	ErrFundPaused               ErrorType = "FUND_PAUSED"
	ErrMathOverflow             ErrorType = "MATH_OVERFLOW"
	ErrRiskReject               ErrorType = "RISK_REJECT"
	ErrAuthFailed               ErrorType = "AUTH_FAILED"
	ErrInvalidRequest           ErrorType = "INVALID_REQUEST"
	ErrInternal                 ErrorType = "INTERNAL_ERROR"
	ErrUpstream                 ErrorType = "UPSTREAM_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func Newf(errType ErrorType, format string, args ...any) *AppError {
	return New(errType, fmt.Sprintf(format, args...), nil)
}

func NewInvalidAmount(msg string) *AppError {
	return New(ErrInvalidAmount, msg, nil)
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// Is reports whether err is an AppError of the given type.
func Is(err error, errType ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == errType
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidAmount, ErrInvalidParameter, ErrInvalidRequest,
		ErrInvalidActionData, ErrFeeExceedsMaximum, ErrLeverageOutOfBounds,
		ErrRiskReject, ErrSwapOutputZero:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrUnsupportedProtocol:
		return http.StatusUnprocessableEntity
	case ErrSlippageExceeded, ErrInsufficientShares, ErrInsufficientVaultBalance,
		ErrInsufficientBalance, ErrVotingPeriodNotEnded, ErrProposalNotActive,
		ErrProposalNotPassed, ErrProposalExpired, ErrMaxActiveProposals,
		ErrAlreadyExists, ErrExchangePaused, ErrFundPaused:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrSlippageExceeded:
		return "Raise minimum_amount_out tolerance or retry when the market moves."
	case ErrUnsupportedProtocol:
		return "Check that accounts[0] is a registered protocol program."
	case ErrVotingPeriodNotEnded:
		return "Wait for voting_end before finalizing."
	case ErrProposalNotPassed:
		return "Only proposals in Passed status can be executed."
	case ErrInsufficientVaultBalance:
		return "Fund capital may be deployed; retry after positions unwind."
	case ErrAuthFailed:
		return "Check API keys."
	default:
		return ""
	}
}
