package errcodes

import (
	"net/http"

	"git.appkode.ru/pub/go/failure"
)

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	Conflict            failure.ErrorCode = "Conflict"

	InvalidDeal           failure.ErrorCode = "InvalidDeal"
	InvalidDealID         failure.ErrorCode = "InvalidDealID"
	InvalidAmount         failure.ErrorCode = "InvalidAmount"
	InvalidAddress        failure.ErrorCode = "InvalidAddress"
	InvalidPayment        failure.ErrorCode = "InvalidPayment"
	InvalidTxHash         failure.ErrorCode = "InvalidTxHash"
	InvalidSettlement     failure.ErrorCode = "InvalidSettlement"
	InvalidMandate        failure.ErrorCode = "InvalidMandate"
	InvalidNegotiation    failure.ErrorCode = "InvalidNegotiation"
	DealNotFound          failure.ErrorCode = "DealNotFound"
	AgreementNotFound     failure.ErrorCode = "AgreementNotFound"
	PaymentNotFound       failure.ErrorCode = "PaymentNotFound"
	SettlementNotFound    failure.ErrorCode = "SettlementNotFound"
	SlugAlreadyInUse      failure.ErrorCode = "SlugAlreadyInUse"
	NegotiationNotAllowed failure.ErrorCode = "NegotiationNotAllowed"
	PaymentRequired       failure.ErrorCode = "PaymentRequired"
	SettlementInProgress  failure.ErrorCode = "SettlementInProgress"
	BridgeUnavailable     failure.ErrorCode = "BridgeUnavailable"
)

//nolint:gochecknoglobals
var httpStatuses = map[failure.ErrorCode]int{
	ValidationError:       http.StatusBadRequest,
	InvalidDeal:           http.StatusBadRequest,
	InvalidDealID:         http.StatusBadRequest,
	InvalidAmount:         http.StatusBadRequest,
	InvalidAddress:        http.StatusBadRequest,
	InvalidPayment:        http.StatusBadRequest,
	InvalidTxHash:         http.StatusBadRequest,
	InvalidSettlement:     http.StatusBadRequest,
	InvalidNegotiation:    http.StatusBadRequest,
	Forbidden:             http.StatusForbidden,
	NotFound:              http.StatusNotFound,
	DealNotFound:          http.StatusNotFound,
	AgreementNotFound:     http.StatusNotFound,
	PaymentNotFound:       http.StatusNotFound,
	SettlementNotFound:    http.StatusNotFound,
	Conflict:              http.StatusConflict,
	SlugAlreadyInUse:      http.StatusConflict,
	SettlementInProgress:  http.StatusConflict,
	NegotiationNotAllowed: http.StatusUnprocessableEntity,
	PaymentRequired:       http.StatusUnprocessableEntity,
	InvalidMandate:        http.StatusUnprocessableEntity,
	BridgeUnavailable:     http.StatusBadGateway,
	TimeoutExceeded:       http.StatusGatewayTimeout,
}

// HTTPStatus returns the response status for a known error code.
func HTTPStatus(code failure.ErrorCode) (int, bool) {
	status, ok := httpStatuses[code]

	return status, ok
}
