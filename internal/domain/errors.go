package domain

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
)

// ErrorKind classifies submission failures.
type ErrorKind string

const (
	KindUnknown           ErrorKind = ""
	KindAuthRequired      ErrorKind = "AUTH_REQUIRED"
	KindRateLimited       ErrorKind = "RATE_LIMITED"
	KindValidationFailed  ErrorKind = "VALIDATION_FAILED"
	KindSpamDetected      ErrorKind = "SPAM_DETECTED"
	KindInvalidOrderItem  ErrorKind = "INVALID_ORDER_ITEM"
	KindMissingProduct    ErrorKind = "MISSING_PRODUCT"
	KindPersistenceFailed ErrorKind = "PERSISTENCE_FAILED"
	KindNetworkOrTimeout  ErrorKind = "NETWORK_OR_TIMEOUT"
)

var kindStatus = map[ErrorKind]int{
	KindAuthRequired:      http.StatusForbidden,
	KindRateLimited:       http.StatusTooManyRequests,
	KindValidationFailed:  http.StatusBadRequest,
	KindSpamDetected:      http.StatusForbidden,
	KindInvalidOrderItem:  http.StatusForbidden,
	KindMissingProduct:    http.StatusBadRequest,
	KindPersistenceFailed: http.StatusInternalServerError,
	KindNetworkOrTimeout:  http.StatusBadGateway,
}

// User-facing messages.
const (
	MsgAuthRequired    = "Login requerido"
	MsgHoneypot        = "Spam detectado."
	MsgIPRateLimited   = "Muitas tentativas. Aguarde um pouco."
	MsgTooFast         = "Você está enviando avaliações muito rápido. Aguarde alguns minutos."
	MsgEmptyContent    = "Depoimento vazio"
	MsgSelectRating    = "Selecione uma nota de 1 a 5 estrelas."
	MsgSpamContent     = "Conteúdo não permitido detectado"
	MsgInvalidItem     = "Item inválido ou não pertence ao seu último pedido"
	MsgMissingProduct  = "Escolha um produto do seu último pedido ou escreva o nome do produto"
	MsgPersistFailed   = "Erro ao salvar review"
	MsgOrderLookupDown = "Não foi possível consultar seus pedidos. Tente novamente."
	MsgNoOrder         = "Nenhum pedido encontrado"
	MsgNoOrderItems    = "Nenhum item no último pedido"
)

// ContentLengthMessage describes the accepted content length.
func ContentLengthMessage(min, max int) string {
	return fmt.Sprintf("Depoimento muito curto (mínimo %d caracteres) ou muito longo (máximo %d)", min, max)
}

func newKindError(kind ErrorKind, msg string, cause error) *apperrors.AppError {
	return apperrors.New(string(kind), msg, kindStatus[kind], cause)
}

func ErrAuthRequired() error { return newKindError(KindAuthRequired, MsgAuthRequired, apperrors.ErrForbidden) }

// ErrRateLimited is shared by the IP counter and the per-user interval;
// only the message differs.
func ErrRateLimited(msg string) error {
	return newKindError(KindRateLimited, msg, apperrors.ErrTooManyRequests)
}

func ErrValidation(msg string) error {
	return newKindError(KindValidationFailed, msg, apperrors.ErrInvalidInput)
}

func ErrSpam(msg string) error { return newKindError(KindSpamDetected, msg, apperrors.ErrForbidden) }

func ErrInvalidOrderItem() error {
	return newKindError(KindInvalidOrderItem, MsgInvalidItem, apperrors.ErrForbidden)
}

func ErrMissingProduct() error {
	return newKindError(KindMissingProduct, MsgMissingProduct, apperrors.ErrInvalidInput)
}

func ErrPersistence(cause error) error {
	return newKindError(KindPersistenceFailed, MsgPersistFailed, cause)
}

func ErrNetwork(cause error) error {
	err := newKindError(KindNetworkOrTimeout, MsgOrderLookupDown, cause)
	// An open breaker is reported as 503 so clients know to back off.
	if errors.Is(cause, apperrors.ErrServiceUnavail) {
		err.Status = http.StatusServiceUnavailable
	}
	return err
}

// ErrNoEligibleOrder is returned when listing the last order of a user who
// has none. It is not a submission failure.
func ErrNoEligibleOrder() error {
	return apperrors.New("NO_ELIGIBLE_ORDER", MsgNoOrder, http.StatusNotFound, apperrors.ErrNotFound)
}

func ErrEmptyOrder() error {
	return apperrors.New("EMPTY_ORDER", MsgNoOrderItems, http.StatusNotFound, apperrors.ErrNotFound)
}

// KindOf recovers the ErrorKind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return KindUnknown
	}
	kind := ErrorKind(appErr.Code)
	if _, ok := kindStatus[kind]; !ok {
		return KindUnknown
	}
	return kind
}
